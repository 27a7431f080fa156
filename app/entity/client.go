package entity

type Client struct {
	ID       int64
	OwnerID  *int64
	Email    string
	Fullname string
	Comment  *string
}
