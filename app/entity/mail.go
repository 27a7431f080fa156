package entity

type Mail struct {
	ID        int64
	OwnerID   *int64
	Subject   string
	Content   string
	MailingID *int64
}
