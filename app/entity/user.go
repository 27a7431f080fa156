package entity

// User is an authenticated account that owns clients, mails and mailings.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsManager    bool
}

// Actor is the identity performing a create/update/delete operation.
type Actor struct {
	UserID    int64
	IsManager bool
}

// ActorFor returns the actor acting on behalf of u.
func ActorFor(u User) Actor {
	return Actor{UserID: u.ID, IsManager: u.IsManager}
}

// Owns reports whether the actor owns a record with the given owner.
// Orphaned records (nil owner) are owned by nobody.
func (a Actor) Owns(ownerID *int64) bool {
	return ownerID != nil && *ownerID == a.UserID
}
