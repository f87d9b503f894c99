package users

type UserRepo interface {
	// Create stores a new user and fails with ErrUserExists on a duplicate email
	Create(user *User) error
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(id ID) (*User, error)
}
