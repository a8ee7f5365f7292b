package types

// User represents an account in the system.
//
// Account id 0, named "root" with RoleAdmin, is bootstrapped at first
// startup and always exists thereafter.
type User struct {
	// ID is the unique identifier of the user.
	ID uint32 `json:"id" db:"id"`

	// Name is the globally unique login name chosen by the user.
	Name string `json:"name" db:"name"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// Never exposed in API responses.
	PasswordHash []byte `json:"-" db:"password_hash"`

	// Role indicates the user's authorization level within the system.
	Role Role `json:"role" db:"role"`
}

// Public is the subset of User (id, name, role) that omits the
// password hash.
type Public struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Public projects u into its wire-safe subset.
func (u User) Public() Public {
	return Public{ID: u.ID, Name: u.Name, Role: u.Role}
}
