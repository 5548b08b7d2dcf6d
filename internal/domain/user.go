package domain

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an entry in the user directory
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

// UserDirectory is the persisted user list
type UserDirectory struct {
	Users []User `json:"users"`
}

// SafeUser represents a user without sensitive information
type SafeUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ToSafeUser converts a User to a SafeUser
func (u *User) ToSafeUser() SafeUser {
	return SafeUser{
		Username: u.Username,
		Role:     u.Role,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Normalize repairs nil collections and missing roles after a decode.
func (d *UserDirectory) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	for i := range d.Users {
		if d.Users[i].Role == "" {
			d.Users[i].Role = RoleUser
		}
	}
}

// Find returns the user with the given username, or nil.
func (d *UserDirectory) Find(username string) *User {
	for i := range d.Users {
		if d.Users[i].Username == username {
			return &d.Users[i]
		}
	}
	return nil
}

// Usernames returns every registered username.
func (d *UserDirectory) Usernames() []string {
	names := make([]string, 0, len(d.Users))
	for i := range d.Users {
		names = append(names, d.Users[i].Username)
	}
	return names
}
