package types

import "time"

// User represents an account in the system.
// It contains identity, display fields, and login bookkeeping.
type User struct {
	// Username is the unique, immutable login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Password stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	Password string `json:"-" db:"password"`

	// FirstName is the user's given name.
	FirstName string `json:"first_name" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"last_name" db:"last_name"`

	// Phone is the user's phone number. The format is not validated.
	Phone string `json:"phone" db:"phone"`

	// JoinAt is the timestamp when the account was created.
	JoinAt time.Time `json:"join_at" db:"join_at"`

	// LastLoginAt is the timestamp of the most recent successful login.
	// It equals JoinAt for a freshly registered account.
	LastLoginAt time.Time `json:"last_login_at" db:"last_login_at"`
}

// Profile returns the public subset of the user's fields.
func (u User) Profile() UserProfile {
	return UserProfile{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// UserProfile is the part of a user that is safe to show to other users.
type UserProfile struct {
	Username  string `json:"username" db:"username"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Phone     string `json:"phone" db:"phone"`
}

// LoginStamp is the result of recording a successful login.
type LoginStamp struct {
	Username    string    `json:"username" db:"username"`
	LastLoginAt time.Time `json:"last_login_at" db:"last_login_at"`
}
