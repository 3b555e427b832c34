package models

import "time"

// User represents an account record as stored by any backend.
type User struct {
	ID           string    `json:"id,omitempty" bson:"-" mapstructure:"id" db:"id"`
	Username     string    `json:"username" bson:"username" mapstructure:"username" db:"username"`
	Email        string    `json:"email" bson:"email" mapstructure:"email" db:"email"`
	PasswordHash string    `json:"passwordHash,omitempty" bson:"passwordHash" mapstructure:"passwordHash" db:"password_hash"`
	Creation     time.Time `json:"creation" bson:"creation" mapstructure:"creation" db:"creation"`
	Verified     bool      `json:"verified" bson:"verified" mapstructure:"verified" db:"verified"`
}

// NewUser creates a new User with the given credentials and the current time
// as creation stamp.
// Note: No validation is performed here.
func NewUser(username, email, passwordHash string) *User {
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Creation:     time.Now().UTC(),
	}
}

// Field names shared by the schemas, the repositories and edit payloads.
const (
	FieldID           = "id"
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldPasswordHash = "passwordHash"
	FieldCreation     = "creation"
	FieldVerified     = "verified"
)
