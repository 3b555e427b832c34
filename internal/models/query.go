package models

// UserQuery locates a single user. When ID is set it wins; otherwise the query
// matches a user whose username OR email equals the given (lowercase) value.
type UserQuery struct {
	ID       string   `json:"id,omitempty"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Fields   []string `json:"fields,omitempty"`
}

// FindRequest is the input of a find operation.
type FindRequest struct {
	ID       string
	Username string
	Email    string
	// Fields restricts the returned attributes. Empty means all.
	Fields []string
}

// AuthRequest identifies a user by ID or username and carries the proof of
// identity: a password or a session token.
type AuthRequest struct {
	ID           string
	Username     string
	Password     string
	SessionToken string
	// Fields restricts the attributes loaded for the user. The password hash
	// is always loaded. Empty means all.
	Fields []string
}

// RegisterRequest is the input of a registration.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// EditData holds the attributes a user wants to change. Empty strings are
// left untouched.
type EditData struct {
	Username string
	Email    string
	Password string
}

// IsEmpty reports whether there is nothing to change.
func (d EditData) IsEmpty() bool {
	return d.Username == "" && d.Email == "" && d.Password == ""
}

// EditRequest is the input of an edit. The credentials re-authenticate the
// user before anything changes.
type EditRequest struct {
	AuthRequest
	NewData *EditData
}
