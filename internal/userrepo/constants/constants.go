package constants

const (
	// UsersCollection names the MongoDB collection and the PostgreSQL table
	// holding accounts.
	UsersCollection = "users"
)
