package interfaces

// TokenIssuer creates and verifies session tokens bound to a user ID.
type TokenIssuer interface {
	CreateToken(userID string) (string, error)
	// VerifyToken returns the user ID the token was issued for.
	VerifyToken(token string) (string, error)
}
