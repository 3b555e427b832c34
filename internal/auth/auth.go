package auth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ISSUER  = "joauth"
	SUBJECT = "SESSION"
	// DefaultTTL is the session lifetime when none is configured.
	DefaultTTL = 15 * time.Minute
)

var ErrNoKey = errors.New("auth: no signing key")

type CustomClaims struct {
	UserID string `json:"userid"`
	jwt.RegisteredClaims
}

// Signer issues and verifies ES256 session tokens bound to a user ID.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	ttl        time.Duration
	now        func() time.Time
}

// NewSigner returns a Signer using privateKey. A zero ttl means DefaultTTL.
func NewSigner(privateKey *ecdsa.PrivateKey, ttl time.Duration) (*Signer, error) {
	if privateKey == nil {
		return nil, ErrNoKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{privateKey: privateKey, ttl: ttl, now: time.Now}, nil
}

// TTL reports how long issued tokens stay valid.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// CreateToken issues a session token for userID.
func (s *Signer) CreateToken(userID string) (string, error) {
	now := s.now()
	claims := CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    ISSUER,
			Subject:   SUBJECT,
			Audience:  []string{"api." + ISSUER},
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signToken, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signToken, nil
}

// VerifyToken checks the signature and lifetime of tokenString and returns
// the user ID it was issued for.
func (s *Signer) VerifyToken(tokenString string) (string, error) {
	claims, err := s.Claims(tokenString)
	if err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("session token carries no user")
	}
	return claims.UserID, nil
}

// Claims parses tokenString and returns its claims.
func (s *Signer) Claims(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &s.privateKey.PublicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(ISSUER),
		jwt.WithAudience("api."+ISSUER),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("token parsing error: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token or claims")
}
