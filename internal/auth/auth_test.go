package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validKeyFile   = "test_valid_private.pem"
	invalidKeyFile = "test_invalid_private.pem"
)

// Global variable for the JWT private key for testing purposes
// This will be initialized in TestMain
var testJwtPrivateKey *ecdsa.PrivateKey

// TestMain writes the key files the tests load and removes them afterwards.
func TestMain(m *testing.M) {
	validKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatalf("Failed to generate ECDSA private key for tests: %v", err)
	}
	testJwtPrivateKey = validKey

	if err := WriteECDSAPrivateKey(validKeyFile, validKey); err != nil {
		log.Fatalf("Failed to write valid private key to PEM: %v", err)
	}
	if err := os.WriteFile(invalidKeyFile, []byte("-----BEGIN INVALID KEY-----\nnot-a-real-key\n-----END INVALID KEY-----\n"), 0o600); err != nil {
		log.Fatalf("Failed to write invalid key to PEM: %v", err)
	}

	code := m.Run()

	for _, f := range []string{validKeyFile, invalidKeyFile} {
		if err := os.Remove(f); err != nil {
			log.Printf("Warning: failed to remove %s: %v", f, err)
		}
	}

	os.Exit(code)
}

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner(testJwtPrivateKey, 0)
	require.NoError(t, err)
	return s
}

func TestNewSigner(t *testing.T) {
	_, err := NewSigner(nil, time.Minute)
	assert.ErrorIs(t, err, ErrNoKey)

	s := newTestSigner(t)
	assert.Equal(t, DefaultTTL, s.TTL())

	s, err = NewSigner(testJwtPrivateKey, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, s.TTL())
}

func TestCreateToken(t *testing.T) {
	s := newTestSigner(t)

	tokenString, err := s.CreateToken("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	parsedToken, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return &testJwtPrivateKey.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	require.NoError(t, err)
	require.True(t, parsedToken.Valid)

	claims, ok := parsedToken.Claims.(*CustomClaims)
	require.True(t, ok)

	now := time.Now()
	assert.Equal(t, "user-123", claims.UserID)
	assert.WithinDuration(t, now.Add(DefaultTTL), claims.ExpiresAt.Time, 5*time.Second)
	assert.WithinDuration(t, now, claims.IssuedAt.Time, 5*time.Second)
	assert.WithinDuration(t, now, claims.NotBefore.Time, 5*time.Second)
	assert.Equal(t, ISSUER, claims.Issuer)
	assert.Equal(t, SUBJECT, claims.Subject)
	assert.Equal(t, jwt.ClaimStrings{"api." + ISSUER}, claims.Audience)
	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err, "ID (JTI) claim is a UUID")
}

func TestVerifyToken(t *testing.T) {
	s := newTestSigner(t)

	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	other, err := NewSigner(otherKey, 0)
	require.NoError(t, err)

	expired, err := NewSigner(testJwtPrivateKey, time.Minute)
	require.NoError(t, err)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }

	valid, err := s.CreateToken("user-123")
	require.NoError(t, err)
	anonymous, err := s.CreateToken("")
	require.NoError(t, err)
	signedByOther, err := other.CreateToken("user-123")
	require.NoError(t, err)
	stale, err := expired.CreateToken("user-123")
	require.NoError(t, err)

	tests := []struct {
		name        string
		tokenString string
		wantUser    string
		wantErr     bool
	}{
		{name: "valid token", tokenString: valid, wantUser: "user-123"},
		{name: "invalid token format", tokenString: "invalid-token-format", wantErr: true},
		{name: "tampered token", tokenString: valid[:len(valid)-4] + "AAAA", wantErr: true},
		{name: "expired token", tokenString: stale, wantErr: true},
		{name: "signed by different key", tokenString: signedByOther, wantErr: true},
		{name: "no user", tokenString: anonymous, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.VerifyToken(tt.tokenString)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, got)
		})
	}
}

func TestLoadOrCreateECDSAPrivateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "session.pem")

	created, fresh, err := LoadOrCreateECDSAPrivateKey(path)
	require.NoError(t, err)
	assert.True(t, fresh)

	loaded, fresh, err := LoadOrCreateECDSAPrivateKey(path)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.True(t, created.Equal(loaded), fmt.Sprintf("key at %s changed", path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
