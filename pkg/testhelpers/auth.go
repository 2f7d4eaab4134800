package testhelpers

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// TokenIssuer mints RS256 ID tokens shaped like the ones Firebase issues for
// a project. Tests verify them with Keyfunc instead of the public JWKS.
type TokenIssuer struct {
	ProjectID string
	key       *rsa.PrivateKey
}

// NewTokenIssuer generates a fresh signing key.
func NewTokenIssuer(t *testing.T, projectID string) *TokenIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &TokenIssuer{ProjectID: projectID, key: key}
}

// Keyfunc resolves every token to the issuer's public key.
func (i *TokenIssuer) Keyfunc() jwt.Keyfunc {
	return func(*jwt.Token) (any, error) {
		return &i.key.PublicKey, nil
	}
}

// Claims returns valid claims for uid, expiring in an hour.
func (i *TokenIssuer) Claims(uid, email string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":            "https://securetoken.google.com/" + i.ProjectID,
		"aud":            i.ProjectID,
		"sub":            uid,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"email":          email,
		"email_verified": email != "",
	}
}

// Sign signs claims with the issuer key.
func (i *TokenIssuer) Sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	return SignWith(t, i.key, claims)
}

// Token is Sign(Claims(uid, email)).
func (i *TokenIssuer) Token(t *testing.T, uid, email string) string {
	t.Helper()
	return i.Sign(t, i.Claims(uid, email))
}

// SignWith signs claims with an arbitrary RSA key.
func SignWith(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test"
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}
