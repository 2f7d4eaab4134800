package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleout-server/pkg/testhelpers"
)

const testProject = "ruleout-test"

func newTestValidator(t *testing.T) (*FirebaseValidator, *testhelpers.TokenIssuer) {
	t.Helper()
	issuer := testhelpers.NewTokenIssuer(t, testProject)
	return NewFirebaseValidatorWithKeyfunc(testProject, issuer.Keyfunc(), zerolog.Nop()), issuer
}

func validClaims(issuer *testhelpers.TokenIssuer) jwt.MapClaims {
	c := issuer.Claims("uid-123", "vet@example.com")
	c["name"] = "Dr. Kim"
	c["picture"] = "https://example.com/p.png"
	return c
}

func TestValidate_Accepts(t *testing.T) {
	v, issuer := newTestValidator(t)

	p, err := v.Validate(issuer.Sign(t, validClaims(issuer)))
	require.NoError(t, err)
	assert.Equal(t, Principal{
		UID:           "uid-123",
		Email:         "vet@example.com",
		Name:          "Dr. Kim",
		Picture:       "https://example.com/p.png",
		EmailVerified: true,
	}, p)
}

func TestValidate_Rejects(t *testing.T) {
	v, issuer := newTestValidator(t)
	sign := func(c jwt.MapClaims) string { return issuer.Sign(t, c) }
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token func() string
	}{
		{"empty", func() string { return "" }},
		{"garbage", func() string { return "not-a-jwt" }},
		{"wrong issuer", func() string {
			c := validClaims(issuer)
			c["iss"] = "https://securetoken.google.com/other"
			return sign(c)
		}},
		{"wrong audience", func() string {
			c := validClaims(issuer)
			c["aud"] = "other"
			return sign(c)
		}},
		{"expired", func() string {
			c := validClaims(issuer)
			c["exp"] = time.Now().Add(-time.Hour).Unix()
			return sign(c)
		}},
		{"missing expiry", func() string {
			c := validClaims(issuer)
			delete(c, "exp")
			return sign(c)
		}},
		{"empty subject", func() string {
			c := validClaims(issuer)
			c["sub"] = ""
			return sign(c)
		}},
		{"foreign key", func() string { return testhelpers.SignWith(t, other, validClaims(issuer)) }},
		{"hs256", func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims(issuer))
			s, err := token.SignedString([]byte("secret"))
			require.NoError(t, err)
			return s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.token())
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("abc"))
	assert.Equal(t, "", BearerToken(""))
}
