package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Principal is the identity behind an authenticated request.
type Principal struct {
	UID           string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
	// Debug is set for principals taken from the development header.
	Debug bool
}

// ErrInvalidToken wraps every token rejection.
var ErrInvalidToken = errors.New("invalid token")

type firebaseClaims struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// FirebaseValidator verifies Firebase ID tokens.
type FirebaseValidator struct {
	projectID string
	issuer    string
	keyfunc   jwt.Keyfunc
	jwks      *keyfunc.JWKS
	clockSkew time.Duration
	log       zerolog.Logger
}

// NewFirebaseValidator fetches the securetoken JWKS and keeps it refreshed
// until ctx is cancelled.
func NewFirebaseValidator(ctx context.Context, jwksURL, projectID string, log zerolog.Logger) (*FirebaseValidator, error) {
	if strings.TrimSpace(jwksURL) == "" {
		return nil, errors.New("jwks url is required")
	}
	logger := log.With().Str("component", "firebase-auth").Logger()

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Error().Err(err).Msg("jwks refresh error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	v := NewFirebaseValidatorWithKeyfunc(projectID, jwks.Keyfunc, logger)
	v.jwks = jwks
	return v, nil
}

// NewFirebaseValidatorWithKeyfunc builds a validator around a caller
// supplied key lookup.
func NewFirebaseValidatorWithKeyfunc(projectID string, kf jwt.Keyfunc, log zerolog.Logger) *FirebaseValidator {
	return &FirebaseValidator{
		projectID: projectID,
		issuer:    "https://securetoken.google.com/" + projectID,
		keyfunc:   kf,
		clockSkew: 30 * time.Second,
		log:       log,
	}
}

// Validate parses and verifies an ID token.
func (v *FirebaseValidator) Validate(tokenString string) (Principal, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Principal{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &firebaseClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.clockSkew),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return Principal{
		UID:           claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		Picture:       claims.Picture,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// Ready reports whether signing keys are available.
func (v *FirebaseValidator) Ready() bool {
	if v == nil {
		return false
	}
	if v.jwks == nil {
		return v.keyfunc != nil
	}
	return len(v.jwks.KIDs()) > 0
}

// Close stops background JWKS refresh.
func (v *FirebaseValidator) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
