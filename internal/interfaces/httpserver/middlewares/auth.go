package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ruleout-server/internal/infrastructure/auth"
	"ruleout-server/internal/interfaces/httpserver/responses"
	"ruleout-server/internal/utils/platformerrors"
)

const (
	principalContextKey = "principal"
	guestIDContextKey   = "guest_id"

	debugUserHeader = "X-Debug-User"
	guestIDHeader   = "X-Guest-Id"
	maxGuestIDLen   = 128
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	Validate(token string) (auth.Principal, error)
}

// Authenticator resolves the principal of a request. With auth disabled the
// X-Debug-User header names the principal instead of a token.
type Authenticator struct {
	validator TokenValidator
	enabled   bool
	log       zerolog.Logger
}

func NewAuthenticator(validator TokenValidator, enabled bool, log zerolog.Logger) *Authenticator {
	return &Authenticator{
		validator: validator,
		enabled:   enabled,
		log:       log.With().Str("component", "auth-middleware").Logger(),
	}
}

// RequireAuth rejects requests without a valid principal with 401.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, found, err := a.resolve(c)
		if err != nil {
			a.log.Warn().Err(err).Str("path", c.FullPath()).Msg("token rejected")
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "invalid token", "f1a3c5e7-9b2d-4f6a-8c0e-2d4f6a8c0e31")
			return
		}
		if !found {
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "f1a3c5e7-9b2d-4f6a-8c0e-2d4f6a8c0e32")
			return
		}
		setPrincipal(c, principal)
		c.Next()
	}
}

// OptionalAuth lets guests through. A token that is present but invalid is
// still rejected so an expired session is not silently downgraded.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, found, err := a.resolve(c)
		if err != nil {
			a.log.Warn().Err(err).Str("path", c.FullPath()).Msg("token rejected")
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "invalid token", "f1a3c5e7-9b2d-4f6a-8c0e-2d4f6a8c0e33")
			return
		}
		if found {
			setPrincipal(c, principal)
		} else {
			c.Set(guestIDContextKey, guestID(c))
		}
		c.Next()
	}
}

// Ready reports whether token verification is possible.
func (a *Authenticator) Ready() bool {
	if !a.enabled {
		return true
	}
	if r, ok := a.validator.(interface{ Ready() bool }); ok {
		return r.Ready()
	}
	return a.validator != nil
}

func (a *Authenticator) resolve(c *gin.Context) (auth.Principal, bool, error) {
	if !a.enabled {
		uid := strings.TrimSpace(c.GetHeader(debugUserHeader))
		if uid == "" {
			return auth.Principal{}, false, nil
		}
		return auth.Principal{UID: uid, Debug: true}, true, nil
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		return auth.Principal{}, false, nil
	}
	token := auth.BearerToken(header)
	if token == "" {
		return auth.Principal{}, false, errors.New("malformed authorization header")
	}
	if a.validator == nil {
		return auth.Principal{}, false, errors.New("token validator unavailable")
	}
	principal, err := a.validator.Validate(token)
	if err != nil {
		return auth.Principal{}, false, err
	}
	return principal, true, nil
}

func setPrincipal(c *gin.Context, principal auth.Principal) {
	c.Set(principalContextKey, principal)
	c.Set("user_id", principal.UID)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *gin.Context) (auth.Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return auth.Principal{}, false
	}
	principal, ok := val.(auth.Principal)
	return principal, ok
}

// GuestIDFromContext returns the guest identity set by OptionalAuth.
func GuestIDFromContext(c *gin.Context) string {
	return c.GetString(guestIDContextKey)
}

// guestID prefers the X-Guest-Id header and falls back to the client IP.
func guestID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(guestIDHeader)); id != "" && len(id) <= maxGuestIDLen {
		return "id:" + id
	}
	return "ip:" + c.ClientIP()
}

// AbortUnauthorized is used by handlers that need an account on routes that
// otherwise allow guests.
func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, responses.ErrorResponse{
		Code:      "f1a3c5e7-9b2d-4f6a-8c0e-2d4f6a8c0e34",
		Error:     "authentication required",
		Message:   "authentication required",
		RequestID: RequestIDFromContext(c),
	})
}
