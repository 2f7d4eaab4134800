package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ruleout-server/internal/interfaces/httpserver/middlewares"
	"ruleout-server/internal/interfaces/httpserver/responses"
	"ruleout-server/internal/utils/platformerrors"
)

// requireUser returns the authenticated uid or writes a 401.
func requireUser(c *gin.Context) (string, bool) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok || principal.UID == "" {
		middlewares.AbortUnauthorized(c)
		return "", false
	}
	return principal.UID, true
}

// pathIndex parses a non-negative integer path parameter.
func pathIndex(c *gin.Context, name string) (int, bool) {
	idx, err := strconv.Atoi(c.Param(name))
	if err != nil || idx < 0 {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, name+" must be a non-negative integer", "a0b1c2d3-e4f5-4a6b-8c7d-0e1f2a3b4c01")
		return 0, false
	}
	return idx, true
}

func bindError(c *gin.Context, err error, uuid string) {
	responses.HandleError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, err.Error(), err, uuid), "invalid request")
}

// bodyTooLarge reports whether err comes from an http.MaxBytesReader limit.
func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
