package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ruleout-server/internal/domain/locale"
)

// AuthErrorResponse is the localized text of a sign-in error.
type AuthErrorResponse struct {
	Code     string          `json:"code"`
	Language locale.Language `json:"language"`
	Message  string          `json:"message"`
	Known    bool            `json:"known"`
}

// AuthError handles GET /v1/auth/errors/*code
// @Summary Localized sign-in error message
// @Description Codes are identity provider codes such as `auth/wrong-password`. The `auth/` prefix is optional.
// @Tags Auth
// @Produce json
// @Param code path string true "Error code"
// @Param lang query string false "en, ko, ja or a display name"
// @Success 200 {object} AuthErrorResponse
// @Router /v1/auth/errors/{code} [get]
func AuthError(c *gin.Context) {
	code := strings.TrimPrefix(c.Param("code"), "/")
	if code != "" && !strings.HasPrefix(code, "auth/") {
		code = "auth/" + code
	}
	lang := locale.Parse(c.Query("lang"))

	message, known := locale.AuthErrorMessage(code, lang)
	c.JSON(http.StatusOK, AuthErrorResponse{Code: code, Language: lang, Message: message, Known: known})
}
