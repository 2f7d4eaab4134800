package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ruleout-server/internal/domain/guest"
	"ruleout-server/internal/interfaces/httpserver/middlewares"
	"ruleout-server/internal/interfaces/httpserver/responses"
)

// GuestQuotaReader reports guest question budgets.
type GuestQuotaReader interface {
	Quota(ctx context.Context, guestID string) (guest.Quota, error)
	Limit() int
}

type GuestHandler struct {
	limiter GuestQuotaReader
	log     zerolog.Logger
}

func NewGuestHandler(limiter GuestQuotaReader, log zerolog.Logger) *GuestHandler {
	return &GuestHandler{
		limiter: limiter,
		log:     log.With().Str("handler", "guest").Logger(),
	}
}

// QuotaResponse is the question budget of the caller. Signed-in users are
// not metered.
type QuotaResponse struct {
	guest.Quota
	Unlimited bool `json:"unlimited"`
}

// Quota handles GET /v1/guest/quota
// @Summary Remaining guest questions
// @Tags Guest
// @Produce json
// @Param X-Guest-Id header string false "Browser guest identifier"
// @Success 200 {object} QuotaResponse
// @Router /v1/guest/quota [get]
func (h *GuestHandler) Quota(c *gin.Context) {
	if _, ok := middlewares.PrincipalFromContext(c); ok {
		limit := h.limiter.Limit()
		c.JSON(http.StatusOK, QuotaResponse{Quota: guest.Quota{Limit: limit, Remaining: limit}, Unlimited: true})
		return
	}

	quota, err := h.limiter.Quota(c.Request.Context(), middlewares.GuestIDFromContext(c))
	if err != nil {
		responses.HandleError(c, err, "failed to read guest quota")
		return
	}
	c.Header("X-Guest-Remaining", stringInt(quota.Remaining))
	c.JSON(http.StatusOK, QuotaResponse{Quota: quota})
}
