package emailjs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"ruleout-server/internal/domain/careers"
	"ruleout-server/internal/utils/httpclients"
	"ruleout-server/internal/utils/platformerrors"
)

const sendPath = "/api/v1.0/email/send"

// Config identifies the EmailJS account and template used for mail.
type Config struct {
	BaseURL    string
	ServiceID  string
	TemplateID string
	PublicKey  string
	// PrivateKey is sent as accessToken when set.
	PrivateKey string
	Timeout    time.Duration
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Client sends templated email through the EmailJS REST API.
type Client struct {
	client *resty.Client
	cfg    Config
	log    zerolog.Logger
}

var _ careers.Mailer = (*Client)(nil)

func NewClient(cfg Config, log zerolog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	logger := log.With().Str("component", "emailjs-client").Logger()
	return &Client{
		client: httpclients.NewClient("emailjs", cfg.Timeout, logger),
		cfg:    cfg,
		log:    logger,
	}
}

// Send renders the configured template with params.
func (c *Client) Send(ctx context.Context, params map[string]string) error {
	if c.cfg.ServiceID == "" || c.cfg.TemplateID == "" || c.cfg.PublicKey == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal, "email delivery is not configured", nil, "e5f7a9b1-4d6f-4b8c-8e2a-3c5d7f9b1d21")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sendRequest{
			ServiceID:      c.cfg.ServiceID,
			TemplateID:     c.cfg.TemplateID,
			UserID:         c.cfg.PublicKey,
			AccessToken:    c.cfg.PrivateKey,
			TemplateParams: params,
		}).
		Post(c.cfg.BaseURL + sendPath)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "email request failed", err, "e5f7a9b1-4d6f-4b8c-8e2a-3c5d7f9b1d22")
	}
	if resp.IsError() {
		msg := fmt.Sprintf("email request failed: status %d", resp.StatusCode())
		if body := strings.TrimSpace(resp.String()); body != "" {
			msg += ": " + body
		}
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, msg, nil, "e5f7a9b1-4d6f-4b8c-8e2a-3c5d7f9b1d23")
	}
	return nil
}
