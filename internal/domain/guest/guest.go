package guest

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"ruleout-server/internal/utils/platformerrors"
)

const (
	DefaultLimit = 5
	keyPrefix    = "guest-queries:"
)

// Counter is a windowed counter store. Counts expire after the window the
// backend was built with.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
}

// Quota is the question budget of a guest.
type Quota struct {
	Limit     int `json:"limit"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithRejectHook registers a callback run every time a guest is turned away.
func WithRejectHook(fn func()) Option {
	return func(l *Limiter) { l.onReject = fn }
}

// Limiter meters questions asked without an account.
type Limiter struct {
	counter  Counter
	limit    int
	onReject func()
	log      zerolog.Logger
}

// NewLimiter creates a limiter allowing limit questions per guest.
func NewLimiter(counter Counter, limit int, log zerolog.Logger, opts ...Option) *Limiter {
	if limit < 0 {
		limit = DefaultLimit
	}
	l := &Limiter{
		counter:  counter,
		limit:    limit,
		onReject: func() {},
		log:      log.With().Str("component", "guest-limiter").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the configured question budget.
func (l *Limiter) Limit() int {
	return l.limit
}

// Allow consumes one question and returns how many are left.
func (l *Limiter) Allow(ctx context.Context, guestID string) (int, error) {
	key, err := l.key(ctx, guestID)
	if err != nil {
		return 0, err
	}
	n, err := l.counter.Incr(ctx, key)
	if err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to meter guest question", err, "b9d2e4f6-0a1b-4c3d-8e5f-6a7b8c9d0e01")
	}
	if int(n) > l.limit {
		l.onReject()
		l.log.Debug().Int64("count", n).Msg("guest limit reached")
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeTooManyRequests, "guest question limit reached, sign in to continue", nil, "b9d2e4f6-0a1b-4c3d-8e5f-6a7b8c9d0e02")
	}
	return l.limit - int(n), nil
}

// Remaining returns how many questions the guest has left.
func (l *Limiter) Remaining(ctx context.Context, guestID string) (int, error) {
	q, err := l.Quota(ctx, guestID)
	if err != nil {
		return 0, err
	}
	return q.Remaining, nil
}

// Quota reports the guest's usage.
func (l *Limiter) Quota(ctx context.Context, guestID string) (Quota, error) {
	key, err := l.key(ctx, guestID)
	if err != nil {
		return Quota{}, err
	}
	n, err := l.counter.Get(ctx, key)
	if err != nil {
		return Quota{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to read guest quota", err, "b9d2e4f6-0a1b-4c3d-8e5f-6a7b8c9d0e03")
	}
	used := int(n)
	if used > l.limit {
		used = l.limit
	}
	return Quota{Limit: l.limit, Used: used, Remaining: l.limit - used}, nil
}

// Reset clears the guest's usage.
func (l *Limiter) Reset(ctx context.Context, guestID string) error {
	key, err := l.key(ctx, guestID)
	if err != nil {
		return err
	}
	if err := l.counter.Delete(ctx, key); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to reset guest quota", err, "b9d2e4f6-0a1b-4c3d-8e5f-6a7b8c9d0e04")
	}
	return nil
}

func (l *Limiter) key(ctx context.Context, guestID string) (string, error) {
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "guest id is required", nil, "b9d2e4f6-0a1b-4c3d-8e5f-6a7b8c9d0e05")
	}
	return keyPrefix + guestID, nil
}
