package guest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleout-server/internal/domain/guest"
	"ruleout-server/internal/utils/platformerrors"
)

type mapCounter struct {
	counts map[string]int64
	err    error
}

func (m *mapCounter) Incr(_ context.Context, key string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *mapCounter) Get(_ context.Context, key string) (int64, error) {
	return m.counts[key], m.err
}

func (m *mapCounter) Delete(_ context.Context, key string) error {
	delete(m.counts, key)
	return m.err
}

func TestAllowCountsDownThenRejects(t *testing.T) {
	counter := &mapCounter{counts: map[string]int64{}}
	rejected := 0
	limiter := guest.NewLimiter(counter, 5, zerolog.Nop(), guest.WithRejectHook(func() { rejected++ }))
	ctx := context.Background()

	for want := 4; want >= 0; want-- {
		remaining, err := limiter.Allow(ctx, "guest-a")
		require.NoError(t, err)
		assert.Equal(t, want, remaining)
	}

	_, err := limiter.Allow(ctx, "guest-a")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeTooManyRequests))
	assert.Equal(t, 1, rejected)

	q, err := limiter.Quota(ctx, "guest-a")
	require.NoError(t, err)
	assert.Equal(t, guest.Quota{Limit: 5, Used: 5, Remaining: 0}, q)

	other, err := limiter.Remaining(ctx, "guest-b")
	require.NoError(t, err)
	assert.Equal(t, 5, other)
}

func TestReset(t *testing.T) {
	counter := &mapCounter{counts: map[string]int64{}}
	limiter := guest.NewLimiter(counter, 2, zerolog.Nop())
	ctx := context.Background()

	_, _ = limiter.Allow(ctx, "g")
	_, _ = limiter.Allow(ctx, "g")
	require.NoError(t, limiter.Reset(ctx, "g"))

	remaining, err := limiter.Allow(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestZeroLimitRejectsEveryQuestion(t *testing.T) {
	limiter := guest.NewLimiter(&mapCounter{counts: map[string]int64{}}, 0, zerolog.Nop())
	_, err := limiter.Allow(context.Background(), "g")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeTooManyRequests))
}

func TestGuestIDRequired(t *testing.T) {
	limiter := guest.NewLimiter(&mapCounter{counts: map[string]int64{}}, 5, zerolog.Nop())
	_, err := limiter.Allow(context.Background(), "  ")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestBackendFailureIsInternal(t *testing.T) {
	limiter := guest.NewLimiter(&mapCounter{counts: map[string]int64{}, err: errors.New("redis down")}, 5, zerolog.Nop())
	_, err := limiter.Allow(context.Background(), "g")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeInternal))
}
