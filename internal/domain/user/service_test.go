package user_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleout-server/internal/domain/user"
	"ruleout-server/internal/utils/platformerrors"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*user.User{}}
}

func (m *memUsers) Get(ctx context.Context, uid string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "user not found", nil, "test")
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.UID] = &cp
	return nil
}

func (m *memUsers) TouchLogin(_ context.Context, uid, email string, at time.Time) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[uid]
	u.LoginCount++
	u.Email = email
	u.LastLoginAt = at
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateSettings(_ context.Context, uid string, settings user.Settings, at time.Time) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[uid]
	if settings.DisplayName != nil {
		u.DisplayName = *settings.DisplayName
	}
	if settings.Username != nil {
		u.Username = *settings.Username
	}
	u.UpdatedAt = &at
	cp := *u
	return &cp, nil
}

type recordingLocker struct {
	keys []string
}

func (l *recordingLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	l.keys = append(l.keys, key)
	return fn(ctx)
}

func strPtr(s string) *string { return &s }

func TestRecordLoginCreatesThenIncrements(t *testing.T) {
	locker := &recordingLocker{}
	svc := user.NewService(newMemUsers(), locker, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.RecordLogin(ctx, user.Login{UID: "u1", Email: "old@example.com", DisplayName: "Dr. Kim"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.LoginCount)
	assert.Equal(t, "Dr. Kim", first.DisplayName)

	second, err := svc.RecordLogin(ctx, user.Login{UID: "u1", Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.LoginCount)
	assert.Equal(t, "new@example.com", second.Email)
	assert.Equal(t, "Dr. Kim", second.DisplayName)
	assert.False(t, second.LastLoginAt.Before(first.LastLoginAt))

	assert.Equal(t, []string{"user-login:u1", "user-login:u1"}, locker.keys)
}

func TestRecordLoginWithoutLocker(t *testing.T) {
	svc := user.NewService(newMemUsers(), nil, zerolog.Nop())

	u, err := svc.RecordLogin(context.Background(), user.Login{UID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, 1, u.LoginCount)

	_, err = svc.RecordLogin(context.Background(), user.Login{})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized))
}

func TestUpdateSettings(t *testing.T) {
	svc := user.NewService(newMemUsers(), nil, zerolog.Nop())
	ctx := context.Background()
	_, err := svc.RecordLogin(ctx, user.Login{UID: "u1", DisplayName: "Before"})
	require.NoError(t, err)

	u, err := svc.UpdateSettings(ctx, "u1", user.Settings{DisplayName: strPtr("  After  "), Username: strPtr("dr.kim_01")})
	require.NoError(t, err)
	assert.Equal(t, "After", u.DisplayName)
	assert.Equal(t, "dr.kim_01", u.Username)
	require.NotNil(t, u.UpdatedAt)

	u, err = svc.UpdateSettings(ctx, "u1", user.Settings{Username: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "", u.Username)
	assert.Equal(t, "After", u.DisplayName)
}

func TestUpdateSettingsValidation(t *testing.T) {
	svc := user.NewService(newMemUsers(), nil, zerolog.Nop())

	cases := map[string]user.Settings{
		"empty update":       {},
		"blank display name": {DisplayName: strPtr("   ")},
		"long display name":  {DisplayName: strPtr(strings.Repeat("가", 81))},
		"username spaces":    {Username: strPtr("dr kim")},
		"username too long":  {Username: strPtr(strings.Repeat("a", 41))},
	}
	for name, settings := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateSettings(context.Background(), "u1", settings)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
		})
	}
}

func TestGetMissingUser(t *testing.T) {
	svc := user.NewService(newMemUsers(), nil, zerolog.Nop())
	_, err := svc.Get(context.Background(), "ghost")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}
