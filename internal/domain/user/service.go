package user

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"ruleout-server/internal/utils/platformerrors"
	"ruleout-server/internal/utils/stringutils"
)

const MaxDisplayNameLength = 80

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{0,40}$`)

// Service manages user profiles.
type Service struct {
	repo   Repository
	locker Locker
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates a user service. A nil locker runs logins unguarded.
func NewService(repo Repository, locker Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		log:    log.With().Str("component", "user-service").Logger(),
		now:    time.Now,
	}
}

// RecordLogin creates the profile on first sign-in and bumps the login
// counter afterwards.
func (s *Service) RecordLogin(ctx context.Context, login Login) (*User, error) {
	if strings.TrimSpace(login.UID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "missing user id", nil, "a41f03c2-6b7d-4e8f-9a0b-1c2d3e4f5a01")
	}

	var result *User
	err := s.withLock(ctx, "user-login:"+login.UID, func(ctx context.Context) error {
		now := s.now().UTC()
		existing, err := s.repo.Get(ctx, login.UID)
		switch {
		case err == nil && existing != nil:
			result, err = s.repo.TouchLogin(ctx, login.UID, login.Email, now)
			return err
		case err != nil && !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound):
			return err
		}

		u := &User{
			UID:         login.UID,
			Email:       login.Email,
			DisplayName: login.DisplayName,
			PhotoURL:    login.PhotoURL,
			LoginCount:  1,
			CreatedAt:   now,
			LastLoginAt: now,
		}
		if err := s.repo.Create(ctx, u); err != nil {
			return err
		}
		s.log.Info().Str("uid", login.UID).Msg("user profile created")
		result = u
		return nil
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to record login")
	}
	return result, nil
}

// Get returns the profile of uid.
func (s *Service) Get(ctx context.Context, uid string) (*User, error) {
	u, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "user not found")
	}
	return u, nil
}

// UpdateSettings validates and applies a partial profile update.
func (s *Service) UpdateSettings(ctx context.Context, uid string, settings Settings) (*User, error) {
	if settings.DisplayName == nil && settings.Username == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "nothing to update", nil, "a41f03c2-6b7d-4e8f-9a0b-1c2d3e4f5a02")
	}
	if settings.DisplayName != nil {
		name := strings.TrimSpace(*settings.DisplayName)
		if name == "" {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "display name is required", nil, "a41f03c2-6b7d-4e8f-9a0b-1c2d3e4f5a03")
		}
		if utf8.RuneCountInString(name) > MaxDisplayNameLength || stringutils.HasControlChars(name) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "display name is invalid", nil, "a41f03c2-6b7d-4e8f-9a0b-1c2d3e4f5a04")
		}
		settings.DisplayName = &name
	}
	if settings.Username != nil {
		username := strings.TrimSpace(*settings.Username)
		if !usernamePattern.MatchString(username) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "username may only contain letters, digits, '.', '_' and '-' (max 40)", nil, "a41f03c2-6b7d-4e8f-9a0b-1c2d3e4f5a05")
		}
		settings.Username = &username
	}

	u, err := s.repo.UpdateSettings(ctx, uid, settings, s.now().UTC())
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update settings")
	}
	return u, nil
}

func (s *Service) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return s.locker.WithLock(ctx, key, fn)
}
