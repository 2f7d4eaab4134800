package user

import (
	"context"
	"time"
)

// User is the stored profile of an authenticated account.
type User struct {
	UID         string     `json:"uid"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Username    string     `json:"username"`
	PhotoURL    string     `json:"photo_url"`
	LoginCount  int        `json:"login_count"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt time.Time  `json:"last_login_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Login carries the identity claims seen at sign-in.
type Login struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// Settings is a partial profile update. Nil fields are left unchanged.
type Settings struct {
	DisplayName *string
	Username    *string
}

// Repository persists user profiles.
type Repository interface {
	Get(ctx context.Context, uid string) (*User, error)
	Create(ctx context.Context, u *User) error
	// TouchLogin increments login_count and sets last_login_at and email.
	TouchLogin(ctx context.Context, uid, email string, at time.Time) (*User, error)
	UpdateSettings(ctx context.Context, uid string, settings Settings, at time.Time) (*User, error)
}

// Locker serializes work on a key across server instances.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
