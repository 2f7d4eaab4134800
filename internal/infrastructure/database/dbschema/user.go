package dbschema

import (
	"time"

	"ruleout-server/internal/domain/user"
)

// User represents the database schema for user profiles
type User struct {
	UID         string     `gorm:"primaryKey;size:128"`
	Email       string     `gorm:"size:320;not null;default:''"`
	DisplayName string     `gorm:"size:255;not null;default:''"`
	Username    string     `gorm:"size:64;not null;default:''"`
	PhotoURL    string     `gorm:"type:text;not null;default:''"`
	LoginCount  int        `gorm:"not null;default:0"`
	CreatedAt   time.Time  `gorm:"not null"`
	LastLoginAt time.Time  `gorm:"not null"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// EtoD converts database schema to domain user (Entity to Domain)
func (u *User) EtoD() *user.User {
	return &user.User{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Username:    u.Username,
		PhotoURL:    u.PhotoURL,
		LoginCount:  u.LoginCount,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// NewSchemaUser creates a database schema from domain user
func NewSchemaUser(u *user.User) *User {
	return &User{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Username:    u.Username,
		PhotoURL:    u.PhotoURL,
		LoginCount:  u.LoginCount,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
