package userrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"ruleout-server/internal/domain/user"
	"ruleout-server/internal/infrastructure/database/dbschema"
	"ruleout-server/internal/utils/platformerrors"
)

type UserGormRepository struct {
	db *gorm.DB
}

var _ user.Repository = (*UserGormRepository)(nil)

func NewUserGormRepository(db *gorm.DB) user.Repository {
	return &UserGormRepository{db: db}
}

// Get implements user.Repository.
func (repo *UserGormRepository) Get(ctx context.Context, uid string) (*user.User, error) {
	return repo.get(ctx, repo.db.WithContext(ctx), uid)
}

// Create implements user.Repository.
func (repo *UserGormRepository) Create(ctx context.Context, u *user.User) error {
	if err := repo.db.WithContext(ctx).Create(dbschema.NewSchemaUser(u)).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create user")
	}
	return nil
}

// TouchLogin implements user.Repository.
func (repo *UserGormRepository) TouchLogin(ctx context.Context, uid, email string, at time.Time) (*user.User, error) {
	var out *user.User
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		columns := map[string]interface{}{
			"login_count":   gorm.Expr("login_count + 1"),
			"last_login_at": at,
		}
		if email != "" {
			columns["email"] = email
		}
		result := tx.Model(&dbschema.User{}).Where("uid = ?", uid).UpdateColumns(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		u, err := repo.get(ctx, tx, uid)
		out = u
		return err
	})
	if err != nil {
		return nil, repo.mapError(ctx, err, "failed to record login")
	}
	return out, nil
}

// UpdateSettings implements user.Repository.
func (repo *UserGormRepository) UpdateSettings(ctx context.Context, uid string, settings user.Settings, at time.Time) (*user.User, error) {
	columns := map[string]interface{}{"updated_at": at}
	if settings.DisplayName != nil {
		columns["display_name"] = *settings.DisplayName
	}
	if settings.Username != nil {
		columns["username"] = *settings.Username
	}

	var out *user.User
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&dbschema.User{}).Where("uid = ?", uid).UpdateColumns(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		u, err := repo.get(ctx, tx, uid)
		out = u
		return err
	})
	if err != nil {
		return nil, repo.mapError(ctx, err, "failed to update user settings")
	}
	return out, nil
}

func (repo *UserGormRepository) get(ctx context.Context, db *gorm.DB, uid string) (*user.User, error) {
	var row dbschema.User
	if err := db.Where("uid = ?", uid).First(&row).Error; err != nil {
		return nil, repo.mapError(ctx, err, "failed to find user")
	}
	return row.EtoD(), nil
}

func (repo *UserGormRepository) mapError(ctx context.Context, err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "user not found", err, "1d3f5b7a-9c8e-4f0a-b2d4-6e8a0c2e4f01")
	}
	return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, msg)
}
