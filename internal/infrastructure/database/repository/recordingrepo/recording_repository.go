package recordingrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"ruleout-server/internal/domain/recording"
	"ruleout-server/internal/infrastructure/database/dbschema"
	"ruleout-server/internal/utils/platformerrors"
)

type RecordingGormRepository struct {
	db *gorm.DB
}

var _ recording.Repository = (*RecordingGormRepository)(nil)

func NewRecordingGormRepository(db *gorm.DB) recording.Repository {
	return &RecordingGormRepository{db: db}
}

// Create implements recording.Repository.
func (repo *RecordingGormRepository) Create(ctx context.Context, rec *recording.Recording) error {
	if err := repo.db.WithContext(ctx).Create(dbschema.NewSchemaRecording(rec)).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create recording")
	}
	return nil
}

// List implements recording.Repository.
func (repo *RecordingGormRepository) List(ctx context.Context, userID string) ([]*recording.Recording, error) {
	var rows []dbschema.Recording
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list recordings")
	}
	result := make([]*recording.Recording, len(rows))
	for i := range rows {
		result[i] = rows[i].EtoD()
	}
	return result, nil
}

// Get implements recording.Repository.
func (repo *RecordingGormRepository) Get(ctx context.Context, userID, id string) (*recording.Recording, error) {
	var row dbschema.Recording
	err := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "recording not found", nil, "6b8d0f2a-4c3e-4d5b-8a7c-1e0f9d8c7b01")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find recording")
	}
	return row.EtoD(), nil
}

// Delete implements recording.Repository.
func (repo *RecordingGormRepository) Delete(ctx context.Context, userID, id string) error {
	result := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&dbschema.Recording{})
	if result.Error != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to delete recording")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "recording not found", nil, "6b8d0f2a-4c3e-4d5b-8a7c-1e0f9d8c7b02")
	}
	return nil
}
