package projectrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"ruleout-server/internal/domain/project"
	"ruleout-server/internal/infrastructure/database/dbschema"
	"ruleout-server/internal/utils/platformerrors"
)

type ProjectGormRepository struct {
	db *gorm.DB
}

var _ project.Repository = (*ProjectGormRepository)(nil)

func NewProjectGormRepository(db *gorm.DB) *ProjectGormRepository {
	return &ProjectGormRepository{db: db}
}

// Create implements project.Repository.
func (repo *ProjectGormRepository) Create(ctx context.Context, proj *project.Project) error {
	row := dbschema.NewSchemaProject(proj)
	if err := repo.db.WithContext(ctx).Create(row).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create project")
	}
	proj.CreatedAt = row.CreatedAt
	proj.UpdatedAt = row.UpdatedAt
	return nil
}

// Get implements project.Repository.
func (repo *ProjectGormRepository) Get(ctx context.Context, userID, id string) (*project.Project, error) {
	var row dbschema.Project
	err := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "project not found", nil, "4a6c8e0b-2d1f-4b3a-8c5e-9f7d6b5a4c01")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find project")
	}
	return row.EtoD(), nil
}

// List implements project.Repository.
func (repo *ProjectGormRepository) List(ctx context.Context, userID string) ([]*project.Project, error) {
	var rows []dbschema.Project
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list projects")
	}
	result := make([]*project.Project, len(rows))
	for i := range rows {
		result[i] = rows[i].EtoD()
	}
	return result, nil
}

// Update implements project.Repository.
func (repo *ProjectGormRepository) Update(ctx context.Context, proj *project.Project) error {
	row := dbschema.NewSchemaProject(proj)
	result := repo.db.WithContext(ctx).
		Model(&dbschema.Project{}).
		Where("id = ? AND user_id = ?", proj.ID, proj.UserID).
		UpdateColumns(map[string]interface{}{
			"title":            row.Title,
			"description":      row.Description,
			"conversation_ids": row.ConversationIDs,
			"updated_at":       row.UpdatedAt,
		})
	if result.Error != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to update project")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "project not found", nil, "4a6c8e0b-2d1f-4b3a-8c5e-9f7d6b5a4c02")
	}
	return nil
}

// Delete implements project.Repository.
func (repo *ProjectGormRepository) Delete(ctx context.Context, userID, id string) error {
	result := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&dbschema.Project{})
	if result.Error != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to delete project")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "project not found", nil, "4a6c8e0b-2d1f-4b3a-8c5e-9f7d6b5a4c03")
	}
	return nil
}

// DetachConversation implements project.Repository and
// conversation.ProjectDetacher.
func (repo *ProjectGormRepository) DetachConversation(ctx context.Context, userID, conversationID string) error {
	needle, err := json.Marshal([]string{conversationID})
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to encode conversation id")
	}

	err = repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []dbschema.Project
		if err := tx.Where("user_id = ? AND conversation_ids @> ?::jsonb", userID, string(needle)).
			Find(&rows).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, row := range rows {
			kept := make([]string, 0, len(row.ConversationIDs))
			for _, id := range row.ConversationIDs {
				if id != conversationID {
					kept = append(kept, id)
				}
			}
			if err := tx.Model(&dbschema.Project{}).
				Where("id = ?", row.ID).
				UpdateColumns(map[string]interface{}{
					"conversation_ids": datatypes.JSONSlice[string](kept),
					"updated_at":       now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to detach conversation from projects")
	}
	return nil
}
