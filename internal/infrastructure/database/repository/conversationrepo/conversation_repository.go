package conversationrepo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/infrastructure/database/dbschema"
	"ruleout-server/internal/utils/platformerrors"
)

type ConversationGormRepository struct {
	db *gorm.DB
}

var _ conversation.Repository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *gorm.DB) conversation.Repository {
	return &ConversationGormRepository{db: db}
}

// Create implements conversation.Repository.
func (repo *ConversationGormRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	row := dbschema.NewSchemaConversation(conv)
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return insertMessages(tx, conv.ID, 0, conv.Messages)
	})
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create conversation")
	}
	conv.CreatedAt = row.CreatedAt
	conv.UpdatedAt = row.UpdatedAt
	return nil
}

// Get implements conversation.Repository.
func (repo *ConversationGormRepository) Get(ctx context.Context, userID, id string) (*conversation.Conversation, error) {
	var row dbschema.Conversation
	err := repo.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(ctx, "8e2d4c6a-0b1f-4a3e-9d5c-7b6a5f4e3d01")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find conversation")
	}
	conv := row.EtoD()
	if conv.Messages == nil {
		conv.Messages = []conversation.Message{}
	}
	return conv, nil
}

// List implements conversation.Repository.
func (repo *ConversationGormRepository) List(ctx context.Context, userID string, filter conversation.Filter) ([]*conversation.Conversation, error) {
	query := repo.db.WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("user_id = ?", userID)
	if filter.FavoritesOnly {
		query = query.Where("is_favorite = ?", true)
	}
	if filter.Search != "" {
		query = query.Where("title ILIKE ? ESCAPE '\\'", "%"+escapeLike(filter.Search)+"%")
	}
	query = query.Order("updated_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []dbschema.Conversation
	if err := query.Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list conversations")
	}
	result := make([]*conversation.Conversation, len(rows))
	for i := range rows {
		result[i] = rows[i].EtoD()
	}
	return result, nil
}

// UpdateTitle implements conversation.Repository.
func (repo *ConversationGormRepository) UpdateTitle(ctx context.Context, userID, id, title string) error {
	return repo.updateOwned(ctx, userID, id, map[string]interface{}{
		"title":      title,
		"updated_at": time.Now().UTC(),
	}, "failed to update conversation title")
}

// SetFavorite implements conversation.Repository. The list order is left
// untouched.
func (repo *ConversationGormRepository) SetFavorite(ctx context.Context, userID, id string, favorite bool) error {
	return repo.updateOwned(ctx, userID, id, map[string]interface{}{
		"is_favorite": favorite,
	}, "failed to update favorite")
}

// SetContextChunks implements conversation.Repository.
func (repo *ConversationGormRepository) SetContextChunks(ctx context.Context, userID, id string, raw json.RawMessage) error {
	return repo.updateOwned(ctx, userID, id, map[string]interface{}{
		"context_chunks": datatypes.JSON(raw),
	}, "failed to store context chunks")
}

// AppendMessages implements conversation.Repository.
func (repo *ConversationGormRepository) AppendMessages(ctx context.Context, id string, messages ...conversation.Message) error {
	if len(messages) == 0 {
		return nil
	}
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockConversation(tx, id); err != nil {
			return err
		}
		var next int
		if err := tx.Model(&dbschema.ConversationMessage{}).
			Where("conversation_id = ?", id).
			Select("COALESCE(MAX(position) + 1, 0)").
			Scan(&next).Error; err != nil {
			return err
		}
		if err := insertMessages(tx, id, next, messages); err != nil {
			return err
		}
		return touch(tx, id)
	})
	return repo.wrap(ctx, err, "failed to append messages")
}

// UpdateMessage implements conversation.Repository.
func (repo *ConversationGormRepository) UpdateMessage(ctx context.Context, id string, index int, msg conversation.Message) error {
	row := dbschema.NewSchemaMessage(id, index, msg)
	result := repo.db.WithContext(ctx).
		Model(&dbschema.ConversationMessage{}).
		Where("conversation_id = ? AND position = ?", id, index).
		UpdateColumns(map[string]interface{}{
			"role":               row.Role,
			"content":            row.Content,
			"message_references": row.MessageReferences,
			"followup_questions": row.FollowupQuestions,
			"thinking_steps":     row.ThinkingSteps,
			"feedback":           row.Feedback,
			"is_out_of_scope":    row.IsOutOfScope,
		})
	if result.Error != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to update message")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "message not found", nil, "8e2d4c6a-0b1f-4a3e-9d5c-7b6a5f4e3d02")
	}
	return nil
}

// TruncateMessages implements conversation.Repository.
func (repo *ConversationGormRepository) TruncateMessages(ctx context.Context, id string, from int) error {
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockConversation(tx, id); err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ? AND position >= ?", id, from).
			Delete(&dbschema.ConversationMessage{}).Error; err != nil {
			return err
		}
		return touch(tx, id)
	})
	return repo.wrap(ctx, err, "failed to truncate messages")
}

// ClearFollowups implements conversation.Repository.
func (repo *ConversationGormRepository) ClearFollowups(ctx context.Context, id string, keep int) error {
	query := repo.db.WithContext(ctx).
		Model(&dbschema.ConversationMessage{}).
		Where("conversation_id = ? AND followup_questions <> '[]'::jsonb", id)
	if keep >= 0 {
		query = query.Where("position <> ?", keep)
	}
	if err := query.UpdateColumn("followup_questions", datatypes.JSONSlice[string]{}).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to clear followups")
	}
	return nil
}

// Delete implements conversation.Repository.
func (repo *ConversationGormRepository) Delete(ctx context.Context, userID, id string) error {
	var affected int64
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&dbschema.Conversation{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Where("conversation_id = ?", id).Delete(&dbschema.ConversationMessage{}).Error
	})
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to delete conversation")
	}
	if affected == 0 {
		return notFound(ctx, "8e2d4c6a-0b1f-4a3e-9d5c-7b6a5f4e3d03")
	}
	return nil
}

func (repo *ConversationGormRepository) updateOwned(ctx context.Context, userID, id string, columns map[string]interface{}, msg string) error {
	result := repo.db.WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ? AND user_id = ?", id, userID).
		UpdateColumns(columns)
	if result.Error != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, msg)
	}
	if result.RowsAffected == 0 {
		return notFound(ctx, "8e2d4c6a-0b1f-4a3e-9d5c-7b6a5f4e3d04")
	}
	return nil
}

func (repo *ConversationGormRepository) wrap(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(ctx, "8e2d4c6a-0b1f-4a3e-9d5c-7b6a5f4e3d05")
	}
	return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, msg)
}

func lockConversation(tx *gorm.DB, id string) error {
	var row dbschema.Conversation
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		First(&row).Error
}

func touch(tx *gorm.DB, id string) error {
	return tx.Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", time.Now().UTC()).Error
}

func insertMessages(tx *gorm.DB, id string, start int, messages []conversation.Message) error {
	if len(messages) == 0 {
		return nil
	}
	rows := make([]*dbschema.ConversationMessage, len(messages))
	for i, msg := range messages {
		rows[i] = dbschema.NewSchemaMessage(id, start+i, msg)
	}
	return tx.Create(&rows).Error
}

func notFound(ctx context.Context, uuid string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, uuid)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
