package blogrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ruleout-server/internal/domain/blog"
	"ruleout-server/internal/infrastructure/database/dbschema"
	"ruleout-server/internal/utils/platformerrors"
)

type BlogGormRepository struct {
	db *gorm.DB
}

var _ blog.Repository = (*BlogGormRepository)(nil)

func NewBlogGormRepository(db *gorm.DB) blog.Repository {
	return &BlogGormRepository{db: db}
}

// List implements blog.Repository.
func (repo *BlogGormRepository) List(ctx context.Context, filter blog.Filter) ([]*blog.Post, error) {
	query := repo.db.WithContext(ctx).Model(&dbschema.BlogPost{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	var rows []dbschema.BlogPost
	if err := query.Order("date DESC").Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list blog posts")
	}
	return toDomain(rows), nil
}

// Featured implements blog.Repository.
func (repo *BlogGormRepository) Featured(ctx context.Context) (*blog.Post, error) {
	var row dbschema.BlogPost
	err := repo.db.WithContext(ctx).
		Where("is_featured = ?", true).
		Order("date DESC").
		First(&row).Error
	if err != nil {
		return nil, repo.mapError(ctx, err, "failed to find featured post")
	}
	return row.EtoD(), nil
}

// GetBySlug implements blog.Repository.
func (repo *BlogGormRepository) GetBySlug(ctx context.Context, slug string) (*blog.Post, error) {
	var row dbschema.BlogPost
	if err := repo.db.WithContext(ctx).Where("slug = ?", slug).First(&row).Error; err != nil {
		return nil, repo.mapError(ctx, err, "failed to find blog post")
	}
	return row.EtoD(), nil
}

// Upsert implements blog.Repository.
func (repo *BlogGormRepository) Upsert(ctx context.Context, post *blog.Post) (bool, error) {
	created := false
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing dbschema.BlogPost
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("slug = ?", post.Slug).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			return tx.Create(dbschema.NewSchemaBlogPost(post)).Error
		case err != nil:
			return err
		}

		post.ID = existing.ID
		post.CreatedAt = existing.CreatedAt
		row := dbschema.NewSchemaBlogPost(post)
		return tx.Model(&dbschema.BlogPost{}).
			Where("id = ?", existing.ID).
			UpdateColumns(map[string]interface{}{
				"title":             row.Title,
				"subtitle":          row.Subtitle,
				"content":           row.Content,
				"author":            row.Author,
				"author_email":      row.AuthorEmail,
				"date":              row.Date,
				"category":          row.Category,
				"is_featured":       row.IsFeatured,
				"image_url":         row.ImageURL,
				"video_url":         row.VideoURL,
				"table_of_contents": row.TableOfContents,
				"updated_at":        row.UpdatedAt,
			}).Error
	})
	if err != nil {
		return false, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to save blog post")
	}
	return created, nil
}

// DeleteBySlug implements blog.Repository.
func (repo *BlogGormRepository) DeleteBySlug(ctx context.Context, slug string) error {
	result := repo.db.WithContext(ctx).Where("slug = ?", slug).Delete(&dbschema.BlogPost{})
	if result.Error != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to delete blog post")
	}
	if result.RowsAffected == 0 {
		return repo.mapError(ctx, gorm.ErrRecordNotFound, "")
	}
	return nil
}

// DeleteAll implements blog.Repository.
func (repo *BlogGormRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := repo.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&dbschema.BlogPost{})
	if result.Error != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to delete blog posts")
	}
	return result.RowsAffected, nil
}

// SetImage implements blog.Repository.
func (repo *BlogGormRepository) SetImage(ctx context.Context, slug, imageURL string, at time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&dbschema.BlogPost{}).
		Where("slug = ?", slug).
		UpdateColumns(map[string]interface{}{"image_url": imageURL, "updated_at": at})
	if result.Error != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to update blog image")
	}
	if result.RowsAffected == 0 {
		return repo.mapError(ctx, gorm.ErrRecordNotFound, "")
	}
	return nil
}

func (repo *BlogGormRepository) mapError(ctx context.Context, err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "blog post not found", nil, "9f1b3d5e-7a6c-4e8b-a0d2-4c6e8a0b2d01")
	}
	return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, msg)
}

func toDomain(rows []dbschema.BlogPost) []*blog.Post {
	result := make([]*blog.Post, len(rows))
	for i := range rows {
		result[i] = rows[i].EtoD()
	}
	return result
}
