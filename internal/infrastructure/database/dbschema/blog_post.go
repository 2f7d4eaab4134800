package dbschema

import (
	"time"

	"gorm.io/datatypes"

	"ruleout-server/internal/domain/blog"
)

// BlogPost represents the database schema for blog posts
type BlogPost struct {
	ID              string                             `gorm:"primaryKey;size:64"`
	Slug            string                             `gorm:"size:255;uniqueIndex;not null"`
	Title           string                             `gorm:"type:text;not null"`
	Subtitle        string                             `gorm:"type:text;not null;default:''"`
	Content         string                             `gorm:"type:text;not null"`
	Author          string                             `gorm:"size:255;not null;default:''"`
	AuthorEmail     string                             `gorm:"size:320;not null;default:''"`
	Date            time.Time                          `gorm:"index:idx_blog_posts_date;not null"`
	Category        string                             `gorm:"size:64;not null;default:''"`
	IsFeatured      bool                               `gorm:"not null;default:false"`
	ImageURL        string                             `gorm:"type:text;not null;default:''"`
	VideoURL        string                             `gorm:"type:text;not null;default:''"`
	TableOfContents datatypes.JSONSlice[blog.TOCEntry] `gorm:"type:jsonb;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for BlogPost
func (BlogPost) TableName() string {
	return "blog_posts"
}

// EtoD converts database schema to domain post (Entity to Domain)
func (b *BlogPost) EtoD() *blog.Post {
	toc := []blog.TOCEntry(b.TableOfContents)
	if toc == nil {
		toc = []blog.TOCEntry{}
	}
	return &blog.Post{
		ID:              b.ID,
		Slug:            b.Slug,
		Title:           b.Title,
		Subtitle:        b.Subtitle,
		Content:         b.Content,
		Author:          b.Author,
		AuthorEmail:     b.AuthorEmail,
		Date:            b.Date,
		Category:        b.Category,
		IsFeatured:      b.IsFeatured,
		ImageURL:        b.ImageURL,
		VideoURL:        b.VideoURL,
		TableOfContents: toc,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// NewSchemaBlogPost creates a database schema from domain post
func NewSchemaBlogPost(p *blog.Post) *BlogPost {
	return &BlogPost{
		ID:              p.ID,
		Slug:            p.Slug,
		Title:           p.Title,
		Subtitle:        p.Subtitle,
		Content:         p.Content,
		Author:          p.Author,
		AuthorEmail:     p.AuthorEmail,
		Date:            p.Date,
		Category:        p.Category,
		IsFeatured:      p.IsFeatured,
		ImageURL:        p.ImageURL,
		VideoURL:        p.VideoURL,
		TableOfContents: nonNil(p.TableOfContents),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
