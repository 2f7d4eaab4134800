package blog

import (
	"context"
	"time"
)

// TOCEntry is one table-of-contents anchor of a post.
type TOCEntry struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// Post is a published blog article.
type Post struct {
	ID              string     `json:"id"`
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	Subtitle        string     `json:"subtitle,omitempty"`
	Content         string     `json:"content"`
	Author          string     `json:"author"`
	AuthorEmail     string     `json:"author_email,omitempty"`
	Date            time.Time  `json:"date"`
	Category        string     `json:"category"`
	IsFeatured      bool       `json:"is_featured"`
	ImageURL        string     `json:"image_url,omitempty"`
	VideoURL        string     `json:"video_url,omitempty"`
	TableOfContents []TOCEntry `json:"table_of_contents"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Filter narrows a post listing.
type Filter struct {
	Category string
}

// Repository persists blog posts. Listings are ordered by date, newest first.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]*Post, error)
	// Featured returns the newest featured post.
	Featured(ctx context.Context) (*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	// Upsert inserts or replaces the post with the same slug. It keeps the
	// stored id and created_at of an existing post.
	Upsert(ctx context.Context, post *Post) (created bool, err error)
	DeleteBySlug(ctx context.Context, slug string) error
	DeleteAll(ctx context.Context) (int64, error)
	SetImage(ctx context.Context, slug, imageURL string, at time.Time) error
}
