package blog

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ruleout-server/internal/utils/idgen"
	"ruleout-server/internal/utils/platformerrors"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ImportResult counts the outcome of an import.
type ImportResult struct {
	Created int
	Updated int
}

// Service serves and administers blog posts.
type Service struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

// NewService creates a blog service.
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "blog-service").Logger(),
		now:  time.Now,
	}
}

// List returns posts, optionally restricted to one category.
func (s *Service) List(ctx context.Context, category string) ([]*Post, error) {
	posts, err := s.repo.List(ctx, Filter{Category: strings.TrimSpace(category)})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list blog posts")
	}
	return posts, nil
}

// Featured returns the newest featured post.
func (s *Service) Featured(ctx context.Context) (*Post, error) {
	post, err := s.repo.Featured(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "no featured post")
	}
	return post, nil
}

// BySlug returns one post.
func (s *Service) BySlug(ctx context.Context, slug string) (*Post, error) {
	if !slugPattern.MatchString(slug) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "blog post not found", nil, "c5e7a9b1-2d3f-4a5b-9c6d-7e8f9a0b1c01")
	}
	post, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "blog post not found")
	}
	return post, nil
}

// Import validates every post, then upserts them by slug. Nothing is written
// when any post is invalid.
func (s *Service) Import(ctx context.Context, posts []*Post) (ImportResult, error) {
	seen := make(map[string]bool, len(posts))
	for i, post := range posts {
		if err := s.validate(ctx, post); err != nil {
			return ImportResult{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, fmt.Sprintf("post %d is invalid", i+1))
		}
		if seen[post.Slug] {
			return ImportResult{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "duplicate slug "+post.Slug, nil, "c5e7a9b1-2d3f-4a5b-9c6d-7e8f9a0b1c02")
		}
		seen[post.Slug] = true
	}

	var result ImportResult
	now := s.now().UTC()
	for _, post := range posts {
		if post.ID == "" {
			id, err := idgen.New(idgen.PrefixBlogPost)
			if err != nil {
				return result, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate post id", err, "c5e7a9b1-2d3f-4a5b-9c6d-7e8f9a0b1c03")
			}
			post.ID = id
		}
		if post.TableOfContents == nil {
			post.TableOfContents = []TOCEntry{}
		}
		post.CreatedAt = now
		post.UpdatedAt = now
		created, err := s.repo.Upsert(ctx, post)
		if err != nil {
			return result, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to save post "+post.Slug)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	s.log.Info().Int("created", result.Created).Int("updated", result.Updated).Msg("blog posts imported")
	return result, nil
}

// Delete removes the post with slug.
func (s *Service) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete blog post")
	}
	return nil
}

// Cleanup deletes every post and returns how many were removed.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete blog posts")
	}
	s.log.Warn().Int64("deleted", n).Msg("all blog posts deleted")
	return n, nil
}

// SetImage replaces the hero image of a post.
func (s *Service) SetImage(ctx context.Context, slug, imageURL string) error {
	if !isHTTPURL(imageURL) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "image url must be an absolute http(s) url", nil, "c5e7a9b1-2d3f-4a5b-9c6d-7e8f9a0b1c04")
	}
	if err := s.repo.SetImage(ctx, slug, imageURL, s.now().UTC()); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update blog image")
	}
	return nil
}

func (s *Service) validate(ctx context.Context, post *Post) error {
	if post == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "empty post", nil, "c5e7a9b1-2d3f-4a5b-9c6d-7e8f9a0b1c05")
	}
	post.Slug = strings.TrimSpace(post.Slug)
	post.Title = strings.TrimSpace(post.Title)
	switch {
	case !slugPattern.MatchString(post.Slug):
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "slug must be lowercase words joined by '-'", nil, "c5e7a9b1-2d3f-4a5b-9c6d-7e8f9a0b1c06")
	case post.Title == "":
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "title is required", nil, "c5e7a9b1-2d3f-4a5b-9c6d-7e8f9a0b1c07")
	case strings.TrimSpace(post.Content) == "":
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "content is required", nil, "c5e7a9b1-2d3f-4a5b-9c6d-7e8f9a0b1c08")
	case post.Date.IsZero():
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "date is required", nil, "c5e7a9b1-2d3f-4a5b-9c6d-7e8f9a0b1c09")
	case post.ImageURL != "" && !isHTTPURL(post.ImageURL):
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "image_url must be an absolute http(s) url", nil, "c5e7a9b1-2d3f-4a5b-9c6d-7e8f9a0b1c10")
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
