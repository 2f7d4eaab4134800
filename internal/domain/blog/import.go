package blog

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ImportFile is the YAML document accepted by the blog import command.
type ImportFile struct {
	Posts []ImportPost `yaml:"posts"`
}

// ImportPost is one post in an import file. Date accepts YYYY-MM-DD or
// RFC 3339.
type ImportPost struct {
	Slug            string     `yaml:"slug"`
	Title           string     `yaml:"title"`
	Subtitle        string     `yaml:"subtitle"`
	Author          string     `yaml:"author"`
	AuthorEmail     string     `yaml:"author_email"`
	Date            string     `yaml:"date"`
	Category        string     `yaml:"category"`
	IsFeatured      bool       `yaml:"is_featured"`
	ImageURL        string     `yaml:"image_url"`
	VideoURL        string     `yaml:"video_url"`
	TableOfContents []TOCEntry `yaml:"table_of_contents"`
	Content         string     `yaml:"content"`
}

// ParseImport decodes an import file into posts.
func ParseImport(r io.Reader) ([]*Post, error) {
	var file ImportFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("import file is empty")
		}
		return nil, fmt.Errorf("decode import file: %w", err)
	}

	posts := make([]*Post, 0, len(file.Posts))
	for i, in := range file.Posts {
		date, err := parseDate(in.Date)
		if err != nil {
			return nil, fmt.Errorf("post %d (%s): %w", i+1, in.Slug, err)
		}
		posts = append(posts, &Post{
			Slug:            in.Slug,
			Title:           in.Title,
			Subtitle:        in.Subtitle,
			Content:         in.Content,
			Author:          in.Author,
			AuthorEmail:     in.AuthorEmail,
			Date:            date,
			Category:        in.Category,
			IsFeatured:      in.IsFeatured,
			ImageURL:        in.ImageURL,
			VideoURL:        in.VideoURL,
			TableOfContents: in.TableOfContents,
		})
	}
	return posts, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t.UTC(), nil
}
