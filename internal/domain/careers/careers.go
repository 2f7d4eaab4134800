package careers

import (
	"context"
	"io"
)

// Job is an open position applicants can apply to.
type Job struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

var openings = []Job{
	{Slug: "founding-full-stack-engineer", Title: "Founding Full Stack Engineer"},
	{Slug: "content-creator", Title: "Content Creator"},
	{Slug: "veterinary-clinical-advisor", Title: "Veterinary Clinical Advisor"},
}

// Openings lists the open positions.
func Openings() []Job {
	out := make([]Job, len(openings))
	copy(out, openings)
	return out
}

// FindJob looks up an opening by slug.
func FindJob(slug string) (Job, bool) {
	for _, job := range openings {
		if job.Slug == slug {
			return job, true
		}
	}
	return Job{}, false
}

// Application is a submitted job application. It is mailed, not stored.
type Application struct {
	JobSlug     string
	FullName    string
	Email       string
	Phone       string
	CoverLetter string
	LinkedIn    string
	Portfolio   string
}

// Resume is the uploaded résumé file.
type Resume struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Submission describes a delivered application.
type Submission struct {
	JobTitle   string `json:"job_title"`
	ResumeName string `json:"resume_name"`
	ResumeURL  string `json:"resume_url"`
}

// ObjectStore stores résumé files.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (url string, err error)
}

// Mailer delivers the application email from template parameters.
type Mailer interface {
	Send(ctx context.Context, params map[string]string) error
}

// EmailRedactor masks applicant emails for log output.
type EmailRedactor interface {
	SanitizeEmail(email string) string
}
