package careers

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"ruleout-server/internal/utils/platformerrors"
)

const (
	MaxResumeBytes = 10 * 1024 * 1024
	notProvided    = "Not provided"

	msgRequired = "Please fill in all required fields"
	msgFileSize = "File size must be less than 10MB"
	msgFileType = "Only PDF, DOC, and DOCX files are allowed"
)

const (
	mimePDF  = "application/pdf"
	mimeDOC  = "application/msword"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	allowedResumeTypes = map[string]bool{mimePDF: true, mimeDOC: true, mimeDOCX: true}
	// Word files sniff as their container format when the body is sparse.
	containerTypes = map[string]string{
		"application/zip":           mimeDOCX,
		"application/x-ole-storage": mimeDOC,
	}
	nameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// Config holds the mail routing for applications.
type Config struct {
	ToEmail string
}

// Service validates applications, stores the résumé and mails the team.
type Service struct {
	store    ObjectStore
	mailer   Mailer
	redactor EmailRedactor
	validate *validator.Validate
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a careers service.
func NewService(store ObjectStore, mailer Mailer, redactor EmailRedactor, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		mailer:   mailer,
		redactor: redactor,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cfg:      cfg,
		log:      log.With().Str("component", "careers-service").Logger(),
		now:      time.Now,
	}
}

// Submit validates the application before any upload, then stores the
// résumé and sends the email.
func (s *Service) Submit(ctx context.Context, app Application, resume *Resume) (*Submission, error) {
	job, ok := FindJob(app.JobSlug)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "job not found", nil, "7c1e2f3a-4b5c-4d6e-8f9a-0b1c2d3e4f01")
	}

	contentType, err := s.validateApplication(ctx, &app, resume)
	if err != nil {
		return nil, err
	}

	key := ResumeKey(app.JobSlug, app.FullName, resume.Filename, contentType, s.now())
	url, err := s.store.Put(ctx, key, contentType, bytes.NewReader(resume.Data), int64(len(resume.Data)))
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to upload resume")
	}

	params := map[string]string{
		"to_email":     s.cfg.ToEmail,
		"job_title":    job.Title,
		"full_name":    app.FullName,
		"email":        app.Email,
		"phone":        orNotProvided(app.Phone),
		"cover_letter": orNotProvided(app.CoverLetter),
		"linkedin":     orNotProvided(app.LinkedIn),
		"portfolio":    orNotProvided(app.Portfolio),
		"resume_name":  resume.Filename,
		"resume_url":   url,
	}
	if err := s.mailer.Send(ctx, params); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to send application email")
	}

	s.log.Info().
		Str("job", job.Slug).
		Str("applicant", s.redactEmail(app.Email)).
		Int("resume_bytes", len(resume.Data)).
		Msg("job application submitted")

	return &Submission{JobTitle: job.Title, ResumeName: resume.Filename, ResumeURL: url}, nil
}

func (s *Service) validateApplication(ctx context.Context, app *Application, resume *Resume) (string, error) {
	app.FullName = strings.TrimSpace(app.FullName)
	app.Email = strings.TrimSpace(app.Email)
	if app.FullName == "" || app.Email == "" || resume == nil || len(resume.Data) == 0 {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, msgRequired, nil, "7c1e2f3a-4b5c-4d6e-8f9a-0b1c2d3e4f02")
	}
	if err := s.validate.Var(app.Email, "email"); err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid email address", err, "7c1e2f3a-4b5c-4d6e-8f9a-0b1c2d3e4f03")
	}
	if len(resume.Data) > MaxResumeBytes {
		return "", ResumeTooLargeError(ctx)
	}
	contentType, ok := DetectResumeType(resume.ContentType, resume.Data)
	if !ok {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, msgFileType, nil, "7c1e2f3a-4b5c-4d6e-8f9a-0b1c2d3e4f05")
	}
	return contentType, nil
}

// ResumeTooLargeError is the validation error for a résumé over
// MaxResumeBytes. Transports that cut oversized bodies short report it too.
func ResumeTooLargeError(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, msgFileSize, nil, "7c1e2f3a-4b5c-4d6e-8f9a-0b1c2d3e4f04")
}

func (s *Service) redactEmail(email string) string {
	if s.redactor == nil {
		return ""
	}
	return s.redactor.SanitizeEmail(email)
}

// DetectResumeType checks the declared type and the sniffed content. It
// returns the canonical type when both agree on an allowed document format.
func DetectResumeType(declared string, data []byte) (string, bool) {
	declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	if !allowedResumeTypes[declared] {
		return "", false
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		name := m.String()
		if name == declared || containerTypes[name] == declared {
			return declared, true
		}
	}
	return "", false
}

// ResumeKey builds the object key for a résumé upload.
func ResumeKey(jobSlug, fullName, filename, contentType string, at time.Time) string {
	sanitized := strings.ToLower(nameSanitizer.ReplaceAllString(fullName, "-"))
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		ext = strings.TrimPrefix(mimetype.Lookup(contentType).Extension(), ".")
	}
	return fmt.Sprintf("job-applications/%s/%d_%s_resume.%s", jobSlug, at.UnixMilli(), sanitized, ext)
}

func orNotProvided(v string) string {
	if strings.TrimSpace(v) == "" {
		return notProvided
	}
	return v
}
