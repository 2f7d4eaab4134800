package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ruleout-server/internal/domain/careers"
	"ruleout-server/internal/interfaces/httpserver/requests"
	"ruleout-server/internal/interfaces/httpserver/responses"
)

// maxApplicationBytes leaves room above the résumé limit so oversized files
// reach the size check instead of failing in the transport.
const maxApplicationBytes = 11 << 20

// CareersService delivers job applications.
type CareersService interface {
	Submit(ctx context.Context, app careers.Application, resume *careers.Resume) (*careers.Submission, error)
}

type CareersHandler struct {
	service CareersService
	log     zerolog.Logger
}

func NewCareersHandler(service CareersService, log zerolog.Logger) *CareersHandler {
	return &CareersHandler{
		service: service,
		log:     log.With().Str("handler", "careers").Logger(),
	}
}

// ListJobs handles GET /v1/careers
// @Summary List open positions
// @Tags Careers
// @Produce json
// @Success 200 {object} responses.ListResponse[careers.Job]
// @Router /v1/careers [get]
func (h *CareersHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, responses.NewListResponse(careers.Openings()))
}

// Apply handles POST /v1/careers/:slug/applications
// @Summary Apply to an open position
// @Description Uploads the résumé and emails the application to the hiring team.
// @Tags Careers
// @Accept multipart/form-data
// @Produce json
// @Param slug path string true "Job slug"
// @Param full_name formData string true "Applicant name"
// @Param email formData string true "Applicant email"
// @Param phone formData string false "Phone"
// @Param cover_letter formData string false "Cover letter"
// @Param linkedin formData string false "LinkedIn profile"
// @Param portfolio formData string false "Portfolio"
// @Param resume formData file true "PDF, DOC or DOCX up to 10MB"
// @Success 201 {object} careers.Submission
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 502 {object} responses.ErrorResponse
// @Router /v1/careers/{slug}/applications [post]
func (h *CareersHandler) Apply(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxApplicationBytes)

	var form requests.CareerApplicationForm
	if err := c.ShouldBind(&form); err != nil {
		if bodyTooLarge(err) {
			responses.HandleError(c, careers.ResumeTooLargeError(c.Request.Context()), "invalid resume upload")
			return
		}
		bindError(c, err, "f5a6b7c8-d9e0-4f1a-8b2c-5d6e7f8a9b01")
		return
	}

	var resume *careers.Resume
	if header, err := c.FormFile("resume"); err == nil {
		data, err := readFormFile(c, "resume", careers.MaxResumeBytes)
		if err != nil {
			responses.HandleError(c, err, "invalid resume upload")
			return
		}
		resume = &careers.Resume{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	} else if bodyTooLarge(err) {
		responses.HandleError(c, careers.ResumeTooLargeError(c.Request.Context()), "invalid resume upload")
		return
	} else if !errors.Is(err, http.ErrMissingFile) {
		bindError(c, err, "f5a6b7c8-d9e0-4f1a-8b2c-5d6e7f8a9b02")
		return
	}

	submission, err := h.service.Submit(c.Request.Context(), careers.Application{
		JobSlug:     c.Param("slug"),
		FullName:    form.FullName,
		Email:       form.Email,
		Phone:       form.Phone,
		CoverLetter: form.CoverLetter,
		LinkedIn:    form.LinkedIn,
		Portfolio:   form.Portfolio,
	}, resume)
	if err != nil {
		responses.HandleError(c, err, "Failed to submit application. Please try again.")
		return
	}
	c.JSON(http.StatusCreated, submission)
}
