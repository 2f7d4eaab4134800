package handlers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleout-server/internal/domain/careers"
	"ruleout-server/internal/interfaces/httpserver/handlers"
	"ruleout-server/internal/utils/platformerrors"
)

func setupCareersRouter(svc *MockCareersService) http.Handler {
	r, v1 := newTestRouter()
	h := handlers.NewCareersHandler(svc, zerolog.Nop())
	v1.GET("/careers", h.ListJobs)
	v1.POST("/careers/:slug/applications", h.Apply)
	return r
}

func applicationRequest(t *testing.T, slug string, resume []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("full_name", "Jamie Park"))
	require.NoError(t, mw.WriteField("email", "jamie@example.com"))
	require.NoError(t, mw.WriteField("linkedin", "https://linkedin.com/in/jamie"))
	if resume != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="resume"; filename="cv.pdf"`)
		h.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(resume)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/careers/"+slug+"/applications", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCareersHandler_Apply(t *testing.T) {
	var (
		gotApp    careers.Application
		gotResume *careers.Resume
	)
	svc := &MockCareersService{
		SubmitFunc: func(ctx context.Context, app careers.Application, resume *careers.Resume) (*careers.Submission, error) {
			gotApp, gotResume = app, resume
			return &careers.Submission{JobTitle: "Content Creator", ResumeName: "cv.pdf", ResumeURL: "https://cdn/x.pdf"}, nil
		},
	}

	w := serve(setupCareersRouter(svc), applicationRequest(t, "content-creator", []byte("%PDF-1.4 test")))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"job_title":"Content Creator","resume_name":"cv.pdf","resume_url":"https://cdn/x.pdf"}`, w.Body.String())
	assert.Equal(t, "content-creator", gotApp.JobSlug)
	assert.Equal(t, "Jamie Park", gotApp.FullName)
	assert.Equal(t, "https://linkedin.com/in/jamie", gotApp.LinkedIn)
	require.NotNil(t, gotResume)
	assert.Equal(t, "cv.pdf", gotResume.Filename)
	assert.Equal(t, "application/pdf", gotResume.ContentType)
	assert.Equal(t, []byte("%PDF-1.4 test"), gotResume.Data)
}

func TestCareersHandler_ApplyWithoutResumeDefersToService(t *testing.T) {
	svc := &MockCareersService{
		SubmitFunc: func(ctx context.Context, app careers.Application, resume *careers.Resume) (*careers.Submission, error) {
			assert.Nil(t, resume)
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "Please fill in all required fields", nil, "val")
		},
	}

	w := serve(setupCareersRouter(svc), applicationRequest(t, "content-creator", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please fill in all required fields")
}

func TestCareersHandler_ApplyHidesDeliveryFailures(t *testing.T) {
	svc := &MockCareersService{
		SubmitFunc: func(ctx context.Context, app careers.Application, resume *careers.Resume) (*careers.Submission, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "emailjs: 403 forbidden", nil, "ext")
		},
	}

	w := serve(setupCareersRouter(svc), applicationRequest(t, "content-creator", []byte("%PDF-1.4")))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to submit application. Please try again.")
	assert.NotContains(t, w.Body.String(), "403")
}

func TestCareersHandler_ListJobs(t *testing.T) {
	w := serve(setupCareersRouter(&MockCareersService{}), httptest.NewRequest(http.MethodGet, "/v1/careers", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"founding-full-stack-engineer"`)
}

func TestCareersHandler_ApplyRejectsOversizedBody(t *testing.T) {
	called := false
	svc := &MockCareersService{
		SubmitFunc: func(ctx context.Context, app careers.Application, resume *careers.Resume) (*careers.Submission, error) {
			called = true
			return nil, nil
		},
	}
	resume := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 12<<20)...)

	w := serve(setupCareersRouter(svc), applicationRequest(t, "content-creator", resume))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "File size must be less than 10MB")
	assert.NotContains(t, w.Body.String(), "request body too large")
	assert.False(t, called)
}
