package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ruleout-server/internal/domain/recording"
	"ruleout-server/internal/interfaces/httpserver/requests"
	"ruleout-server/internal/interfaces/httpserver/responses"
	"ruleout-server/internal/utils/platformerrors"
)

const (
	maxAudioBytes      = 200 << 20
	recordingJobType   = "recording.process"
	recordingFailedMsg = "Transcription failed"
)

// RecordingService transcribes and stores consultation recordings.
type RecordingService interface {
	Process(ctx context.Context, req recording.ProcessRequest, progress func(recording.Progress)) (*recording.Recording, error)
	List(ctx context.Context, userID string) ([]*recording.Recording, error)
	Get(ctx context.Context, userID, id string) (*recording.Recording, error)
	Delete(ctx context.Context, userID, id string) error
}

// JobRunner wraps long running work, typically with a span and job metrics.
type JobRunner interface {
	Run(ctx context.Context, jobType string, fn func(context.Context) error) error
}

type RecordingHandler struct {
	service RecordingService
	jobs    JobRunner
	log     zerolog.Logger
}

func NewRecordingHandler(service RecordingService, jobs JobRunner, log zerolog.Logger) *RecordingHandler {
	return &RecordingHandler{
		service: service,
		jobs:    jobs,
		log:     log.With().Str("handler", "recording").Logger(),
	}
}

// RecordingFrame is one progress event of an upload.
type RecordingFrame struct {
	Type      string               `json:"type"`
	Step      string               `json:"step,omitempty"`
	Message   string               `json:"message,omitempty"`
	Recording *recording.Recording `json:"recording,omitempty"`
}

// Create handles POST /v1/recordings
// @Summary Upload and transcribe a recording
// @Description Streams `step` frames while the audio is transcribed, then a `complete` frame with the stored recording or an `error` frame.
// @Tags Recordings
// @Accept multipart/form-data
// @Produce text/event-stream
// @Security BearerAuth
// @Param audio formData file true "Recorded audio"
// @Param recorded_seconds formData number false "Duration measured by the recorder"
// @Param timezone formData string false "IANA zone used for the date and time fields"
// @Success 200 {object} RecordingFrame
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /v1/recordings [post]
func (h *RecordingHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAudioBytes+1<<20)

	var form requests.RecordingForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, err, "e4f5a6b7-c8d9-4e0f-9a1b-4c5d6e7f8a01")
		return
	}
	audio, err := readFormFile(c, "audio", maxAudioBytes)
	if err != nil {
		responses.HandleError(c, err, "invalid audio upload")
		return
	}

	loc := time.UTC
	if form.Timezone != "" {
		if tz, err := time.LoadLocation(form.Timezone); err == nil {
			loc = tz
		} else {
			h.log.Debug().Str("timezone", form.Timezone).Msg("unknown timezone, using UTC")
		}
	}

	writer := responses.NewSSEWriter(c)
	defer writer.Done()

	req := recording.ProcessRequest{
		UserID:          userID,
		Audio:           audio,
		RecordedSeconds: form.RecordedSeconds,
		Location:        loc,
	}
	process := func(ctx context.Context) error {
		rec, err := h.service.Process(ctx, req, func(p recording.Progress) {
			_ = writer.Send(RecordingFrame{Type: "step", Step: p.Step, Message: p.Message})
		})
		if err != nil {
			return err
		}
		return writer.Send(RecordingFrame{Type: "complete", Recording: rec})
	}

	if h.jobs != nil {
		err = h.jobs.Run(c.Request.Context(), recordingJobType, process)
	} else {
		err = process(c.Request.Context())
	}
	if err != nil && !errors.Is(err, responses.ErrStreamClosed) {
		platformerrors.LogError(h.log, platformerrors.AsError(c.Request.Context(), platformerrors.LayerHandler, err, "recording processing failed"))
		_ = writer.Send(RecordingFrame{Type: "error", Message: clientMessage(err, recordingFailedMsg)})
	}
}

// List handles GET /v1/recordings
// @Summary List recordings
// @Tags Recordings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} responses.ListResponse[recording.Recording]
// @Failure 401 {object} responses.ErrorResponse
// @Router /v1/recordings [get]
func (h *RecordingHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	recs, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		responses.HandleError(c, err, "failed to list recordings")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse(recs))
}

// Get handles GET /v1/recordings/:id
// @Summary Get a recording
// @Tags Recordings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recording ID"
// @Success 200 {object} recording.Recording
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/recordings/{id} [get]
func (h *RecordingHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	rec, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get recording")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /v1/recordings/:id
// @Summary Delete a recording and its audio
// @Tags Recordings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recording ID"
// @Success 200 {object} responses.DeletedResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/recordings/{id} [delete]
func (h *RecordingHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		responses.HandleError(c, err, "failed to delete recording")
		return
	}
	c.JSON(http.StatusOK, responses.DeletedResponse{ID: id, Deleted: true})
}

// readFormFile reads a multipart file part of at most limit bytes. Anything
// larger is returned truncated to limit+1 bytes so the domain can reject it
// with its own message.
func readFormFile(c *gin.Context, field string, limit int64) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, field+" file is required", err, "e4f5a6b7-c8d9-4e0f-9a1b-4c5d6e7f8a02")
	}
	file, err := header.Open()
	if err != nil {
		return nil, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "failed to read "+field, err, "e4f5a6b7-c8d9-4e0f-9a1b-4c5d6e7f8a03")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "failed to read "+field, err, "e4f5a6b7-c8d9-4e0f-9a1b-4c5d6e7f8a04")
	}
	return data, nil
}

// clientMessage shows caller mistakes verbatim and hides server failures.
func clientMessage(err error, fallback string) string {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) && platformErr.Message != "" &&
		platformerrors.ErrorTypeToHTTPStatus(platformErr.GetErrorType()) < http.StatusInternalServerError {
		return platformErr.Message
	}
	return fallback
}
