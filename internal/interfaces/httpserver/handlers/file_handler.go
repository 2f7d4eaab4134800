package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ruleout-server/internal/infrastructure/storage"
	"ruleout-server/internal/interfaces/httpserver/responses"
	"ruleout-server/internal/utils/platformerrors"
)

// ObjectOpener reads stored objects.
type ObjectOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// FileHandler serves objects of the local storage backend. S3 objects are
// served by the bucket.
type FileHandler struct {
	store ObjectOpener
	log   zerolog.Logger
}

func NewFileHandler(store ObjectOpener, log zerolog.Logger) *FileHandler {
	return &FileHandler{
		store: store,
		log:   log.With().Str("handler", "file").Logger(),
	}
}

// Serve handles GET /files/*key
func (h *FileHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	body, contentType, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "file not found", "c8d9e0f1-a2b3-4c4d-9e5f-8a9b0c1d2e01")
			return
		}
		responses.HandleError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeInternal, "failed to open file", err, "c8d9e0f1-a2b3-4c4d-9e5f-8a9b0c1d2e02"), "failed to open file")
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}

func stringInt(n int) string { return strconv.Itoa(n) }
