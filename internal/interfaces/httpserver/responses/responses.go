package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ruleout-server/internal/utils/platformerrors"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code          string `json:"code"`
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError maps err to a status and aborts with an ErrorResponse. The
// platform error message is shown to clients only for caller mistakes;
// server side failures carry the generic message instead.
func HandleError(reqCtx *gin.Context, err error, message string) {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(platformErr.GetErrorType())
		detail := message
		if statusCode < http.StatusInternalServerError && platformErr.Message != "" {
			detail = platformErr.Message
		}
		requestID := platformErr.GetRequestID()
		if requestID == "" {
			requestID = reqCtx.GetString("request_id")
		}
		_ = reqCtx.Error(err)
		reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
			Code:          platformErr.GetUUID(),
			Error:         message,
			Message:       detail,
			ErrorInstance: platformErr,
			RequestID:     requestID,
		})
		return
	}

	_ = reqCtx.Error(err)
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
		RequestID:     reqCtx.GetString("request_id"),
	})
}

// HandleNewError creates a typed error at the handler layer and writes it.
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	err := platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerHandler, errorType, message, nil, uuid)
	HandleError(reqCtx, err, message)
}

// ListResponse wraps collections.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// NewListResponse never serializes a null data array.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Total: len(items)}
}

// DeletedResponse acknowledges a removal.
type DeletedResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
