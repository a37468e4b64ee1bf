package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-mapper/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-mapper/pkg/auth"
	"github.com/ekaya-inc/ekaya-mapper/pkg/services"
)

// SQLTemplateHandler serves the render and lint actions over HTTP.
type SQLTemplateHandler struct {
	service      services.SQLTemplateService
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewSQLTemplateHandler creates a handler. Request bodies larger than
// maxBodyBytes are rejected before decoding.
func NewSQLTemplateHandler(service services.SQLTemplateService, maxBodyBytes int64, logger *zap.Logger) *SQLTemplateHandler {
	return &SQLTemplateHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// RegisterRoutes registers POST /api/mybatis/{action}. With authRequired the
// route rejects anonymous callers; otherwise only invalid tokens are rejected.
func (h *SQLTemplateHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, authRequired bool) {
	mux.HandleFunc("POST /api/mybatis/{action}", authMiddleware.Guard(authRequired)(h.Execute))
}

// Execute handles POST /api/mybatis/{action}.
// The body is the action's request document; a body that is not a JSON
// object is treated as an empty request.
func (h *SQLTemplateHandler) Execute(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body is too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return
	}

	result, err := h.service.Execute(r.Context(), action, body)
	if err != nil {
		if apperrors.IsInputError(err) {
			h.writeError(w, http.StatusBadRequest, apperrors.Code(err), err.Error())
			return
		}
		h.logger.Error("Failed to execute SQL template action",
			zap.String("action", action),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to process template")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *SQLTemplateHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
