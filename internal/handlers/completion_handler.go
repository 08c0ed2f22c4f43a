// internal/handlers/completion_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"superteam_academy/internal/middleware"
	"superteam_academy/internal/model"
	"superteam_academy/internal/service"
	"superteam_academy/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type CompletionHandler struct {
	service service.CompletionService
	logger  *slog.Logger
}

func NewCompletionHandler(s service.CompletionService, logger *slog.Logger) *CompletionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompletionHandler{
		service: s,
		logger:  logger,
	}
}

// CompleteLesson handles POST /lessons/{lesson_ref}/complete.
func (h *CompletionHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "CompleteLesson"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "Missing authentication.", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	lessonRef := chi.URLParam(r, "lesson_ref")
	if lessonRef == "" {
		appErr := model.NewAppError("INVALID_URL_PARAM", "lesson_ref is required.", "lesson_ref", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("lesson_ref", lessonRef))

	var req model.CompleteLessonRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "Request body is malformed.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed", slog.Any("errors", validationErrors.Error()))
			firstErr := validationErrors[0]
			appErr := model.NewAppError(
				"VALIDATION_ERROR",
				firstErr.Translate(webutil.Trans),
				firstErr.Field(),
				model.ErrInvalidInput,
			)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	result, err := h.service.CompleteLesson(r.Context(), userID, lessonRef, &req)
	if err != nil {
		if errors.Is(err, model.ErrOrderingViolation) {
			logger.Info("Lesson completion rejected, out of order", slog.Any("error", err))
		} else {
			logger.Error("Error completing lesson in service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Lesson completion processed", slog.Int("progress", result.ProgressPercentage))
	webutil.RespondWithJSON(w, http.StatusOK, result)
}
