// internal/handlers/enrollment_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"superteam_academy/internal/middleware"
	"superteam_academy/internal/model"
	"superteam_academy/internal/service"
	"superteam_academy/internal/webutil"

	"github.com/go-chi/chi/v5"
)

type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  *slog.Logger
}

func NewEnrollmentHandler(s service.EnrollmentService, logger *slog.Logger) *EnrollmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrollmentHandler{
		service: s,
		logger:  logger,
	}
}

// Enroll handles POST /courses/{course_ref}/enroll.
func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Enroll"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "Missing authentication.", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	courseRef := chi.URLParam(r, "course_ref")
	if courseRef == "" {
		appErr := model.NewAppError("INVALID_URL_PARAM", "course_ref is required.", "course_ref", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	enrollment, err := h.service.Enroll(r.Context(), userID, courseRef)
	if err != nil {
		logger.Error("Error enrolling in service", slog.Any("error", err), slog.String("course_ref", courseRef))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Enrollment processed", slog.String("enrollment_id", enrollment.EnrollmentID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, enrollment)
}

// ListEnrollments handles GET /enrollments.
func (h *EnrollmentHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListEnrollments"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "Missing authentication.", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	enrollments, err := h.service.ListEnrollments(r.Context(), userID)
	if err != nil {
		logger.Error("Error listing enrollments in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if enrollments == nil {
		enrollments = []*model.EnrollmentResponse{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, enrollments)
}
