// internal/handlers/profile_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"superteam_academy/internal/middleware"
	"superteam_academy/internal/model"
	"superteam_academy/internal/service"
	"superteam_academy/internal/webutil"

	"github.com/go-playground/validator/v10"
)

type ProfileHandler struct {
	service service.ProfileService
	logger  *slog.Logger
}

func NewProfileHandler(s service.ProfileService, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{
		service: s,
		logger:  logger,
	}
}

// GetProfile handles GET /profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetProfile"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "Missing authentication.", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		logger.Error("Error getting profile in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, profile)
}

// LinkWallet handles PUT /profile/wallet.
func (h *ProfileHandler) LinkWallet(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "LinkWallet"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "Missing authentication.", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.LinkWalletRequest
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

	profile, err := h.service.LinkWallet(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Error linking wallet in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Wallet linked successfully")
	webutil.RespondWithJSON(w, http.StatusOK, profile)
}
