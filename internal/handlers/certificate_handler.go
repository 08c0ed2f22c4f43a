// internal/handlers/certificate_handler.go
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
	"github.com/google/uuid"
)

type CertificateHandler struct {
	service service.CertificateService
	logger  *slog.Logger
}

func NewCertificateHandler(s service.CertificateService, logger *slog.Logger) *CertificateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CertificateHandler{
		service: s,
		logger:  logger,
	}
}

func (h *CertificateHandler) authedUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "Missing authentication.", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return uuid.Nil, false
	}
	return userID, true
}

func (h *CertificateHandler) validate(w http.ResponseWriter, logger *slog.Logger, req interface{}) bool {
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
		return false
	}
	return true
}

// Prepare handles POST /certificates/prepare.
func (h *CertificateHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PrepareCertificate"))

	userID, ok := h.authedUser(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.PrepareCertificateRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "Request body is malformed.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if !h.validate(w, logger, req) {
		return
	}

	resp, err := h.service.Prepare(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Error preparing certificate in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

// Confirm handles POST /certificates/confirm.
func (h *CertificateHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ConfirmCertificate"))

	userID, ok := h.authedUser(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.ConfirmCertificateRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "Request body is malformed.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if !h.validate(w, logger, req) {
		return
	}

	certificate, err := h.service.Confirm(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Error confirming certificate in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Certificate confirmed", slog.String("mint_address", certificate.MintAddress))
	webutil.RespondWithJSON(w, http.StatusCreated, certificate)
}

// Issue handles POST /certificates/issue (custodial issuance).
func (h *CertificateHandler) Issue(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "IssueCertificate"))

	userID, ok := h.authedUser(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.IssueCertificateRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "Request body is malformed.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if !h.validate(w, logger, req) {
		return
	}

	certificate, err := h.service.Issue(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Error issuing certificate in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Certificate issued", slog.String("mint_address", certificate.MintAddress))
	webutil.RespondWithJSON(w, http.StatusCreated, certificate)
}

// List handles GET /certificates.
func (h *CertificateHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListCertificates"))

	userID, ok := h.authedUser(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	certificates, err := h.service.List(r.Context(), userID)
	if err != nil {
		logger.Error("Error listing certificates in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if certificates == nil {
		certificates = []*model.CertificateResponse{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, certificates)
}
