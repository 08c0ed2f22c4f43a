// internal/handlers/progress_handler.go
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"superteam_academy/internal/middleware"
	"superteam_academy/internal/model"
	"superteam_academy/internal/service"
	"superteam_academy/internal/webutil"

	"github.com/google/uuid"
)

type ProgressHandler struct {
	service service.GamificationService
	logger  *slog.Logger
}

func NewProgressHandler(s service.GamificationService, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressHandler{
		service: s,
		logger:  logger,
	}
}

func (h *ProgressHandler) authedUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "Missing authentication.", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return uuid.Nil, false
	}
	return userID, true
}

// GetProgress handles GET /progress.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetProgress"))

	userID, ok := h.authedUser(w, r, logger)
	if !ok {
		return
	}

	progress, err := h.service.GetProgress(r.Context(), userID)
	if err != nil {
		logger.Error("Error getting progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, progress)
}

// CheckIn handles POST /progress/check-in.
func (h *ProgressHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "CheckIn"))

	userID, ok := h.authedUser(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	resp, err := h.service.DailyCheckIn(r.Context(), userID)
	if err != nil {
		logger.Error("Error checking in", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Daily check-in processed", slog.Bool("checked_in", resp.CheckedIn))
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

// ListAchievements handles GET /achievements.
func (h *ProgressHandler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ListAchievements"))

	userID, ok := h.authedUser(w, r, logger)
	if !ok {
		return
	}

	achievements, err := h.service.ListAchievements(r.Context(), userID)
	if err != nil {
		logger.Error("Error listing achievements in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if achievements == nil {
		achievements = []*model.EarnedAchievementResponse{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, achievements)
}

// Leaderboard handles GET /leaderboard. Authenticated callers also get
// their own rank alongside the top entries.
func (h *ProgressHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Leaderboard"))

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	entries, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		logger.Error("Error building leaderboard in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}
	if entries == nil {
		entries = []*model.LeaderboardEntry{}
	}

	resp := map[string]interface{}{"entries": entries}
	if userID, err := middleware.GetUserIDFromContext(r.Context()); err == nil {
		rank, err := h.service.Rank(r.Context(), userID)
		if err != nil {
			logger.Error("Error computing rank in service", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
			return
		}
		resp["rank"] = rank
	}

	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

// Stats handles GET /stats, the public landing page counters.
func (h *ProgressHandler) Stats(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Stats"))

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		logger.Error("Error building stats in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, stats)
}
