package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"uniBlocAPI/internal/leaderboard"
	"uniBlocAPI/middleware"
	"uniBlocAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
	profileService     *services.ProfileService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService, profileService *services.ProfileService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		profileService:     profileService,
	}
}

// GetLeaderboard serves the ranked view. The route uses optional auth:
// anonymous viewers see public boards, admins also see hidden ones.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	competitionID, err := intFromVar(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid competition id")
		return
	}

	callerID := uuid.Nil
	if clerkID, ok := middleware.GetClerkID(r.Context()); ok {
		if id, err := h.profileService.ResolveUserID(r.Context(), clerkID); err == nil {
			callerID = id
		}
	}

	q := r.URL.Query()
	opts := leaderboard.Options{
		Gender:     leaderboard.Gender(q.Get("gender")),
		SortBy:     leaderboard.SortKey(q.Get("sortBy")),
		Ascending:  q.Get("order") == "asc",
		Search:     q.Get("search"),
		University: q.Get("university"),
	}

	entries, err := h.leaderboardService.GetLeaderboard(r.Context(), callerID, competitionID, opts)
	if err != nil {
		if errors.Is(err, services.ErrLeaderboardHidden) {
			respondWithError(w, http.StatusForbidden, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to build leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

// GetMyResults returns the climber's placement history across competitions.
func (h *LeaderboardHandler) GetMyResults(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	results, err := h.leaderboardService.GetUserResults(r.Context(), userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch results")
		return
	}

	respondWithJSON(w, http.StatusOK, results)
}
