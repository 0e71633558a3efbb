package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"uniBlocAPI/internal/attempt"
	"uniBlocAPI/middleware"
	"uniBlocAPI/services"
)

type AttemptHandler struct {
	attemptService *services.AttemptService
	profileService *services.ProfileService
}

func NewAttemptHandler(attemptService *services.AttemptService, profileService *services.ProfileService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		profileService: profileService,
	}
}

// GetMyAttempts returns the climber's ledger for one competition.
func (h *AttemptHandler) GetMyAttempts(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	competitionID, err := intFromVar(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid competition id")
		return
	}

	attempts, err := h.attemptService.GetUserAttempts(r.Context(), userID, competitionID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch attempts")
		return
	}

	respondWithJSON(w, http.StatusOK, attempts)
}

// SetAttempt writes the climber's claimed attempt count for a boulder.
// Zero clears; validated entries are locked.
func (h *AttemptHandler) SetAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	var req attempt.SetAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.attemptService.SetAttempt(r.Context(), userID, req.BoulderID, req.CompetitionID, req.SendAttempts, req.Zone)
	if err != nil {
		middleware.AttemptWrites.WithLabelValues("rejected").Inc()
		switch {
		case errors.Is(err, attempt.ErrInvalidSendCount):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, attempt.ErrValidatedImmutable):
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to record attempt")
		}
		return
	}

	middleware.AttemptWrites.WithLabelValues("ok").Inc()
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Attempt recorded"})
}

// IsValidated tells the app whether to lock the attempt selector.
func (h *AttemptHandler) IsValidated(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	validated, err := h.attemptService.IsBoulderValidated(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to check validation status")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"validated": validated})
}
