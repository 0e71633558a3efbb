package handlers

import (
	"encoding/json"
	"net/http"

	"uniBlocAPI/internal/competition"
	"uniBlocAPI/services"
)

type CompetitionHandler struct {
	competitionService *services.CompetitionService
	profileService     *services.ProfileService
}

func NewCompetitionHandler(competitionService *services.CompetitionService, profileService *services.ProfileService) *CompetitionHandler {
	return &CompetitionHandler{
		competitionService: competitionService,
		profileService:     profileService,
	}
}

func (h *CompetitionHandler) GetCompetitions(w http.ResponseWriter, r *http.Request) {
	comps, err := h.competitionService.GetCompetitions(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch competitions")
		return
	}

	respondWithJSON(w, http.StatusOK, comps)
}

func (h *CompetitionHandler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	id, err := intFromVar(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid competition id")
		return
	}

	c, err := h.competitionService.GetCompetition(r.Context(), id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Competition not found")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

// GetCurrentCompetition serves the competition the app runs against: the
// most recently created one.
func (h *CompetitionHandler) GetCurrentCompetition(w http.ResponseWriter, r *http.Request) {
	c, err := h.competitionService.GetCurrentCompetition(r.Context())
	if err != nil {
		respondWithError(w, http.StatusNotFound, "No competitions exist")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CompetitionHandler) CreateCompetition(w http.ResponseWriter, r *http.Request) {
	callerID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	var req competition.CreateCompetitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.competitionService.CreateCompetition(r.Context(), callerID, &req)
	if err != nil {
		if err == services.ErrNotAuthorized {
			respondWithError(w, http.StatusForbidden, "Super admin access required")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *CompetitionHandler) UpdateCompetition(w http.ResponseWriter, r *http.Request) {
	callerID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	id, err := intFromVar(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid competition id")
		return
	}

	var req competition.UpdateCompetitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.competitionService.UpdateCompetition(r.Context(), callerID, id, &req)
	if err != nil {
		if err == services.ErrNotAuthorized {
			respondWithError(w, http.StatusForbidden, "Super admin access required")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CompetitionHandler) DeleteCompetition(w http.ResponseWriter, r *http.Request) {
	callerID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	id, err := intFromVar(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid competition id")
		return
	}

	if err := h.competitionService.DeleteCompetition(r.Context(), callerID, id); err != nil {
		if err == services.ErrNotAuthorized {
			respondWithError(w, http.StatusForbidden, "Super admin access required")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Competition deleted"})
}
