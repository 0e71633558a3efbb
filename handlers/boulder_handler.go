package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"uniBlocAPI/internal/boulder"
	"uniBlocAPI/services"
)

type BoulderHandler struct {
	boulderService *services.BoulderService
	profileService *services.ProfileService
}

func NewBoulderHandler(boulderService *services.BoulderService, profileService *services.ProfileService) *BoulderHandler {
	return &BoulderHandler{
		boulderService: boulderService,
		profileService: profileService,
	}
}

// GetBoulders lists a competition's boulders. ?active=true hides retired
// problems, which is what climbers see; admins list everything.
func (h *BoulderHandler) GetBoulders(w http.ResponseWriter, r *http.Request) {
	competitionID, err := intFromVar(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid competition id")
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"

	boulders, err := h.boulderService.GetBoulders(r.Context(), competitionID, activeOnly)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch boulders")
		return
	}

	respondWithJSON(w, http.StatusOK, boulders)
}

func (h *BoulderHandler) GetBoulder(w http.ResponseWriter, r *http.Request) {
	b, err := h.boulderService.GetBoulder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Boulder not found")
		return
	}

	respondWithJSON(w, http.StatusOK, b)
}

func (h *BoulderHandler) CreateBoulder(w http.ResponseWriter, r *http.Request) {
	callerID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	var req boulder.CreateBoulderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.MaxPoints <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b, err := h.boulderService.CreateBoulder(r.Context(), callerID, &req)
	if err != nil {
		if err == services.ErrNotAuthorized {
			respondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, b)
}

func (h *BoulderHandler) UpdateBoulder(w http.ResponseWriter, r *http.Request) {
	callerID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	var req boulder.UpdateBoulderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b, err := h.boulderService.UpdateBoulder(r.Context(), callerID, mux.Vars(r)["id"], &req)
	if err != nil {
		if err == services.ErrNotAuthorized {
			respondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, b)
}

func (h *BoulderHandler) DeleteBoulder(w http.ResponseWriter, r *http.Request) {
	callerID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	err := h.boulderService.DeleteBoulder(r.Context(), callerID, mux.Vars(r)["id"])
	if err != nil {
		switch err {
		case services.ErrNotAuthorized:
			respondWithError(w, http.StatusForbidden, "Admin access required")
		case services.ErrBoulderReferenced:
			respondWithError(w, http.StatusConflict, "Boulder has recorded attempts; deactivate it instead")
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Boulder deleted"})
}
