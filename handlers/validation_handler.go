package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"uniBlocAPI/internal/attempt"
	"uniBlocAPI/internal/validation"
	"uniBlocAPI/middleware"
	"uniBlocAPI/services"
)

type ValidationHandler struct {
	validationService  *services.ValidationService
	competitionService *services.CompetitionService
	profileService     *services.ProfileService
}

func NewValidationHandler(validationService *services.ValidationService, competitionService *services.CompetitionService, profileService *services.ProfileService) *ValidationHandler {
	return &ValidationHandler{
		validationService:  validationService,
		competitionService: competitionService,
		profileService:     profileService,
	}
}

// RequestValidation opens a validation request and returns the QR code to
// show the witness. Repeated calls while pending re-serve the same token.
func (h *ValidationHandler) RequestValidation(w http.ResponseWriter, r *http.Request) {
	h.createRequest(w, r, false)
}

// RegenerateToken replaces the climber's pending code with a fresh one.
func (h *ValidationHandler) RegenerateToken(w http.ResponseWriter, r *http.Request) {
	h.createRequest(w, r, true)
}

func (h *ValidationHandler) createRequest(w http.ResponseWriter, r *http.Request, regenerate bool) {
	userID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	var body validation.CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.BoulderID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comp, err := h.competitionService.GetCurrentCompetition(r.Context())
	if err != nil {
		respondWithError(w, http.StatusNotFound, "No active competition")
		return
	}

	var resp *services.QRResponse
	if regenerate {
		resp, err = h.validationService.RegenerateToken(r.Context(), userID, comp.ID, &body)
	} else {
		resp, err = h.validationService.RequestValidation(r.Context(), userID, comp.ID, &body)
	}
	if err != nil {
		switch {
		case errors.Is(err, attempt.ErrInvalidSendCount):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, attempt.ErrValidatedImmutable):
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to create validation request")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// GetPendingRequests lists open requests the caller can witness.
func (h *ValidationHandler) GetPendingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	pending, err := h.validationService.GetPendingRequests(r.Context(), userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch pending requests")
		return
	}

	respondWithJSON(w, http.StatusOK, pending)
}

// ResolveValidation settles a scanned QR code.
func (h *ValidationHandler) ResolveValidation(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	var body validation.ResolveRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comp, err := h.competitionService.GetCurrentCompetition(r.Context())
	if err != nil {
		respondWithError(w, http.StatusNotFound, "No active competition")
		return
	}

	resolved, err := h.validationService.ResolveValidation(r.Context(), userID, comp.ID, &body)
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrRequestNotFound):
			middleware.ValidationScans.WithLabelValues("not_found").Inc()
			respondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, validation.ErrSelfValidation):
			middleware.ValidationScans.WithLabelValues("self_scan").Inc()
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			middleware.ValidationScans.WithLabelValues("error").Inc()
			respondWithError(w, http.StatusInternalServerError, "Failed to resolve validation")
		}
		return
	}

	outcome := "rejected"
	if resolved.Status == validation.StatusApproved {
		outcome = "approved"
	}
	middleware.ValidationScans.WithLabelValues(outcome).Inc()

	respondWithJSON(w, http.StatusOK, resolved)
}
