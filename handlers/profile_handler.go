package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"uniBlocAPI/internal/notification"
	"uniBlocAPI/internal/profile"
	"uniBlocAPI/middleware"
	"uniBlocAPI/services"
)

type ProfileHandler struct {
	profileService *services.ProfileService
	dispatcher     *services.NotificationDispatcher
}

func NewProfileHandler(profileService *services.ProfileService, dispatcher *services.NotificationDispatcher) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		dispatcher:     dispatcher,
	}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	p, err := h.profileService.GetProfileByClerkID(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Profile not found")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req profile.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.profileService.UpdateProfileByClerkID(ctx, clerkID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.profileService.DeleteProfileByClerkID(ctx, clerkID); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

// SetRole grants or revokes admin flags. The service rejects callers who
// are not super admins.
func (h *ProfileHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	var req profile.SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.profileService.SetRole(ctx, callerID, &req); err != nil {
		if err == services.ErrNotAuthorized {
			respondWithError(w, http.StatusForbidden, "Super admin access required")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Role updated"})
}

func (h *ProfileHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	var req notification.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.profileService.RegisterDevice(ctx, userID, &req); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Device registered"})
}

func (h *ProfileHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	notifications, err := h.dispatcher.GetNotifications(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}

	respondWithJSON(w, http.StatusOK, notifications)
}

func (h *ProfileHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	notificationID, err := uuidFromVar(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid notification id")
		return
	}

	if err := h.dispatcher.MarkAsRead(ctx, userID, notificationID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to mark notification read")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Marked as read"})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling JSON: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
