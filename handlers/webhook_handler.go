package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"uniBlocAPI/internal/clerk"
	"uniBlocAPI/internal/profile"
	"uniBlocAPI/services"
)

type WebhookHandler struct {
	profileService *services.ProfileService
}

func NewWebhookHandler(profileService *services.ProfileService) *WebhookHandler {
	return &WebhookHandler{
		profileService: profileService,
	}
}

// HandleClerkWebhook keeps the profiles table in sync with Clerk accounts.
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		http.Error(w, "Error reading body", http.StatusBadRequest)
		return
	}

	if !verifyClerkSignature(r, body) {
		log.Println("Invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event clerk.ClerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		http.Error(w, "Error parsing webhook", http.StatusBadRequest)
		return
	}

	log.Printf("Received webhook event: %s", event.Type)

	ctx := r.Context()
	switch event.Type {
	case "user.created":
		if err := h.handleUserCreated(ctx, event.Data); err != nil {
			log.Printf("Error handling user.created: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	case "user.updated":
		if err := h.handleUserUpdated(ctx, event.Data); err != nil {
			log.Printf("Error handling user.updated: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	case "user.deleted":
		if err := h.handleUserDeleted(ctx, event.Data); err != nil {
			log.Printf("Error handling user.deleted: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	default:
		log.Printf("Unhandled webhook event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}

func (h *WebhookHandler) handleUserCreated(ctx context.Context, data json.RawMessage) error {
	var userData clerk.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	name := strings.TrimSpace(userData.FirstName + " " + userData.LastName)
	if name == "" {
		name = userData.Username
	}

	createReq := &profile.CreateProfileRequest{
		ClerkID:    userData.ID,
		Name:       name,
		University: userData.PublicMetadata.University,
		Gender:     userData.PublicMetadata.Gender,
	}

	p, err := h.profileService.CreateProfile(ctx, createReq)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	log.Printf("Created profile %s for Clerk user %s", p.ID, p.ClerkID)
	return nil
}

func (h *WebhookHandler) handleUserUpdated(ctx context.Context, data json.RawMessage) error {
	var userData clerk.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	name := strings.TrimSpace(userData.FirstName + " " + userData.LastName)
	if name == "" {
		name = userData.Username
	}

	updateReq := &profile.UpdateProfileRequest{}
	if name != "" {
		updateReq.Name = &name
	}
	if userData.PublicMetadata.University != "" {
		updateReq.University = &userData.PublicMetadata.University
	}
	if userData.PublicMetadata.Gender != "" {
		updateReq.Gender = &userData.PublicMetadata.Gender
	}

	if _, err := h.profileService.UpdateProfileByClerkID(ctx, userData.ID, updateReq); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	log.Printf("Updated profile for Clerk user %s", userData.ID)
	return nil
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	if err := h.profileService.DeleteProfileByClerkID(ctx, userData.ID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	log.Printf("Deleted profile for Clerk user %s", userData.ID)
	return nil
}

// verifyClerkSignature checks the svix HMAC on the raw body. The secret is
// whsec_-prefixed base64 and the header may carry several space-separated
// signatures (svix sends one per active secret during rotation).
func verifyClerkSignature(r *http.Request, body []byte) bool {
	webhookSecret := os.Getenv("CLERK_WEBHOOK_SECRET")
	if webhookSecret == "" {
		log.Println("CLERK_WEBHOOK_SECRET not set, skipping signature verification")
		return true
	}

	svixID := r.Header.Get("svix-id")
	svixTimestamp := r.Header.Get("svix-timestamp")
	svixSignature := r.Header.Get("svix-signature")

	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		log.Println("Missing webhook signature headers")
		return false
	}

	signedContent := fmt.Sprintf("%s.%s.%s", svixID, svixTimestamp, string(body))

	mac := hmac.New(sha256.New, svixSecretBytes(webhookSecret))
	mac.Write([]byte(signedContent))
	expectedSignature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, part := range strings.Fields(svixSignature) {
		provided, ok := strings.CutPrefix(part, "v1,")
		if !ok {
			continue
		}
		if hmac.Equal([]byte(expectedSignature), []byte(provided)) {
			return true
		}
	}

	return false
}

func svixSecretBytes(secret string) []byte {
	trimmed := strings.TrimPrefix(secret, "whsec_")
	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil {
		return decoded
	}
	return []byte(trimmed)
}
