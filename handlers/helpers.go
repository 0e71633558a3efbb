package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"uniBlocAPI/middleware"
	"uniBlocAPI/services"
)

// resolveUser turns the authenticated Clerk subject into the internal
// profile id. Writes the error response itself so handlers can bail with a
// plain return.
func resolveUser(w http.ResponseWriter, r *http.Request, profiles *services.ProfileService) (uuid.UUID, bool) {
	clerkID, ok := middleware.GetClerkID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return uuid.Nil, false
	}

	userID, err := profiles.ResolveUserID(r.Context(), clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Profile not found")
		return uuid.Nil, false
	}
	return userID, true
}

func intFromVar(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}

func uuidFromVar(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}
