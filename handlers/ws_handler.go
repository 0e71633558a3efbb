package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"uniBlocAPI/realtime"
	"uniBlocAPI/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// auth happens via the bearer token before the upgrade; the Origin
	// header is not meaningful for the mobile client
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub            *realtime.Hub
	profileService *services.ProfileService
}

func NewWSHandler(hub *realtime.Hub, profileService *services.ProfileService) *WSHandler {
	return &WSHandler{
		hub:            hub,
		profileService: profileService,
	}
}

// Subscribe upgrades the connection and streams validation events for one
// competition until the client goes away.
func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUser(w, r, h.profileService)
	if !ok {
		return
	}

	competitionID, err := intFromVar(r, "competitionID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid competition id")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.hub.RegisterClient(competitionID, userID.String(), conn)
	defer func() {
		h.hub.UnregisterClient(competitionID, conn)
		conn.Close()
	}()

	// the server only pushes; read until the client closes so pings and
	// close frames are processed
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
