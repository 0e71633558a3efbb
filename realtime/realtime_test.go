package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialTestClient(t *testing.T, hub *Hub, competitionID int, userID string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.RegisterClient(competitionID, userID, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

// registration happens on the server goroutine after Dial returns, so
// tests wait for the client set to fill before broadcasting
func waitForClients(t *testing.T, hub *Hub, competitionID, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.Lock()
		count := len(hub.clients[competitionID])
		hub.mu.Unlock()
		if count >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d clients for competition %d", n, competitionID)
}

func TestHubDeliversToOtherClients(t *testing.T) {
	hub := NewHub()

	witness := dialTestClient(t, hub, 1, "witness")
	waitForClients(t, hub, 1, 1)

	hub.BroadcastValidationEvent(ValidationEvent{
		Type:          "request_created",
		RequestID:     "req-1",
		CompetitionID: 1,
		ClimberID:     "climber",
		BoulderID:     "b_1",
		Status:        "pending",
	})

	witness.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got ValidationEvent
	require.NoError(t, witness.ReadJSON(&got))
	require.Equal(t, "request_created", got.Type)
	require.Equal(t, "req-1", got.RequestID)
	require.Equal(t, "b_1", got.BoulderID)
}

func TestHubSkipsClimberOwnConnection(t *testing.T) {
	hub := NewHub()

	climber := dialTestClient(t, hub, 2, "climber")
	witness := dialTestClient(t, hub, 2, "witness")
	waitForClients(t, hub, 2, 2)

	hub.BroadcastValidationEvent(ValidationEvent{
		Type:          "request_resolved",
		RequestID:     "req-2",
		CompetitionID: 2,
		ClimberID:     "climber",
		Status:        "approved",
	})

	witness.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got ValidationEvent
	require.NoError(t, witness.ReadJSON(&got))
	require.Equal(t, "approved", got.Status)

	// the climber's own connection stays quiet
	climber.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := climber.ReadMessage()
	require.Error(t, err)
}

func TestHubIgnoresOtherCompetitions(t *testing.T) {
	hub := NewHub()

	other := dialTestClient(t, hub, 3, "viewer")
	waitForClients(t, hub, 3, 1)

	hub.BroadcastValidationEvent(ValidationEvent{
		Type:          "request_created",
		RequestID:     "req-3",
		CompetitionID: 99,
		ClimberID:     "climber",
	})

	other.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := other.ReadMessage()
	require.Error(t, err)
}

func TestBroadcastNeverBlocksWithoutClients(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.BroadcastValidationEvent(ValidationEvent{CompetitionID: 5, RequestID: "r"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked")
	}
}
