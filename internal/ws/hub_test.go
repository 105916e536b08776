package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached %d clients (have %d)", want, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsAlerts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	alert := &models.EscalationAlert{
		AlertID:  "alert-1",
		UserID:   "user-1",
		Reason:   "negative sentiment",
		Priority: models.AlertPriorityHigh,
		Status:   models.AlertStatusPending,
	}
	hub.NotifyAlert(alert)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))

	assert.Equal(t, "alert.created", event.Type)
	require.NotNil(t, event.Alert)
	assert.Equal(t, "alert-1", event.Alert.AlertID)
	assert.Equal(t, models.AlertPriorityHigh, event.Alert.Priority)
}

func TestHubFansOutToAllClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	first := dialHub(t, hub)
	second := dialHub(t, hub)
	waitForClients(t, hub, 2)

	hub.NotifyAlert(&models.EscalationAlert{AlertID: "alert-2"})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var event Event
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, "alert-2", event.Alert.AlertID)
	}
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestNotifyAlertNeverBlocks(t *testing.T) {
	// No Run goroutine: the broadcast buffer fills and overflow is dropped.
	hub := NewHub(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			hub.NotifyAlert(&models.EscalationAlert{AlertID: "overflow"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("NotifyAlert blocked")
	}
}
