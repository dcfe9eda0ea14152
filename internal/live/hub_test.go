package live

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-traffic-service/internal/model"
)

type rawMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()

	hub := NewHub(zerolog.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()

	upgrader := Upgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(upgrader, w, r)
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) rawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg rawMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubSendsWelcomeThenEventsInOrder(t *testing.T) {
	hub, srv, _ := startHub(t)
	conn := dial(t, srv)

	welcome := readMessage(t, conn)
	assert.Equal(t, MessageTypeWelcome, welcome.Type)
	var payload model.Welcome
	require.NoError(t, json.Unmarshal(welcome.Data, &payload))
	assert.Equal(t, "Connected to Store Traffic Server", payload.Message)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	for i := 1; i <= 3; i++ {
		require.NoError(t, hub.Broadcast(context.Background(), model.TrafficEvent{
			ID: uuid.New(), StoreID: 10, CustomersIn: i, TimeStamp: time.Now().UTC(),
		}))
	}

	for i := 1; i <= 3; i++ {
		msg := readMessage(t, conn)
		require.Equal(t, MessageTypeTraffic, msg.Type)

		var event model.TrafficEvent
		require.NoError(t, json.Unmarshal(msg.Data, &event))
		assert.Equal(t, i, event.CustomersIn)
		assert.Equal(t, 10, event.StoreID)
	}
}

func TestHubAnswersPing(t *testing.T) {
	hub, srv, _ := startHub(t)
	conn := dial(t, srv)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypePing}))
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)
}

func TestHubForgetsDisconnectedClients(t *testing.T) {
	hub, srv, _ := startHub(t)
	conn := dial(t, srv)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, srv, cancel := startHub(t)
	conn := dial(t, srv)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestDeliverDropsSlowClients(t *testing.T) {
	hub := NewHub(zerolog.New(io.Discard))
	fast := &Client{id: 1, hub: hub, send: make(chan Message, 1)}
	slow := &Client{id: 2, hub: hub, send: make(chan Message)}
	hub.clients[fast] = struct{}{}
	hub.clients[slow] = struct{}{}

	hub.deliver(Message{Type: MessageTypeTraffic})

	assert.Equal(t, 1, hub.ClientCount())
	assert.Equal(t, MessageTypeTraffic, (<-fast.send).Type)
	_, open := <-slow.send
	assert.False(t, open)
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(zerolog.New(io.Discard))

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+10; i++ {
			_ = hub.Broadcast(context.Background(), model.TrafficEvent{StoreID: 10, CustomersIn: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked without a running hub")
	}
}

func TestUpgraderOrigins(t *testing.T) {
	up := Upgrader([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, up.CheckOrigin(req))
}
