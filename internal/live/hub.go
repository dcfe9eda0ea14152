// Package live fans traffic events out to websocket subscribers.
package live

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"store-traffic-service/internal/metrics"
	"store-traffic-service/internal/model"
)

const (
	MessageTypeWelcome = "welcome"
	MessageTypeTraffic = "customer-traffic"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"

	broadcastBuffer = 256
)

// Message is the envelope written to every websocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub keeps the set of connected clients. A single Run loop owns delivery,
// so clients see events in the order Broadcast was called.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "live-hub").Logger(),
	}
}

// Run delivers messages until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		// lifecycle first so a client registered before a broadcast receives it
		select {
		case client := <-h.register:
			h.add(client)
			continue
		case client := <-h.unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			n := h.ClientCount()
			h.closeAll()
			h.log.Info().Int("clients_closed", n).Msg("live hub stopped")
			return ctx.Err()
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Broadcast queues a traffic event for every connected client. It never
// blocks the generator: if the queue is full the event is dropped for live
// delivery only.
func (h *Hub) Broadcast(_ context.Context, event model.TrafficEvent) error {
	select {
	case h.broadcast <- Message{Type: MessageTypeTraffic, Data: event}:
	default:
		h.log.Warn().Int("store_id", event.StoreID).Msg("broadcast queue full, dropping live event")
	}
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) welcome() Message {
	return Message{
		Type: MessageTypeWelcome,
		Data: model.Welcome{
			Message:   "Connected to Store Traffic Server",
			Timestamp: time.Now().UTC(),
		},
	}
}

// reply queues a direct answer to one client if it is still registered.
func (h *Hub) reply(client *Client, message Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- message:
	default:
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.LiveClients.Set(float64(n))
	h.log.Info().Uint64("client_id", client.id).Int("total_clients", n).Msg("live client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.LiveClients.Set(float64(n))
	h.log.Info().Uint64("client_id", client.id).Int("total_clients", n).Msg("live client disconnected")
}

func (h *Hub) deliver(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			// slow consumer
			close(client.send)
			delete(h.clients, client)
			h.log.Warn().Uint64("client_id", client.id).Msg("dropping slow live client")
		}
	}
	metrics.LiveClients.Set(float64(len(h.clients)))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.LiveClients.Set(0)
}
