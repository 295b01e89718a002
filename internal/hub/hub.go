package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/smartcity/kingpilot/internal/domain"
)

// Client is one stream subscriber
type Client struct {
	ID   string
	Send chan []byte
}

// NewClient creates a client with a fresh id and a buffered send queue
func NewClient(bufferSize int) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Send: make(chan []byte, bufferSize),
	}
}

// Hub fans dashboard views out to stream clients. It implements
// domain.Renderer; Render never blocks the caller.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	latest  []byte

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub creates an idle hub; call Run to start dispatching
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run dispatches until ctx is cancelled, then closes every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.fanout(msg)
		}
	}
}

// Render publishes view to every connected client
func (h *Hub) Render(ctx context.Context, view domain.DashboardView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("hub: failed to encode view: %w", err)
	}

	h.mu.Lock()
	h.latest = data
	h.mu.Unlock()

	select {
	case h.broadcast <- data:
	default:
		log.Printf("Hub: broadcast channel full, dropping generation %d", view.Generation)
	}
	return nil
}

// Register adds client; it receives the latest view straight away. After
// Run has exited the client is closed at once.
func (h *Hub) Register(client *Client) {
	select {
	case <-h.done:
		close(client.Send)
		return
	default:
	}

	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes client and closes its send queue
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}
	if h.latest != nil {
		select {
		case client.Send <- h.latest:
		default:
		}
	}
	log.Printf("Hub: client %s registered (%d total)", client.ID, len(h.clients))
}

func (h *Hub) fanout(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- msg:
		default:
			log.Printf("Hub: client %s send buffer full, skipping view", client.ID)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	log.Printf("Hub: client %s unregistered (%d total)", client.ID, len(h.clients))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]struct{})
}
