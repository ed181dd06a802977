package websocket

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound messages for every connected client.
	broadcast chan []byte

	// Register requests from the clients.
	joining chan *Client

	// Unregister requests from clients.
	leaving chan *Client

	done  chan struct{}
	count atomic.Int64
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan []byte, 256),
		joining:   make(chan *Client),
		leaving:   make(chan *Client),
		clients:   make(map[*Client]bool),
		done:      make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns when ctx is
// cancelled, after closing every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			log.Info().Msg("Websocket hub stopped")
			return
		case client := <-h.joining:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
			log.Info().Str("client_id", client.ID).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.leaving:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Str("client_id", client.ID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				if !client.Enqueue(message) {
					// Slow consumer; cut it loose rather than stall everyone.
					h.drop(client)
				}
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Publish queues a message for all clients without blocking the caller.
// It reports false if the broadcast queue is full or the hub has stopped.
func (h *Hub) Publish(message []byte) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.broadcast <- message:
		return true
	default:
		log.Warn().Msg("Websocket broadcast queue full, dropping message")
		return false
	}
}

func (h *Hub) register(c *Client) bool {
	select {
	case h.joining <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregister(c *Client) {
	select {
	case h.leaving <- c:
	case <-h.done:
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	client.close()
	h.count.Store(int64(len(h.clients)))
}
