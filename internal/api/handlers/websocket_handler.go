package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	ws "github.com/isdelr/realtimemaps-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles upgrading HTTP connections to WebSocket connections.
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. With no allowed origins
// every origin is accepted.
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || allowed["*"] || origin == "" || allowed[origin]
			},
		},
	}
}

// Serve handles the WebSocket connection request. Text frames are echoed back
// and report notifications are pushed as they happen.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn)
	if !client.Attach() {
		log.Warn().Msg("Websocket hub stopped, refusing connection")
		conn.Close()
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		client.WritePump()
	}()
	go func() {
		defer wg.Done()
		client.ReadPump(h.echo)
	}()

	go func() {
		wg.Wait()
		log.Debug().Str("client_id", client.ID).Msg("Websocket pumps finished")
	}()
}

func (h *WebSocketHandler) echo(client *ws.Client, message []byte) {
	if !client.Enqueue(ws.EchoMessage(message)) {
		log.Warn().Str("client_id", client.ID).Msg("Dropping echo for slow or closed client")
	}
}
