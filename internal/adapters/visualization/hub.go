// Package visualization streams live fleet state to map clients over a
// websocket feed. The protocol is one-way: the simulation pushes batches of
// position and delivery records, and clients only consume. A run never waits
// for a client; slow or absent consumers lose events, not the simulation.
package visualization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // must be less than pongWait
	sendBufSize = 64
)

// EventUpdateData is the event name carried by every fleet state batch.
const EventUpdateData = "update_data"

// Event is the envelope for every message pushed to map clients. Data holds
// a heterogeneous batch of drone, warehouse and order records.
type Event struct {
	Event string `json:"event"`
	Data  []any  `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// Conn is one connected map client.
type Conn struct {
	socket *websocket.Conn
	send   chan []byte
}

// Hub accepts websocket clients on /ws and fans fleet events out to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Conn]bool
	logger   zerolog.Logger
	server   *http.Server
	listener net.Listener
}

// NewHub creates a hub that will listen on the given address once started.
func NewHub(address string, logger zerolog.Logger) *Hub {
	h := &Hub{
		clients: make(map[*Conn]bool),
		logger:  logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	h.server = &http.Server{Addr: address, Handler: mux}
	return h
}

// Start binds the listen address and begins accepting clients in the
// background.
func (h *Hub) Start() error {
	listener, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind visualization address %s: %w", h.server.Addr, err)
	}
	h.listener = listener

	go func() {
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error().Err(err).Msg("visualization server stopped")
		}
	}()

	h.logger.Info().Str("address", h.Address()).Msg("visualization feed listening")
	return nil
}

// Address returns the bound listen address once Start has returned, and the
// configured address before that.
func (h *Hub) Address() string {
	if h.listener == nil {
		return h.server.Addr
	}
	return h.listener.Addr().String()
}

// Shutdown disconnects every client and stops the server.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	return h.server.Shutdown(ctx)
}

// Broadcast pushes one event to every connected client. Clients whose send
// buffer is full miss the event.
func (h *Hub) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal visualization event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn().Msg("dropping visualization event, client buffer full")
		}
	}
}

// ClientCount returns the number of connected map clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades an HTTP request to a websocket connection and registers
// it with the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	socket, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Conn{socket: socket, send: make(chan []byte, sendBufSize)}
	h.register(client)

	go h.writePump(client)
	go h.readPump(client)

	h.logger.Info().Str("remote", socket.RemoteAddr().String()).Int("clients", h.ClientCount()).Msg("map client connected")
}

func (h *Hub) register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// readPump discards inbound messages until the connection drops. The feed is
// one-way; reading only serves to notice closes and answer pings.
func (h *Hub) readPump(c *Conn) {
	defer func() {
		h.unregister(c)
		c.socket.Close()
		h.logger.Info().Msg("map client disconnected")
	}()

	c.socket.SetReadLimit(512)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
