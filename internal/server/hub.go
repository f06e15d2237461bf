package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/screenloom/screenloom/pkg/screen"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

// Event is one live-canvas update pushed to connected clients while a
// generation is running.
type Event struct {
	Type    string         `json:"type"` // "screen" or "message"
	Screen  *screen.Record `json:"screen,omitempty"`
	Message string         `json:"message,omitempty"`
}

type liveMessage struct {
	projectID string
	payload   []byte
}

// LiveHub fans generation events out to websocket clients. Clients subscribe
// to a single project; events for other projects never reach them.
type LiveHub struct {
	register   chan *liveClient
	unregister chan *liveClient
	broadcast  chan liveMessage
	clients    map[*liveClient]struct{}
	logger     *log.Logger
}

// NewLiveHub creates a hub. Run must be started on its own goroutine.
func NewLiveHub(logger *log.Logger) *LiveHub {
	if logger == nil {
		logger = log.Default()
	}
	return &LiveHub{
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		broadcast:  make(chan liveMessage, 256),
		clients:    make(map[*liveClient]struct{}),
		logger:     logger,
	}
}

// Run owns the client set; all membership changes go through its channels.
func (h *LiveHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				client.conn.Close()
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.projectID != msg.projectID {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					// Slow client: drop it rather than stall the hub.
					delete(h.clients, client)
					close(client.send)
					client.conn.Close()
				}
			}
		}
	}
}

// Broadcast pushes an event to every client watching the project.
func (h *LiveHub) Broadcast(projectID string, ev Event) {
	if h == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("live event marshal failed", "error", err)
		return
	}
	h.broadcast <- liveMessage{projectID: projectID, payload: data}
}

type liveClient struct {
	hub       *LiveHub
	conn      *websocket.Conn
	send      chan []byte
	projectID string
}

func newLiveClient(hub *LiveHub, conn *websocket.Conn, projectID string) *liveClient {
	return &liveClient{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		projectID: projectID,
	}
}

func (c *liveClient) readPump() {
	defer func() {
		c.hub.unregister <- c
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The canvas is served from arbitrary origins in development.
		return true
	},
}
