// Package realtime pushes bus events to browser tabs over WebSockets.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/mq"
	"github.com/obotesoftech/prisonreturns/types"
)

const (
	sendBuffer   = 32
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 20 * time.Second
	readLimit    = 1024
)

// Frame is what clients receive: the event name and its JSON payload.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Filter decides whether a session receives a frame.
type Filter func(session types.Session) bool

type client struct {
	conn    *websocket.Conn
	session types.Session
	send    chan []byte
	once    sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub keeps the connected clients and fans frames out to them. A client
// whose send buffer is full is disconnected.
type Hub struct {
	log      logging.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(log logging.Logger) *Hub {
	return &Hub{
		log: log.With("component", "realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Serve upgrades the request and blocks until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, session types.Session) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, session: session, send: make(chan []byte, sendBuffer)}
	total := h.add(c)
	h.log.Debug(r.Context(), "ws connected", "identifier", session.Identifier, "clients", total)

	go h.writeLoop(c)
	h.readLoop(c)

	total = h.remove(c)
	h.log.Debug(r.Context(), "ws disconnected", "identifier", session.Identifier, "clients", total)
	return nil
}

// Broadcast queues a frame for every client the filter accepts. A nil
// filter accepts everyone. It returns the number of clients queued.
func (h *Hub) Broadcast(frame Frame, filter Filter) int {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.log.Error(context.Background(), "encode frame", "type", frame.Type, "error", err)
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for c := range h.clients {
		if filter != nil && !filter(c.session) {
			continue
		}
		select {
		case c.send <- payload:
			n++
		default:
			delete(h.clients, c)
			c.close()
			h.log.Warn(context.Background(), "dropped slow ws client", "identifier", c.session.Identifier)
		}
	}
	return n
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Relay returns a bus handler that forwards every message as a frame named
// after the message's event attribute.
func (h *Hub) Relay(filter func(msg mq.Message) Filter) mq.Handler {
	return func(ctx context.Context, msg mq.Message) error {
		var f Filter
		if filter != nil {
			f = filter(msg)
		}
		h.Broadcast(Frame{Type: msg.Attributes[mq.AttrEvent], Data: json.RawMessage(msg.Data)}, f)
		return nil
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

func (h *Hub) add(c *client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	return len(h.clients)
}

func (h *Hub) remove(c *client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	return len(h.clients)
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// readLoop discards client input and keeps the read deadline fresh on pongs.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
