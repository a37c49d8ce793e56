// Package relay is the WebSocket fan-out server behind the websocket sync
// backend. Clients join a room named by the channel query parameter; every
// frame a client sends is forwarded to the other members of its room.
package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/bethropolis/tandem/internal/bus"
	"github.com/bethropolis/tandem/internal/config"
	"github.com/bethropolis/tandem/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxFrame   = 1 << 20
)

// client is one WebSocket connection.
type client struct {
	id      string
	channel string
	conn    *websocket.Conn
	send    chan []byte
}

type frame struct {
	from    *client
	payload []byte
}

// Relay routes frames between clients. Run must be running for connections
// to be served.
type Relay struct {
	config   config.RelayConfig
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan frame
	done       chan struct{}

	// rooms is owned by Run.
	rooms   map[string]map[string]*client
	clients atomic.Int64
}

// New creates a relay. Zero fields of cfg take the defaults.
func New(cfg config.RelayConfig) *Relay {
	if cfg.Path == "" {
		cfg.Path = config.DefaultRelayPath
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = config.DefaultRelaySendBuffer
	}
	return &Relay{
		config: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan frame),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[string]*client),
	}
}

// Handler returns the relay's routes: the WebSocket endpoint and /healthz.
func (r *Relay) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc(r.config.Path, r.serveWS).Methods(http.MethodGet)
	router.HandleFunc("/healthz", r.serveHealth).Methods(http.MethodGet)
	return router
}

// ClientCount is the number of connected clients across all rooms.
func (r *Relay) ClientCount() int {
	return int(r.clients.Load())
}

// Run processes joins, departures and frames until ctx is done, then
// disconnects every client.
func (r *Relay) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case c := <-r.register:
			room, ok := r.rooms[c.channel]
			if !ok {
				room = make(map[string]*client)
				r.rooms[c.channel] = room
			}
			room[c.id] = c
			r.clients.Add(1)
			logger.InfoTagf("relay", "Client %s joined %q (%d in room)", c.id, c.channel, len(room))

		case c := <-r.unregister:
			if r.remove(c) {
				logger.InfoTagf("relay", "Client %s left %q", c.id, c.channel)
			}

		case f := <-r.broadcast:
			for id, c := range r.rooms[f.from.channel] {
				if id == f.from.id {
					continue
				}
				select {
				case c.send <- f.payload:
				default:
					logger.WarnTagf("relay", "Client %s is not keeping up, disconnecting", c.id)
					r.remove(c)
				}
			}

		case <-ctx.Done():
			for _, room := range r.rooms {
				for _, c := range room {
					r.remove(c)
				}
			}
			logger.InfoTagf("relay", "Relay stopped")
			return
		}
	}
}

// remove drops c from its room and closes its send queue. It reports false
// when c was already gone.
func (r *Relay) remove(c *client) bool {
	room := r.rooms[c.channel]
	if _, ok := room[c.id]; !ok {
		return false
	}
	delete(room, c.id)
	if len(room) == 0 {
		delete(r.rooms, c.channel)
	}
	close(c.send)
	r.clients.Add(-1)
	return true
}

func (r *Relay) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": r.ClientCount(),
	})
}

func (r *Relay) serveWS(w http.ResponseWriter, req *http.Request) {
	channel := req.URL.Query().Get("channel")
	if channel == "" {
		channel = config.DefaultChannel
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		logger.WarnTagf("relay", "Error upgrading: %v", err)
		return
	}

	c := &client{
		id:      uuid.New().String(),
		channel: channel,
		conn:    conn,
		send:    make(chan []byte, r.config.SendBuffer),
	}

	select {
	case r.register <- c:
	case <-r.done:
		conn.Close()
		return
	}

	go r.writePump(c)
	r.readPump(c)
}

// readPump forwards the client's frames to its room until the connection fails.
func (r *Relay) readPump(c *client) {
	defer func() {
		select {
		case r.unregister <- c:
		case <-r.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrame)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnTagf("relay", "Read error from %s: %v", c.id, err)
			}
			return
		}
		if _, err := bus.Decode(payload); err != nil {
			logger.WarnTagf("relay", "Dropping frame from %s: %v", c.id, err)
			continue
		}

		select {
		case r.broadcast <- frame{from: c, payload: payload}:
		case <-r.done:
			return
		}
	}
}

// writePump sends queued frames and keepalive pings. It ends when the
// send queue is closed.
func (r *Relay) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.WarnTagf("relay", "Write error to %s: %v", c.id, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
