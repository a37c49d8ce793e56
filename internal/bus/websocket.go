package bus

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"

	"github.com/bethropolis/tandem/internal/logger"
)

const (
	sendQueueSize = 256
	writeWait     = 5 * time.Second
)

// WebSocket is a client of the relay server. It keeps reconnecting with
// exponential backoff until closed; messages published while disconnected
// wait in the send queue and are dropped once it is full.
type WebSocket struct {
	url    string
	dialer *websocket.Dialer
	send   chan []byte

	mutex    sync.RWMutex
	handlers map[int]Handler
	nextID   int
	conn     *websocket.Conn
	closed   bool

	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	newBackOff func() backoff.BackOff
}

// DialWebSocket starts a client for the relay at rawURL, joined to channel.
// It returns immediately; the connection is made in the background.
func DialWebSocket(ctx context.Context, rawURL, channel string) (*WebSocket, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay url %q: %w", rawURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid relay url %q: scheme must be ws or wss", rawURL)
	}
	if channel != "" {
		q := u.Query()
		q.Set("channel", channel)
		u.RawQuery = q.Encode()
	}

	runCtx, cancel := context.WithCancel(ctx)
	w := &WebSocket{
		url:        u.String(),
		dialer:     websocket.DefaultDialer,
		send:       make(chan []byte, sendQueueSize),
		handlers:   make(map[int]Handler),
		ctx:        runCtx,
		cancel:     cancel,
		done:       make(chan struct{}),
		newBackOff: defaultBackOff,
	}
	go w.run()
	return w, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0 // retry until closed
	return b
}

// Publish queues msg for sending. A full queue drops the message.
func (w *WebSocket) Publish(msg Message) error {
	payload, err := Encode(msg)
	if err != nil {
		return err
	}

	w.mutex.RLock()
	defer w.mutex.RUnlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case w.send <- payload:
	default:
		logger.WarnTagf("bus", "Send queue full, dropping message from %s", msg.ActorID)
	}
	return nil
}

// Subscribe registers handler for frames received from the relay.
func (w *WebSocket) Subscribe(handler Handler) (func(), error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	id := w.nextID
	w.nextID++
	w.handlers[id] = handler

	return func() {
		w.mutex.Lock()
		delete(w.handlers, id)
		w.mutex.Unlock()
	}, nil
}

// Connected reports whether a relay connection is currently open.
func (w *WebSocket) Connected() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.conn != nil
}

// Close stops reconnecting and closes the current connection.
func (w *WebSocket) Close() error {
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return nil
	}
	w.closed = true
	conn := w.conn
	w.mutex.Unlock()

	w.cancel()
	if conn != nil {
		conn.Close()
	}
	<-w.done
	return nil
}

func (w *WebSocket) run() {
	defer close(w.done)
	for {
		conn, err := w.connect()
		if err != nil {
			if w.ctx.Err() == nil {
				logger.ErrorTagf("bus", "Giving up on relay %s: %v", w.url, err)
			}
			return
		}
		w.serve(conn)
		if w.ctx.Err() != nil {
			return
		}
		logger.InfoTagf("bus", "Relay connection lost, reconnecting to %s", w.url)
	}
}

func (w *WebSocket) connect() (*websocket.Conn, error) {
	var conn *websocket.Conn
	op := func() error {
		c, _, err := w.dialer.DialContext(w.ctx, w.url, nil)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}
	notify := func(err error, next time.Duration) {
		logger.DebugTagf("bus", "Relay dial failed (%v), retrying in %s", err, next)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(w.newBackOff(), w.ctx), notify); err != nil {
		return nil, err
	}

	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		conn.Close()
		return nil, context.Canceled
	}
	w.conn = conn
	w.mutex.Unlock()

	logger.InfoTagf("bus", "Connected to relay %s", w.url)
	return conn, nil
}

// serve pumps frames in both directions until the connection fails.
func (w *WebSocket) serve(conn *websocket.Conn) {
	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		w.writePump(conn, stop)
	}()

	w.readPump(conn)

	close(stop)
	<-writerDone

	w.mutex.Lock()
	if w.conn == conn {
		w.conn = nil
	}
	w.mutex.Unlock()
	conn.Close()
}

func (w *WebSocket) readPump(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			logger.DebugTagf("bus", "Relay read ended: %v", err)
			return
		}

		w.mutex.RLock()
		handlers := make([]Handler, 0, len(w.handlers))
		for _, h := range w.handlers {
			handlers = append(handlers, h)
		}
		w.mutex.RUnlock()

		for _, h := range handlers {
			deliver("relay", payload, h)
		}
	}
}

func (w *WebSocket) writePump(conn *websocket.Conn, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case payload := <-w.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.DebugTagf("bus", "Relay write failed: %v", err)
				conn.Close() // unblocks readPump
				return
			}
		}
	}
}
