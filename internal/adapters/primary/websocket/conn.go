package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Outbound buffer per connection.
	sendBufferSize = 256
)

// Connection states. A connection is open from registration until its
// transport closes; only open connections receive broadcasts.
const (
	stateOpen int32 = iota
	stateClosed
)

// wire is the subset of *websocket.Conn the connection needs. Tests
// substitute an in-memory implementation.
type wire interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	Close() error
}

// frame is a queued outbound websocket message. Pings and application
// payloads share the send channel so a single goroutine owns all writes.
type frame struct {
	messageType int
	payload     []byte
}

// Conn is one websocket connection tracked by the hub. A connection may
// carry a user identity once the client authenticates; until then it still
// receives broadcasts but is invisible to targeted sends.
type Conn struct {
	id   uuid.UUID
	wire wire

	send chan frame
	done chan struct{}

	// alive is cleared by the heartbeat sweep and set again when the
	// peer answers with a pong.
	alive atomic.Bool

	state atomic.Int32

	mu     sync.RWMutex
	userID string

	closeOnce sync.Once

	logger *slog.Logger
}

// NewConn wraps an accepted websocket connection.
func NewConn(w wire, logger *slog.Logger) *Conn {
	c := &Conn{
		id:     uuid.New(),
		wire:   w,
		send:   make(chan frame, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	c.alive.Store(true)
	c.logger = logger.With("conn_id", c.id.String())
	return c
}

// ID returns the connection's identifier.
func (c *Conn) ID() uuid.UUID {
	return c.id
}

// UserID returns the authenticated user identity, or "" when the client
// has not sent an auth message.
func (c *Conn) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Conn) setUserID(id string) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

// IsOpen reports whether the connection still accepts outbound messages.
func (c *Conn) IsOpen() bool {
	return c.state.Load() == stateOpen
}

// Alive reports whether the peer has answered since the last heartbeat
// sweep.
func (c *Conn) Alive() bool {
	return c.alive.Load()
}

// markSwept clears the liveness flag; the next pong sets it again.
func (c *Conn) markSwept() {
	c.alive.Store(false)
}

// Close tears the connection down. Safe to call from any goroutine and
// any number of times.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.state.Store(stateClosed)
		close(c.done)
		_ = c.wire.Close()
	})
}

// enqueue queues an outbound frame without blocking. A connection whose
// buffer is full is beyond saving and gets torn down.
func (c *Conn) enqueue(f frame) bool {
	if !c.IsOpen() {
		return false
	}

	select {
	case c.send <- f:
		return true
	case <-c.done:
		return false
	default:
		c.logger.Warn("send buffer full, dropping connection")
		c.Close()
		return false
	}
}

// ping queues a control ping for the write pump.
func (c *Conn) ping() bool {
	return c.enqueue(frame{messageType: websocket.PingMessage})
}

// ReadPump consumes inbound messages until the transport fails or close.
// Runs in its own goroutine; the deferred unregister covers every exit
// path, including peers that vanish without a close handshake.
func (c *Conn) ReadPump(unregister func(*Conn)) {
	defer func() {
		unregister(c)
		c.Close()
	}()

	c.wire.SetReadLimit(maxMessageSize)
	c.wire.SetPongHandler(func(string) error {
		c.alive.Store(true)
		return nil
	})

	for {
		_, message, err := c.wire.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		c.handleMessage(message)
	}
}

// WritePump owns every write on the transport. Runs in its own goroutine.
func (c *Conn) WritePump() {
	defer func() { _ = c.wire.Close() }()

	for {
		select {
		case f := <-c.send:
			if err := c.wire.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			messageType := f.messageType
			if messageType == 0 {
				messageType = websocket.TextMessage
			}

			if err := c.wire.WriteMessage(messageType, f.payload); err != nil {
				c.logger.Debug("failed to write message", "error", err)
				return
			}

		case <-c.done:
			// Teardown initiated by Close; tell the peer we are going away.
			_ = c.wire.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.wire.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// clientMessage is the envelope for messages sent by the client.
type clientMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

var pongReply = []byte(`{"type":"pong"}`)

// handleMessage processes one inbound message. Malformed input is logged
// and dropped; it never terminates the connection.
func (c *Conn) handleMessage(message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case "auth":
		// Identity is taken at face value; the upgrade already passed
		// the HTTP auth middleware.
		c.setUserID(msg.UserID)
		c.logger.Debug("connection authenticated", "user_id", msg.UserID)

	case "ping":
		c.enqueue(frame{messageType: websocket.TextMessage, payload: pongReply})

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}
