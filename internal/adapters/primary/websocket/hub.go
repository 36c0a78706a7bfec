package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

// HeartbeatInterval is the default period between liveness sweeps. A dead
// peer is detected within one to two intervals: the first sweep clears its
// flag, the second finds it still cleared.
const HeartbeatInterval = 30 * time.Second

// Hub fans events out to every registered connection and owns the
// heartbeat that evicts dead peers.
type Hub struct {
	registry *Registry

	heartbeat time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup

	logger *slog.Logger
}

var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a hub sweeping at the given interval; zero means the
// default.
func NewHub(heartbeat time.Duration, logger *slog.Logger) *Hub {
	if heartbeat <= 0 {
		heartbeat = HeartbeatInterval
	}
	return &Hub{
		registry:  NewRegistry(),
		heartbeat: heartbeat,
		stop:      make(chan struct{}),
		logger:    logger.With("component", "websocket_hub"),
	}
}

// Register adds a connection to the fan-out set.
func (h *Hub) Register(c *Conn) {
	h.registry.Add(c)
	h.logger.Info("client connected",
		"conn_id", c.ID(),
		"total_connections", h.registry.Len(),
	)
}

// Unregister removes a connection. Safe to call more than once for the
// same connection.
func (h *Hub) Unregister(c *Conn) {
	h.registry.Remove(c)
	c.Close()
	h.logger.Info("client disconnected",
		"conn_id", c.ID(),
		"total_connections", h.registry.Len(),
	)
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	return h.registry.Len()
}

// Broadcast serializes the event once and queues the identical bytes on
// every open connection. Connections that are closed or falling behind
// are skipped; a payload that cannot be serialized is the caller's
// problem and comes back as a SerializationError.
func (h *Hub) Broadcast(event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return &apperrors.SerializationError{Event: string(event.Name), Err: err}
	}

	h.fanOut(payload, func(*Conn) bool { return true })

	h.logger.Debug("event broadcast",
		"event", event.Name,
		"connections", h.registry.Len(),
	)
	return nil
}

// SendToUser delivers the event only to connections that authenticated as
// the given user. Unauthenticated connections never match.
func (h *Hub) SendToUser(userID string, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return &apperrors.SerializationError{Event: string(event.Name), Err: err}
	}

	h.fanOut(payload, func(c *Conn) bool {
		id := c.UserID()
		return id != "" && id == userID
	})
	return nil
}

func (h *Hub) fanOut(payload []byte, match func(*Conn) bool) {
	for _, c := range h.registry.Snapshot() {
		if !c.IsOpen() || !match(c) {
			continue
		}
		c.enqueue(frame{payload: payload})
	}
}

// Run starts the heartbeat loop. It returns immediately; the loop runs
// until Shutdown.
func (h *Hub) Run() {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				h.sweep()
			case <-h.stop:
				return
			}
		}
	}()
}

// sweep evicts connections that never answered the previous ping, then
// clears the flag and pings the survivors. A peer that answers any time
// before the next sweep stays registered.
func (h *Hub) sweep() {
	for _, c := range h.registry.Snapshot() {
		if !c.Alive() {
			h.logger.Warn("heartbeat missed, evicting connection",
				"conn_id", c.ID(),
				"user_id", c.UserID(),
			)
			h.Unregister(c)
			continue
		}

		c.markSwept()
		c.ping()
	}
}

// Shutdown stops the heartbeat and closes every connection.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	h.wg.Wait()

	for _, c := range h.registry.Snapshot() {
		h.Unregister(c)
	}
	h.logger.Info("websocket hub shut down")
}
