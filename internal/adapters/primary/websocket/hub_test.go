package websocket

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeWire is an in-memory transport. Inbound messages are fed through a
// channel; outbound writes are recorded for assertions.
type fakeWire struct {
	inbound chan []byte

	mu          sync.Mutex
	writes      []frame
	pongHandler func(string) error
	closed      bool
}

func newFakeWire() *fakeWire {
	return &fakeWire{inbound: make(chan []byte, 16)}
}

func (f *fakeWire) ReadMessage() (int, []byte, error) {
	msg, ok := <-f.inbound
	if !ok {
		return 0, nil, errors.New("connection reset")
	}
	return gws.TextMessage, msg, nil
}

func (f *fakeWire) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("write on closed wire")
	}
	f.writes = append(f.writes, frame{messageType: messageType, payload: data})
	return nil
}

func (f *fakeWire) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeWire) SetReadLimit(int64)               {}

func (f *fakeWire) SetPongHandler(h func(string) error) {
	f.mu.Lock()
	f.pongHandler = h
	f.mu.Unlock()
}

func (f *fakeWire) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// pong simulates the peer answering a control ping.
func (f *fakeWire) pong() {
	f.mu.Lock()
	h := f.pongHandler
	f.mu.Unlock()
	if h != nil {
		_ = h("")
	}
}

func (f *fakeWire) recorded() []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]frame, len(f.writes))
	copy(out, f.writes)
	return out
}

// drain pops every queued outbound frame without running the write pump.
func drain(c *Conn) []frame {
	var frames []frame
	for {
		select {
		case f := <-c.send:
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func TestHub_Broadcast(t *testing.T) {
	t.Run("identical bytes reach every open connection", func(t *testing.T) {
		hub := NewHub(time.Minute, testLogger())
		a := NewConn(newFakeWire(), testLogger())
		b := NewConn(newFakeWire(), testLogger())
		hub.Register(a)
		hub.Register(b)

		ticket, err := domain.NewTicket(domain.TicketParams{
			Title:       "Broken scanner",
			Priority:    domain.PriorityLow,
			RequesterID: uuid.New(),
		})
		require.NoError(t, err)

		require.NoError(t, hub.Broadcast(domain.NewTicketCreated(ticket)))

		aFrames := drain(a)
		bFrames := drain(b)
		require.Len(t, aFrames, 1)
		require.Len(t, bFrames, 1)
		assert.Equal(t, aFrames[0].payload, bFrames[0].payload)

		var wire struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(aFrames[0].payload, &wire))
		assert.Equal(t, string(domain.EventTicketCreated), wire.Event)
		assert.NotEmpty(t, wire.Data)
	})

	t.Run("closed connections are skipped silently", func(t *testing.T) {
		hub := NewHub(time.Minute, testLogger())
		open := NewConn(newFakeWire(), testLogger())
		closed := NewConn(newFakeWire(), testLogger())
		hub.Register(open)
		hub.Register(closed)
		closed.Close()

		require.NoError(t, hub.Broadcast(domain.NewSLADeleted(uuid.New())))

		assert.Len(t, drain(open), 1)
		assert.Empty(t, drain(closed))
	})

	t.Run("unserializable payload returns SerializationError", func(t *testing.T) {
		hub := NewHub(time.Minute, testLogger())
		c := NewConn(newFakeWire(), testLogger())
		hub.Register(c)

		err := hub.Broadcast(domain.Event{
			Name: domain.EventTicketUpdated,
			Data: make(chan int),
		})

		var serr *apperrors.SerializationError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, string(domain.EventTicketUpdated), serr.Event)
		assert.Empty(t, drain(c), "no partial delivery on serialization failure")
	})
}

func TestHub_SendToUser(t *testing.T) {
	hub := NewHub(time.Minute, testLogger())

	alice := NewConn(newFakeWire(), testLogger())
	alice.setUserID("alice")
	aliceTab := NewConn(newFakeWire(), testLogger())
	aliceTab.setUserID("alice")
	bob := NewConn(newFakeWire(), testLogger())
	bob.setUserID("bob")
	anon := NewConn(newFakeWire(), testLogger())

	for _, c := range []*Conn{alice, aliceTab, bob, anon} {
		hub.Register(c)
	}

	require.NoError(t, hub.SendToUser("alice", domain.NewTaskDeleted(uuid.New())))

	assert.Len(t, drain(alice), 1)
	assert.Len(t, drain(aliceTab), 1)
	assert.Empty(t, drain(bob))
	assert.Empty(t, drain(anon))
}

func TestHub_Heartbeat(t *testing.T) {
	t.Run("responsive peer survives consecutive sweeps", func(t *testing.T) {
		hub := NewHub(time.Minute, testLogger())
		w := newFakeWire()
		c := NewConn(w, testLogger())
		c.wire.SetPongHandler(func(string) error {
			c.alive.Store(true)
			return nil
		})
		hub.Register(c)

		hub.sweep()
		require.Equal(t, 1, hub.ConnectionCount())
		frames := drain(c)
		require.Len(t, frames, 1)
		assert.Equal(t, gws.PingMessage, frames[0].messageType)

		w.pong()
		hub.sweep()
		assert.Equal(t, 1, hub.ConnectionCount())
		assert.True(t, c.IsOpen())
	})

	t.Run("silent peer is evicted on the second sweep", func(t *testing.T) {
		hub := NewHub(time.Minute, testLogger())
		c := NewConn(newFakeWire(), testLogger())
		hub.Register(c)

		hub.sweep()
		require.Equal(t, 1, hub.ConnectionCount(), "first sweep only clears the flag")

		hub.sweep()
		assert.Equal(t, 0, hub.ConnectionCount())
		assert.False(t, c.IsOpen())
	})

	t.Run("late pong before the next sweep counts as alive", func(t *testing.T) {
		hub := NewHub(time.Minute, testLogger())
		w := newFakeWire()
		c := NewConn(w, testLogger())
		c.wire.SetPongHandler(func(string) error {
			c.alive.Store(true)
			return nil
		})
		hub.Register(c)

		hub.sweep()
		w.pong()
		hub.sweep()

		assert.Equal(t, 1, hub.ConnectionCount())
	})
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub(10*time.Millisecond, testLogger())
	hub.Run()

	a := NewConn(newFakeWire(), testLogger())
	b := NewConn(newFakeWire(), testLogger())
	hub.Register(a)
	hub.Register(b)

	hub.Shutdown()

	assert.Equal(t, 0, hub.ConnectionCount())
	assert.False(t, a.IsOpen())
	assert.False(t, b.IsOpen())
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	c := NewConn(newFakeWire(), testLogger())

	reg.Add(c)
	require.Equal(t, 1, reg.Len())

	reg.Remove(c)
	reg.Remove(c)
	assert.Equal(t, 0, reg.Len())
}
