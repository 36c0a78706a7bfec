package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCache struct {
	mu   sync.Mutex
	keys []string
}

func (c *recordingCache) Invalidate(keys ...string) {
	c.mu.Lock()
	c.keys = append(c.keys, keys...)
	c.mu.Unlock()
}

func (c *recordingCache) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// fakeConn feeds scripted messages and records outbound frames; closing
// it fails the next read.
type fakeConn struct {
	messages  chan []byte
	closeOnce sync.Once

	mu   sync.Mutex
	sent [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{messages: make(chan []byte, 16)}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	msg, ok := <-c.messages
	if !ok {
		return 0, nil, errors.New("connection closed")
	}
	return 1, msg, nil
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	c.sent = append(c.sent, append([]byte(nil), data...))
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.messages) })
	return nil
}

// immediateDelay makes every reconnect wait fire instantly and counts the
// waits.
type immediateDelay struct {
	mu    sync.Mutex
	count int
}

func (d *immediateDelay) fn(time.Duration) <-chan time.Time {
	d.mu.Lock()
	d.count++
	d.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (d *immediateDelay) waits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func TestSubscriber_InvalidatesCacheOnEvents(t *testing.T) {
	cache := &recordingCache{}
	conn := newFakeConn()
	connected := make(chan struct{})

	var dialed bool
	sub := NewSubscriber("ws://helpdesk/ws", cache,
		WithDialer(func(ctx context.Context, url string) (Conn, error) {
			if dialed {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			dialed = true
			close(connected)
			return conn, nil
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sub.Run(ctx)
	<-connected

	conn.messages <- []byte(`{"event":"ticket:created","data":{"id":"t-1"}}`)
	conn.messages <- []byte(`{"event":"sla:deleted","data":{"id":"s-1"}}`)

	require.Eventually(t, func() bool {
		return len(cache.snapshot()) == 3
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{KeyTickets, KeyDashboardStats, KeySLATemplates}, cache.snapshot())

	assert.Empty(t, conn.written(), "anonymous subscriptions send nothing")

	sub.Close()
	assert.Equal(t, StateClosed, sub.State())
}

func TestSubscriber_AnnouncesIdentityOnEachConnect(t *testing.T) {
	delay := &immediateDelay{}

	conns := make(chan *fakeConn, 2)
	first := newFakeConn()
	second := newFakeConn()
	conns <- first
	conns <- second

	dialed := make(chan struct{}, 2)
	sub := NewSubscriber("ws://helpdesk/ws", &recordingCache{},
		WithIdentity("user-42"),
		WithDelay(delay.fn),
		WithDialer(func(ctx context.Context, url string) (Conn, error) {
			select {
			case c := <-conns:
				dialed <- struct{}{}
				return c, nil
			default:
				<-ctx.Done()
				return nil, ctx.Err()
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sub.Run(ctx)

	<-dialed
	require.Eventually(t, func() bool {
		return len(first.written()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.JSONEq(t, `{"type":"auth","userId":"user-42"}`, string(first.written()[0]))

	first.Close()

	select {
	case <-dialed:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not reconnect")
	}

	// The identity is announced again on the fresh connection.
	require.Eventually(t, func() bool {
		return len(second.written()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.JSONEq(t, `{"type":"auth","userId":"user-42"}`, string(second.written()[0]))

	sub.Close()
}

func TestSubscriber_ReconnectsAfterDrop(t *testing.T) {
	cache := &recordingCache{}
	delay := &immediateDelay{}

	conns := make(chan *fakeConn, 2)
	first := newFakeConn()
	second := newFakeConn()
	conns <- first
	conns <- second

	dialed := make(chan struct{}, 2)
	sub := NewSubscriber("ws://helpdesk/ws", cache,
		WithDelay(delay.fn),
		WithDialer(func(ctx context.Context, url string) (Conn, error) {
			select {
			case c := <-conns:
				dialed <- struct{}{}
				return c, nil
			default:
				<-ctx.Done()
				return nil, ctx.Err()
			}
		}),
		WithEventHandler(func(Envelope) {}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sub.Run(ctx)

	<-dialed
	first.messages <- []byte(`{"event":"user:updated","data":{}}`)
	first.Close()

	select {
	case <-dialed:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not reconnect")
	}

	second.messages <- []byte(`{"event":"user:updated","data":{}}`)

	require.Eventually(t, func() bool {
		return len(cache.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)

	assert.GreaterOrEqual(t, delay.waits(), 1, "reconnect waited the fixed delay")
	sub.Close()
}

func TestSubscriber_RetriesFailedDials(t *testing.T) {
	delay := &immediateDelay{}
	conn := newFakeConn()

	var mu sync.Mutex
	attempts := 0
	connected := make(chan struct{})

	sub := NewSubscriber("ws://helpdesk/ws", &recordingCache{},
		WithDelay(delay.fn),
		WithDialer(func(ctx context.Context, url string) (Conn, error) {
			mu.Lock()
			attempts++
			n := attempts
			mu.Unlock()
			if n < 3 {
				return nil, errors.New("connection refused")
			}
			close(connected)
			return conn, nil
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sub.Run(ctx)

	select {
	case <-connected:
	case <-time.After(time.Second):
		t.Fatal("subscriber never connected")
	}

	assert.Equal(t, StateOpen, sub.State())
	assert.GreaterOrEqual(t, delay.waits(), 2, "each failed dial waits before retrying")
	sub.Close()
}

func TestSubscriber_CloseDuringDialIsRaceFree(t *testing.T) {
	dialing := make(chan struct{})
	sub := NewSubscriber("ws://helpdesk/ws", &recordingCache{},
		WithDialer(func(ctx context.Context, url string) (Conn, error) {
			close(dialing)
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	)

	done := make(chan struct{})
	go func() {
		sub.Run(context.Background())
		close(done)
	}()

	<-dialing
	sub.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.Equal(t, StateClosed, sub.State())

	// A second Close must be a no-op.
	sub.Close()
}

func TestInvalidatedKeys(t *testing.T) {
	tests := []struct {
		event string
		want  []string
	}{
		{"ticket:created", []string{KeyTickets, KeyDashboardStats}},
		{"ticket:updated", []string{KeyTickets, KeyDashboardStats}},
		{"ticket:deleted", []string{KeyTickets, KeyDashboardStats}},
		{"comment:created", []string{KeyTickets}},
		{"comment:deleted", []string{KeyTickets}},
		{"project:updated", []string{KeyProjects}},
		{"task:created", []string{KeyProjects}},
		{"member:added", []string{KeyProjects}},
		{"member:removed", []string{KeyProjects}},
		{"sla:updated", []string{KeySLATemplates}},
		{"user:updated", []string{KeyUsers}},
		{"user:created", nil},
		{"totally:unknown", nil},
		{"", nil},
	}

	for _, tc := range tests {
		t.Run(tc.event, func(t *testing.T) {
			assert.Equal(t, tc.want, InvalidatedKeys(tc.event))
		})
	}
}

func TestSubscriber_DispatchUnknownEvent(t *testing.T) {
	cache := &recordingCache{}
	var handled []string
	var mu sync.Mutex

	sub := NewSubscriber("ws://helpdesk/ws", cache,
		WithEventHandler(func(env Envelope) {
			mu.Lock()
			handled = append(handled, env.Event)
			mu.Unlock()
		}),
	)

	sub.dispatch([]byte(`{"event":"totally:unknown","data":{}}`))
	sub.dispatch([]byte(`not even json`))
	sub.dispatch([]byte(`{"event":"ticket:deleted","data":{"id":"t-9"}}`))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"totally:unknown", "ticket:deleted"}, handled,
		"unknown events reach the handler, malformed ones are dropped")
	assert.Equal(t, []string{KeyTickets, KeyDashboardStats}, cache.snapshot(),
		"unknown events invalidate nothing")
}
