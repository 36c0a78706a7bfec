package websocket

import (
	"sync"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runReadPump feeds the fake wire and waits for the pump to exit.
func runReadPump(t *testing.T, c *Conn, w *fakeWire, messages ...[]byte) (unregistered *bool) {
	t.Helper()

	flag := false
	var mu sync.Mutex
	done := make(chan struct{})

	go func() {
		c.ReadPump(func(*Conn) {
			mu.Lock()
			flag = true
			mu.Unlock()
		})
		close(done)
	}()

	for _, msg := range messages {
		w.inbound <- msg
	}
	close(w.inbound)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read pump did not exit")
	}

	mu.Lock()
	defer mu.Unlock()
	return &flag
}

func TestConn_InboundMessages(t *testing.T) {
	t.Run("auth attaches the claimed identity", func(t *testing.T) {
		w := newFakeWire()
		c := NewConn(w, testLogger())

		runReadPump(t, c, w, []byte(`{"type":"auth","userId":"user-17"}`))

		assert.Equal(t, "user-17", c.UserID())
	})

	t.Run("ping gets a pong reply", func(t *testing.T) {
		w := newFakeWire()
		c := NewConn(w, testLogger())

		runReadPump(t, c, w, []byte(`{"type":"ping"}`))

		frames := drain(c)
		require.Len(t, frames, 1)
		assert.JSONEq(t, `{"type":"pong"}`, string(frames[0].payload))
	})

	t.Run("malformed json is dropped without closing the connection", func(t *testing.T) {
		w := newFakeWire()
		c := NewConn(w, testLogger())

		runReadPump(t, c, w,
			[]byte(`{not json`),
			[]byte(`{"type":"auth","userId":"after-garbage"}`),
		)

		assert.Equal(t, "after-garbage", c.UserID(),
			"messages after the malformed one are still processed")
	})

	t.Run("unknown message types are ignored", func(t *testing.T) {
		w := newFakeWire()
		c := NewConn(w, testLogger())

		runReadPump(t, c, w, []byte(`{"type":"subscribe"}`))

		assert.Empty(t, drain(c))
		assert.Empty(t, c.UserID())
	})
}

func TestConn_ReadPumpTeardown(t *testing.T) {
	w := newFakeWire()
	c := NewConn(w, testLogger())

	unregistered := runReadPump(t, c, w)

	assert.True(t, *unregistered, "transport failure unregisters the connection")
	assert.False(t, c.IsOpen())
}

func TestConn_WritePump(t *testing.T) {
	t.Run("flushes queued frames in order", func(t *testing.T) {
		w := newFakeWire()
		c := NewConn(w, testLogger())

		require.True(t, c.enqueue(frame{payload: []byte(`first`)}))
		require.True(t, c.enqueue(frame{payload: []byte(`second`)}))

		done := make(chan struct{})
		go func() {
			c.WritePump()
			close(done)
		}()

		assert.Eventually(t, func() bool {
			return len(w.recorded()) >= 2
		}, time.Second, 5*time.Millisecond)

		c.Close()
		<-done

		writes := w.recorded()
		require.GreaterOrEqual(t, len(writes), 2)
		assert.Equal(t, []byte(`first`), writes[0].payload)
		assert.Equal(t, gws.TextMessage, writes[0].messageType)
		assert.Equal(t, []byte(`second`), writes[1].payload)
	})

	t.Run("close sends a close frame and stops the pump", func(t *testing.T) {
		w := newFakeWire()
		c := NewConn(w, testLogger())

		done := make(chan struct{})
		go func() {
			c.WritePump()
			close(done)
		}()

		c.Close()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("write pump did not exit")
		}
	})

	t.Run("enqueue on a closed connection is refused", func(t *testing.T) {
		c := NewConn(newFakeWire(), testLogger())
		c.Close()

		assert.False(t, c.enqueue(frame{payload: []byte(`late`)}))
	})
}
