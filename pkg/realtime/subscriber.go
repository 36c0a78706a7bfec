// Package realtime is the Go client for the helpdesk change feed. It
// keeps a websocket subscription to the backend alive and invalidates
// the consumer's cache when entities change server-side.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ReconnectDelay is the fixed pause between connection attempts. The feed
// is low-volume, so there is no backoff: a steady 3s retry reconnects
// promptly after a deploy without hammering anything.
const ReconnectDelay = 3 * time.Second

// State is the subscriber's connection lifecycle phase.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is the subset of a websocket connection the subscriber uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a websocket connection to the feed endpoint.
type Dialer func(ctx context.Context, url string) (Conn, error)

func defaultDialer(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Envelope is one message from the feed.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// authMessage is the control frame announcing the subscriber's identity
// to the backend, enabling targeted deliveries to this connection.
type authMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Option configures a Subscriber.
type Option func(*Subscriber)

// WithDialer substitutes the websocket dialer. Tests use this to run the
// subscriber against an in-memory feed.
func WithDialer(dial Dialer) Option {
	return func(s *Subscriber) { s.dial = dial }
}

// WithDelay substitutes the reconnect wait. The returned channel fires
// when the subscriber may attempt the next dial.
func WithDelay(delay func(d time.Duration) <-chan time.Time) Option {
	return func(s *Subscriber) { s.delay = delay }
}

// WithReconnectDelay overrides the pause between connection attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(s *Subscriber) { s.reconnectDelay = d }
}

// WithIdentity attaches a user identity to the subscription. The
// subscriber announces it with an auth frame after every successful
// connect, so targeted deliveries survive reconnects.
func WithIdentity(userID string) Option {
	return func(s *Subscriber) { s.userID = userID }
}

// WithEventHandler registers a callback invoked for every envelope, after
// cache invalidation. Unknown events reach the handler too.
func WithEventHandler(fn func(Envelope)) Option {
	return func(s *Subscriber) { s.onEvent = fn }
}

// WithLogger sets the subscriber's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Subscriber) { s.logger = logger }
}

// Subscriber maintains a websocket subscription to the change feed and
// reconnects forever until closed.
type Subscriber struct {
	url    string
	cache  Cache
	userID string

	dial           Dialer
	delay          func(d time.Duration) <-chan time.Time
	reconnectDelay time.Duration
	onEvent        func(Envelope)

	state atomic.Int32

	mu     sync.Mutex
	conn   Conn
	cancel context.CancelFunc

	closeOnce sync.Once
	done      chan struct{}

	logger *slog.Logger
}

// NewSubscriber creates a subscriber for the given feed URL. Run must be
// called to start it.
func NewSubscriber(url string, cache Cache, opts ...Option) *Subscriber {
	s := &Subscriber{
		url:            url,
		cache:          cache,
		dial:           defaultDialer,
		delay:          time.After,
		reconnectDelay: ReconnectDelay,
		done:           make(chan struct{}),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "realtime_subscriber")
	return s
}

// State returns the current lifecycle phase.
func (s *Subscriber) State() State {
	return State(s.state.Load())
}

// Run connects and consumes the feed until the context is cancelled or
// Close is called. Every disconnect, including a failed dial, leads back
// to a fresh attempt after the reconnect delay.
func (s *Subscriber) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.state.Store(int32(StateClosed))
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		s.state.Store(int32(StateConnecting))

		conn, err := s.dial(ctx, s.url)
		if err != nil {
			s.logger.Warn("dial failed, retrying", "url", s.url, "error", err)
			if !s.wait(ctx) {
				return
			}
			continue
		}

		s.setConn(conn)

		if err := s.authenticate(conn); err != nil {
			s.logger.Warn("failed to announce identity, reconnecting", "error", err)
			_ = conn.Close()
			s.setConn(nil)
			if !s.wait(ctx) {
				return
			}
			continue
		}

		s.state.Store(int32(StateOpen))
		s.logger.Info("connected to change feed", "url", s.url)

		s.consume(conn)
		s.setConn(nil)

		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		s.logger.Info("connection lost, reconnecting")
		if !s.wait(ctx) {
			return
		}
	}
}

// Close tears the subscription down. Safe to call at any point of the
// lifecycle, including while a dial is in flight, and safe to call twice.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		if s.conn != nil {
			_ = s.conn.Close()
		}
		s.mu.Unlock()

		s.state.Store(int32(StateClosed))
	})
}

func (s *Subscriber) setConn(conn Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

// authenticate sends the auth frame for the configured identity. A no-op
// when the subscription is anonymous.
func (s *Subscriber) authenticate(conn Conn) error {
	if s.userID == "" {
		return nil
	}
	frame, err := json.Marshal(authMessage{Type: "auth", UserID: s.userID})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// wait pauses for the reconnect delay; false means the subscriber is done.
func (s *Subscriber) wait(ctx context.Context) bool {
	select {
	case <-s.delay(s.reconnectDelay):
		return true
	case <-ctx.Done():
		return false
	case <-s.done:
		return false
	}
}

// consume reads envelopes until the connection drops.
func (s *Subscriber) consume(conn Conn) {
	defer func() { _ = conn.Close() }()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.dispatch(message)
	}
}

// dispatch invalidates the caches an event touches and hands the envelope
// to the optional handler. Messages that do not parse are dropped.
func (s *Subscriber) dispatch(message []byte) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		s.logger.Warn("failed to parse feed message", "error", err)
		return
	}

	if keys := InvalidatedKeys(env.Event); len(keys) > 0 {
		s.cache.Invalidate(keys...)
		s.logger.Debug("cache invalidated", "event", env.Event, "keys", keys)
	}

	if s.onEvent != nil {
		s.onEvent(env)
	}
}
