package stream

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	fcerrors "github.com/facilita/facil-cli/pkg/errors"
	"github.com/facilita/facil-cli/pkg/logging"
	"github.com/facilita/facil-cli/pkg/session"
)

// State is the connection state surfaced to the UI as a status badge.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Config holds stream client settings.
type Config struct {
	// URL is the WebSocket endpoint of the transcription service.
	URL string

	// Backoff is the reconnect schedule.
	Backoff BackoffPolicy

	// Dialer overrides the default websocket dialer (used by tests).
	Dialer *websocket.Dialer
}

// Client supervises one WebSocket connection per meeting session. It moves
// through Disconnected → Connecting → Connected, delivers decoded events in
// transport order on a single channel, and reconnects with exponential
// backoff after any unexpected close until Close is called or the context
// ends.
type Client struct {
	cfg     Config
	agenda  *session.Agenda
	audio   <-chan []byte
	log     logging.Logger
	metrics *Metrics

	events chan session.Event
	states chan State

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a stream client for one session. agenda may be nil (the
// "no agenda" handshake is sent). audio, when non-nil, is drained into
// binary PCM frames while connected; the producer pauses the session by
// simply not sending.
func NewClient(cfg Config, agenda *session.Agenda, audio <-chan []byte, log logging.Logger, metrics *Metrics) *Client {
	if cfg.Backoff == (BackoffPolicy{}) {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Client{
		cfg:     cfg,
		agenda:  agenda,
		audio:   audio,
		log:     log,
		metrics: metrics,
		events:  make(chan session.Event, 64),
		states:  make(chan State, 8),
		done:    make(chan struct{}),
	}
}

// Events returns the decoded event stream. The channel closes when Run
// returns.
func (c *Client) Events() <-chan session.Event {
	return c.events
}

// States returns connection state changes. Sends never block; a slow
// consumer misses intermediate transitions, not the latest one.
func (c *Client) States() <-chan State {
	return c.states
}

// Close requests a deliberate shutdown: no further reconnects, Run returns.
// Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// Run drives the connection state machine until Close is called or ctx
// ends. It always returns nil on a deliberate shutdown; the stream has no
// fatal errors, only a connection that keeps retrying.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)
	defer c.setState(StateDisconnected)

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		default:
		}

		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err != nil {
			c.setState(StateDisconnected)
			delay := c.cfg.Backoff.Delay(attempt)
			c.log.Warn("stream connect failed",
				logging.F("url", c.cfg.URL),
				logging.F("attempt", attempt),
				logging.F("retry_in", delay),
				logging.Err(err))
			attempt++
			c.metrics.Reconnects.Inc()
			if !c.sleep(ctx, delay) {
				return nil
			}
			continue
		}

		if err := c.handshake(conn); err != nil {
			conn.Close()
			c.setState(StateDisconnected)
			delay := c.cfg.Backoff.Delay(attempt)
			c.log.Warn("agenda handshake failed", logging.F("retry_in", delay), logging.Err(err))
			attempt++
			c.metrics.Reconnects.Inc()
			if !c.sleep(ctx, delay) {
				return nil
			}
			continue
		}

		attempt = 0
		c.metrics.Connects.Inc()
		c.metrics.Connected.Set(1)
		c.setState(StateConnected)
		c.log.Info("stream connected", logging.F("url", c.cfg.URL))

		err = c.pump(ctx, conn)
		conn.Close()
		c.metrics.Connected.Set(0)
		c.setState(StateDisconnected)

		if !fcerrors.IsRetryable(err) {
			return nil
		}

		delay := c.cfg.Backoff.Delay(0)
		c.log.Warn("stream disconnected, reconnecting",
			logging.F("retry_in", delay),
			logging.Err(err))
		c.metrics.Reconnects.Inc()
		if !c.sleep(ctx, delay) {
			return nil
		}
	}
}

// dial opens the WebSocket connection.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, resp, err := c.cfg.Dialer.DialContext(dialCtx, c.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fcerrors.NewTransportError("dial", err)
	}
	return conn, nil
}

// handshake sends the agenda_info control message.
func (c *Client) handshake(conn *websocket.Conn) error {
	payload, err := EncodeAgendaInfo(c.agenda)
	if err != nil {
		return fcerrors.NewFatalTransportError("encode agenda_info", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fcerrors.NewTransportError("write agenda_info", err)
	}
	return nil
}

// pump runs one connected episode: a writer goroutine feeds audio frames
// outbound while the read loop decodes inbound messages into events.
// It returns ErrStreamClosed on deliberate shutdown and a retryable
// transport error on an unexpected close.
func (c *Client) pump(ctx context.Context, conn *websocket.Conn) error {
	stop := make(chan struct{})
	defer close(stop)

	// Unblock the blocking read when shutdown is requested.
	go func() {
		select {
		case <-ctx.Done():
		case <-c.done:
		case <-stop:
			return
		}
		conn.Close()
	}()

	if c.audio != nil {
		go c.writeAudio(conn, stop)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.closed() || ctx.Err() != nil {
				return fcerrors.ErrStreamClosed
			}
			return fcerrors.NewTransportError("read", err)
		}

		ev, err := Decode(data)
		if err != nil {
			c.metrics.Dropped.Inc()
			c.log.Warn("dropping malformed stream message", logging.Err(err))
			continue
		}
		if ev == nil {
			// Informational {error}/{status} payload.
			c.log.Debug("stream info message", logging.F("raw", string(data)))
			continue
		}

		c.metrics.Events.WithLabelValues(eventType(ev)).Inc()

		select {
		case c.events <- ev:
		case <-ctx.Done():
			return fcerrors.ErrStreamClosed
		case <-c.done:
			return fcerrors.ErrStreamClosed
		}
	}
}

// writeAudio forwards PCM frames as binary messages until the episode ends.
func (c *Client) writeAudio(conn *websocket.Conn, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-c.done:
			return
		case chunk, ok := <-c.audio:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				// The read loop observes the broken connection and
				// drives the reconnect; nothing more to do here.
				c.log.Debug("audio write failed", logging.Err(err))
				return
			}
		}
	}
}

// closed reports whether a deliberate shutdown was requested.
func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// sleep waits for d, returning false if shutdown was requested first.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-c.done:
		return false
	}
}

// setState publishes a state change without blocking.
func (c *Client) setState(s State) {
	select {
	case c.states <- s:
	default:
	}
}

// eventType labels an event for metrics.
func eventType(ev session.Event) string {
	switch ev.(type) {
	case session.TranscriptReceived:
		return "transcript"
	case session.WordCountReported:
		return "word_count"
	case session.CheckpointFulfilled:
		return "checkpoint"
	case session.TopicClassified:
		return "topic"
	case session.ConversationTipReceived:
		return "tip"
	default:
		return "other"
	}
}
