// Package transport maintains the push-subscription connection to the
// canvas topic and delivers change notifications to a single handler,
// reconnecting with exponential backoff across interruptions.
package transport

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"canvasearth-client/core"
)

// CanvasTopic is the shared topic every client subscribes to.
const CanvasTopic = "/topic/canvas"

// Reconnect policy defaults.
const (
	initialReconnectDelay = 1 * time.Second
	maxReconnectDelay     = 30 * time.Second
	backoffMultiplier     = 2
	maxReconnectAttempts  = 10
)

// State is the channel's connection state.
type State string

const (
	Disconnected  State = "disconnected"
	Connecting    State = "connecting"
	Connected     State = "connected"
	ReconnectWait State = "reconnect-wait"
	GivenUp       State = "given-up"
)

// Handler receives each parsed change notification. It is called from
// the channel's read goroutine and must not block.
type Handler func(core.ChangeNotification)

type subscribeFrame struct {
	Topic string `json:"topic"`
}

// Channel is a push channel to the canvas topic. It never mutates the
// object cache itself; it only hands frames to the registered handler.
type Channel struct {
	url     string
	handler Handler
	dialer  *websocket.Dialer

	// test hooks, fixed to the package defaults in NewChannel
	initialDelay time.Duration
	maxDelay     time.Duration
	maxAttempts  int

	mu             sync.Mutex
	state          State
	conn           *websocket.Conn
	reconnectTimer *time.Timer
	attempts       int
	delay          time.Duration
	generation     int
	closed         bool

	givenUp     chan struct{}
	givenUpOnce sync.Once
}

// NewChannel returns a disconnected channel for the given websocket URL.
// Call Connect to start it.
func NewChannel(url string, handler Handler) *Channel {
	return &Channel{
		url:          url,
		handler:      handler,
		dialer:       websocket.DefaultDialer,
		initialDelay: initialReconnectDelay,
		maxDelay:     maxReconnectDelay,
		maxAttempts:  maxReconnectAttempts,
		state:        Disconnected,
		delay:        initialReconnectDelay,
		givenUp:      make(chan struct{}),
	}
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// GivenUp is closed when the channel exhausts its reconnect attempts.
// This is terminal; the owner should surface it to the user.
func (c *Channel) GivenUp() <-chan struct{} {
	return c.givenUp
}

// Connect starts connecting in the background. Later reconnects are
// scheduled by the channel itself; calling Connect again after
// Disconnect (or after the channel gave up) starts a fresh attempt
// series.
func (c *Channel) Connect() {
	c.mu.Lock()
	if c.state == Connecting || c.state == Connected {
		c.mu.Unlock()
		return
	}
	c.closed = false
	c.attempts = 0
	c.delay = c.initialDelay
	c.state = Connecting
	generation := c.generation
	c.mu.Unlock()

	go c.dial(generation)
}

// Disconnect tears the channel down: it cancels any pending reconnect
// timer, resets the attempt and delay counters and closes the active
// connection if any. Safe to call from any state, any number of times.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.closed = true
	c.generation++
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.attempts = 0
	c.delay = c.initialDelay
	conn := c.conn
	c.conn = nil
	c.state = Disconnected
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	logrus.Debug("push channel disconnected")
}

func (c *Channel) dial(generation int) {
	conn, _, err := c.dialer.Dial(c.url, nil)

	c.mu.Lock()
	if c.closed || generation != c.generation {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.mu.Unlock()
		logrus.WithError(err).WithField("url", c.url).Warn("push channel dial failed")
		c.handleDisconnect(generation)
		return
	}

	c.conn = conn
	c.state = Connected
	c.attempts = 0
	c.delay = c.initialDelay
	c.mu.Unlock()

	logrus.WithField("url", c.url).Info("push channel connected")

	if err := conn.WriteJSON(subscribeFrame{Topic: CanvasTopic}); err != nil {
		logrus.WithError(err).Warn("push channel subscribe failed")
		_ = conn.Close()
		c.handleDisconnect(generation)
		return
	}

	c.readLoop(conn, generation)
}

// readLoop parses inbound frames until the connection drops. Malformed
// frames are logged and dropped; they never take the channel down.
func (c *Channel) readLoop(conn *websocket.Conn, generation int) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stale := c.closed || generation != c.generation
			c.mu.Unlock()
			if stale {
				return
			}
			logrus.WithError(err).Warn("push channel read failed")
			_ = conn.Close()
			c.handleDisconnect(generation)
			return
		}

		var change core.ChangeNotification
		if err := json.Unmarshal(payload, &change); err != nil {
			logrus.WithError(err).Warn("dropping malformed push frame")
			continue
		}
		if !change.Valid() {
			logrus.WithField("type", change.Type).Warn("dropping incomplete push frame")
			continue
		}
		c.handler(change)
	}
}

// handleDisconnect runs the reconnect state machine after any drop:
// handshake failure, read error or remote close.
func (c *Channel) handleDisconnect(generation int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || generation != c.generation {
		return
	}
	c.conn = nil

	if c.attempts >= c.maxAttempts {
		c.state = GivenUp
		logrus.Error("push channel gave up after max reconnect attempts")
		c.givenUpOnce.Do(func() { close(c.givenUp) })
		return
	}

	c.attempts++
	wait := c.delay
	if wait > c.maxDelay {
		wait = c.maxDelay
	}
	c.delay = nextDelay(c.delay, c.maxDelay)
	c.state = ReconnectWait

	logrus.WithFields(logrus.Fields{
		"attempt": c.attempts,
		"max":     c.maxAttempts,
		"wait":    wait,
	}).Info("push channel reconnecting")

	c.reconnectTimer = time.AfterFunc(wait, func() {
		c.mu.Lock()
		if c.closed || generation != c.generation {
			c.mu.Unlock()
			return
		}
		c.state = Connecting
		c.mu.Unlock()
		c.dial(generation)
	})
}

// nextDelay advances the exponential backoff: the delay doubles per
// attempt and is capped at max.
func nextDelay(current, max time.Duration) time.Duration {
	next := current * backoffMultiplier
	if next > max {
		return max
	}
	return next
}
