// Package wsconn provides a production-grade WebSocket client with
// automatic reconnection and exponential backoff.
package wsconn

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// MessageHandler receives every inbound message.
type MessageHandler func(ctx context.Context, msg []byte)

// StateChangeHandler is notified on every state transition. err is
// non-nil when the transition was caused by a failure.
type StateChangeHandler func(state State, err error)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string // identifies the connection in errors
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64 // 0 = library default
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0, // infinite
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
	}
}

// Client is a WebSocket client that keeps itself connected until
// closed. One read goroutine delivers messages to the OnMessage handler
// and the Messages channel; writes are serialized internally so Send
// and SendJSON are safe for concurrent use.
type Client struct {
	config Config

	stateMu sync.RWMutex
	state   State

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	onMessage     MessageHandler
	onStateChange StateChangeHandler

	messages chan []byte

	lifetime context.Context
	cancel   context.CancelFunc
	closeMu  sync.Mutex
	closed   bool
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("wsconn %s: URL is required", config.Name)
	}

	lifetime, cancel := context.WithCancel(context.Background())
	return &Client{
		config:   config,
		state:    StateDisconnected,
		messages: make(chan []byte, 100),
		lifetime: lifetime,
		cancel:   cancel,
	}, nil
}

// OnMessage installs the inbound message handler. Must be called
// before Connect.
func (c *Client) OnMessage(h MessageHandler) {
	c.onMessage = h
}

// OnStateChange installs the state transition handler. Must be called
// before Connect.
func (c *Client) OnStateChange(h StateChangeHandler) {
	c.onStateChange = h
}

// Connect establishes the WebSocket connection and starts the read and
// ping loops. Subsequent disconnects trigger automatic reconnection.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting, nil)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected, err)
		return fmt.Errorf("wsconn %s: connect: %w", c.config.Name, err)
	}

	c.setConn(conn)
	c.setState(StateConnected, nil)

	go c.readLoop()
	if c.config.PingInterval > 0 {
		go c.pingLoop()
	}
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return nil, err
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}
	return conn, nil
}

// Send writes a text message.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	conn := c.getConn()
	if conn == nil {
		return fmt.Errorf("wsconn %s: not connected", c.config.Name)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return fmt.Errorf("wsconn %s: write: %w", c.config.Name, err)
	}
	return nil
}

// SendJSON marshals v and sends it as a text message.
func (c *Client) SendJSON(ctx context.Context, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wsconn %s: marshal: %w", c.config.Name, err)
	}
	return c.Send(ctx, data)
}

// Messages returns the channel for receiving messages. Messages are
// dropped when the channel is full; installing an OnMessage handler
// avoids the buffer entirely.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the connection is currently established.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close gracefully closes the connection. Idempotent.
func (c *Client) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	c.cancel()
	if conn := c.getConn(); conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client closing")
	}
	c.setState(StateClosed, nil)
	return nil
}

func (c *Client) isClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

func (c *Client) readLoop() {
	for {
		conn := c.getConn()
		if conn == nil {
			return
		}

		_, data, err := conn.Read(c.lifetime)
		if err != nil {
			if c.isClosed() {
				return
			}
			c.reconnect(err)
			return
		}

		if c.onMessage != nil {
			c.onMessage(c.lifetime, data)
		}
		select {
		case c.messages <- data:
		default:
			// Buffer full; the consumer is behind, drop the message.
		}
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.lifetime.Done():
			return
		case <-ticker.C:
			conn := c.getConn()
			if conn == nil || c.State() != StateConnected {
				continue
			}
			ctx, cancel := context.WithTimeout(c.lifetime, c.config.PongTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil && !c.isClosed() {
				_ = conn.Close(websocket.StatusGoingAway, "ping timeout")
			}
		}
	}
}

// reconnect re-establishes the connection with exponential backoff and
// restarts the read loop on success.
func (c *Client) reconnect(cause error) {
	c.setState(StateReconnecting, cause)

	backoff := c.config.InitialBackoff
	for attempt := 1; ; attempt++ {
		if c.isClosed() {
			return
		}
		if c.config.MaxReconnects > 0 && attempt > c.config.MaxReconnects {
			c.setState(StateDisconnected,
				fmt.Errorf("wsconn %s: gave up after %d reconnect attempts", c.config.Name, c.config.MaxReconnects))
			return
		}

		select {
		case <-c.lifetime.Done():
			return
		case <-time.After(backoff):
		}

		conn, err := c.dial(c.lifetime)
		if err == nil {
			c.setConn(conn)
			c.setState(StateConnected, nil)
			go c.readLoop()
			return
		}

		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}
}

func (c *Client) getConn() *websocket.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

func (c *Client) setState(state State, err error) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()

	if c.onStateChange != nil {
		c.onStateChange(state, err)
	}
}
