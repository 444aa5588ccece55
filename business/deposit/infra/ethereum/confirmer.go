package ethereum

import (
	"context"
	"encoding/json"

	"github.com/fd1az/lp-deposit/internal/logger"
	"github.com/fd1az/lp-deposit/internal/wsconn"
)

// Confirmer subscribes to newHeads over the node's WebSocket endpoint
// and signals each new block, letting receipt polling re-check as soon
// as a block lands instead of waiting out its polling interval. It is
// an optimization only: the wallet degrades to pure polling when the
// confirmer is absent or its connection drops.
type Confirmer struct {
	ws     *wsconn.Client
	heads  chan struct{}
	logger logger.LoggerInterface
}

type subscriptionNotice struct {
	Method string `json:"method"`
}

// NewConfirmer creates a new-block signal source for the given
// WebSocket URL.
func NewConfirmer(wsURL string, log logger.LoggerInterface) (*Confirmer, error) {
	ws, err := wsconn.New(wsconn.DefaultConfig(wsURL, "newheads"))
	if err != nil {
		return nil, err
	}

	c := &Confirmer{
		ws:     ws,
		heads:  make(chan struct{}, 1),
		logger: log,
	}

	ws.OnMessage(c.handleMessage)
	ws.OnStateChange(func(state wsconn.State, err error) {
		switch state {
		case wsconn.StateConnected:
			// Covers both the initial connect and every reconnect;
			// the subscription does not survive a dropped connection.
			c.subscribe(context.Background())
		case wsconn.StateReconnecting, wsconn.StateDisconnected:
			log.Warn(context.Background(), "newHeads subscription interrupted",
				"state", string(state), "error", err)
		}
	})

	return c, nil
}

// Start connects and subscribes to newHeads.
func (c *Confirmer) Start(ctx context.Context) error {
	return c.ws.Connect(ctx)
}

// Heads returns the new-block signal channel. The channel is a
// conflated edge trigger: consecutive blocks may coalesce into one
// signal.
func (c *Confirmer) Heads() <-chan struct{} {
	return c.heads
}

// Close tears down the subscription.
func (c *Confirmer) Close() error {
	return c.ws.Close()
}

func (c *Confirmer) subscribe(ctx context.Context) {
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "eth_subscribe",
		"params":  []string{"newHeads"},
	}
	if err := c.ws.SendJSON(ctx, req); err != nil {
		c.logger.Warn(ctx, "newHeads subscribe failed", "error", err)
	}
}

func (c *Confirmer) handleMessage(ctx context.Context, msg []byte) {
	var notice subscriptionNotice
	if err := json.Unmarshal(msg, &notice); err != nil {
		return
	}
	if notice.Method != "eth_subscription" {
		// Subscription confirmation or an unrelated response.
		return
	}

	select {
	case c.heads <- struct{}{}:
	default:
		// A signal is already pending; the next wake covers this block.
	}
}
