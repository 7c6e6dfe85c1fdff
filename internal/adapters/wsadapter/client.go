// Package wsadapter is a concrete, if thin, example of a live
// DataClient/ExecutionClient transport over gorilla/websocket: enough
// connection lifecycle and reconnect-backoff machinery to show how an
// adapter plugs into the engine. The wire schema it speaks is a
// stand-in (JSON envelopes carrying the engine's own Record encoding)
// rather than any particular venue's real protocol, which is out of
// scope.
//
// Grounded on web3guy0-polybot's internal/polymarket WSClient: same
// connected-flag-under-mutex shape, same read-loop-plus-reconnect
// pattern. The fixed 5-second retry there is replaced with exponential
// backoff and jitter, since a single flat retry interval hammers a
// venue that is down for longer than that.
package wsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rishav/algo-engine/internal/adapters"
	"github.com/rishav/algo-engine/internal/apperrors"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/rishav/algo-engine/internal/serialization"
	"github.com/rs/zerolog"
)

// Config configures the adapter's target and reconnect behavior.
type Config struct {
	URL               string
	ReconnectMinDelay time.Duration
	ReconnectMaxDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.ReconnectMinDelay <= 0 {
		c.ReconnectMinDelay = time.Second
	}
	if c.ReconnectMaxDelay <= 0 {
		c.ReconnectMaxDelay = 30 * time.Second
	}
	return c
}

// Client implements adapters.DataClient and adapters.ExecutionClient
// over a single websocket connection, matching the wire envelope
// internal/serialization produces for commands and events.
type Client struct {
	cfg    Config
	log    zerolog.Logger
	mu     sync.RWMutex
	conn   *websocket.Conn
	closed bool

	dataCb  adapters.DataCallback
	eventCb adapters.EventCallback

	subscribed      map[string]bool
	reconnectDelay  time.Duration
	stopCh          chan struct{}
}

// New builds an adapter client. Connect must be called before any
// subscribe/submit/request operation.
func New(cfg Config, log zerolog.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:            cfg,
		log:            log.With().Str("component", "wsadapter").Logger(),
		subscribed:     make(map[string]bool),
		reconnectDelay: cfg.ReconnectMinDelay,
		stopCh:         make(chan struct{}),
	}
}

// Connect dials the venue and starts the read loop. Calling Connect
// while already connected is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}
	if err := c.dial(ctx); err != nil {
		return err
	}
	go c.readLoop()
	return nil
}

// dial establishes the socket without starting a new read loop, so a
// reconnect from inside an already-running readLoop can swap the
// connection out from under it without racing a second reader.
func (c *Client) dial(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.KindAdapter, "dial "+c.cfg.URL, err)
	}
	c.conn = conn
	c.reconnectDelay = c.cfg.ReconnectMinDelay
	return nil
}

func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.stopCh)
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil
}

func (c *Client) OnData(cb adapters.DataCallback)   { c.mu.Lock(); c.dataCb = cb; c.mu.Unlock() }
func (c *Client) OnEvent(cb adapters.EventCallback) { c.mu.Lock(); c.eventCb = cb; c.mu.Unlock() }

var (
	_ adapters.DataClient      = (*Client)(nil)
	_ adapters.ExecutionClient = (*Client)(nil)
)

// readLoop pumps frames off the socket until it errors or Disconnect
// is called, reconnecting with exponential backoff and jitter on an
// unexpected drop.
func (c *Client) readLoop() {
	for {
		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopCh:
				return
			default:
			}
			c.log.Warn().Err(err).Msg("websocket read failed, reconnecting")
			c.handleDisconnect()
			continue
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn().Err(err).Msg("malformed adapter frame")
		return
	}

	switch env.Kind {
	case frameKindEvent:
		evt, err := serialization.DecodeEvent(env.Payload)
		if err != nil {
			c.log.Warn().Err(err).Msg("undecodable event frame")
			return
		}
		c.mu.RLock()
		cb := c.eventCb
		c.mu.RUnlock()
		if cb != nil {
			cb(evt)
		}
	case frameKindQuote, frameKindTrade, frameKindBar:
		c.mu.RLock()
		cb := c.dataCb
		c.mu.RUnlock()
		if cb != nil {
			cb(env.Payload)
		}
	default:
		c.log.Warn().Str("kind", env.Kind).Msg("unknown adapter frame kind")
	}
}

// handleDisconnect drops the dead connection and redials with backoff,
// doubling the delay each attempt up to ReconnectMaxDelay and jittering
// by up to 20% to avoid a thundering herd against a recovering venue.
// It keeps retrying until it reconnects or Disconnect is called.
func (c *Client) handleDisconnect() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	for {
		delay := c.nextDelay()
		select {
		case <-time.After(delay):
		case <-c.stopCh:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.dial(ctx)
		cancel()
		if err != nil {
			c.log.Error().Err(err).Dur("retry_in", delay).Msg("reconnect failed")
			continue
		}
		break
	}

	c.log.Info().Msg("reconnected, re-subscribing")
	c.mu.Lock()
	subs := make([]string, 0, len(c.subscribed))
	for k := range c.subscribed {
		subs = append(subs, k)
	}
	c.subscribed = make(map[string]bool)
	c.mu.Unlock()
	for _, key := range subs {
		c.resend(key)
	}
}

func (c *Client) nextDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.reconnectDelay
	jitter := time.Duration(rand.Int63n(int64(d) / 5 + 1))
	next := c.reconnectDelay * 2
	if next > c.cfg.ReconnectMaxDelay {
		next = c.cfg.ReconnectMaxDelay
	}
	c.reconnectDelay = next
	return d + jitter
}

func (c *Client) resend(subscriptionKey string) {
	c.send(envelope{Kind: frameKindSubscribe, Payload: []byte(subscriptionKey)})
}

func (c *Client) send(env envelope) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return apperrors.New(apperrors.KindAdapter, "not connected")
	}
	data, err := json.Marshal(env)
	if err != nil {
		return apperrors.Wrap(apperrors.KindSerialization, "marshal adapter frame", err)
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

const (
	frameKindEvent     = "EVENT"
	frameKindQuote     = "QUOTE"
	frameKindTrade     = "TRADE"
	frameKindBar       = "BAR"
	frameKindSubscribe = "SUBSCRIBE"
	frameKindCommand   = "COMMAND"
)

type envelope struct {
	Kind    string `json:"kind"`
	Payload []byte `json:"payload"`
}

func subscriptionKey(prefix string, inst model.InstrumentID) string {
	return fmt.Sprintf("%s:%s.%s", prefix, inst.Symbol, inst.Venue)
}
