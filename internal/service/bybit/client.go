package bybit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"OppRadar/internal/domain/models"
	domrepo "OppRadar/internal/domain/repository"
	xhttp "OppRadar/pkg/http"
	applogger "OppRadar/pkg/logger"

	"github.com/gorilla/websocket"
)

// subscribe requests are chunked; the exchange caps args per frame.
const argsPerRequest = 10

// ErrNotConnected is returned for writes attempted while the socket is down.
var ErrNotConnected = errors.New("bybit: not connected")

// Client implements a MarketStream backed by the Bybit v5 public linear
// WebSocket. One socket carries every subscribed ticker topic; partial
// updates are merged into per-symbol state before the tick handler runs.
type Client struct {
	wsURL         string
	restURL       string
	pingInterval  time.Duration
	reconnectBase time.Duration
	maxReconnects int

	rest *xhttp.Client
	l    *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	subs      map[string]struct{}
	tickers   map[string]*models.Ticker
	handler   domrepo.TickHandler
	cancel    context.CancelFunc
}

// Option configures the client.
type Option func(*Client)

// WithPingInterval sets the keepalive cadence.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

// WithReconnect sets the linear backoff base delay and the attempt cap.
func WithReconnect(base time.Duration, maxAttempts int) Option {
	return func(c *Client) {
		if base > 0 {
			c.reconnectBase = base
		}
		if maxAttempts > 0 {
			c.maxReconnects = maxAttempts
		}
	}
}

// WithLogger injects a structured logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.l = l }
}

// New creates a Bybit MarketStream.
func New(wsURL, restURL string, opts ...Option) *Client {
	c := &Client{
		wsURL:         wsURL,
		restURL:       restURL,
		pingInterval:  20 * time.Second,
		reconnectBase: 5 * time.Second,
		maxReconnects: 10,
		rest:          xhttp.NewClient(xhttp.WithTimeout(15 * time.Second)),
		subs:          make(map[string]struct{}),
		tickers:       make(map[string]*models.Ticker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnTick registers the single tick handler. Must be called before Connect.
func (c *Client) OnTick(h domrepo.TickHandler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// Connect dials the socket and starts the keepalive and read loops. It
// returns once the session is open or the dial fails.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("bybit connect: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.cancel = cancel
	c.mu.Unlock()

	if c.l != nil {
		c.l.Info("bybit: connected", applogger.String("url", c.wsURL))
	}

	go c.pingLoop(runCtx)
	go c.readLoop(runCtx)
	return nil
}

// Subscribe adds symbols to the desired set and, when connected, sends the
// subscribe frames. Idempotent; the set is re-sent after every reconnect.
func (c *Client) Subscribe(ctx context.Context, symbols ...string) error {
	c.mu.Lock()
	fresh := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := c.subs[s]; !ok {
			c.subs[s] = struct{}{}
			fresh = append(fresh, s)
		}
	}
	connected := c.connected
	c.mu.Unlock()

	if !connected || len(fresh) == 0 {
		return nil
	}
	return c.sendOp(ctx, "subscribe", fresh)
}

// Unsubscribe removes symbols from the desired set and unsubscribes from
// their topics. Idempotent.
func (c *Client) Unsubscribe(ctx context.Context, symbols ...string) error {
	c.mu.Lock()
	present := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := c.subs[s]; ok {
			delete(c.subs, s)
			delete(c.tickers, s)
			present = append(present, s)
		}
	}
	connected := c.connected
	c.mu.Unlock()

	if !connected || len(present) == 0 {
		return nil
	}
	return c.sendOp(ctx, "unsubscribe", present)
}

func (c *Client) sendOp(ctx context.Context, op string, symbols []string) error {
	for start := 0; start < len(symbols); start += argsPerRequest {
		end := start + argsPerRequest
		if end > len(symbols) {
			end = len(symbols)
		}
		args := make([]string, 0, end-start)
		for _, s := range symbols[start:end] {
			args = append(args, "tickers."+s)
		}
		if err := c.writeJSON(wsRequest{Op: op, Args: args}); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func (c *Client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(v)
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A failed write means the connection is down or mid-reconnect.
			// Skip the tick; keepalives resume once the session is back.
			if err := c.writeJSON(wsRequest{Op: "ping"}); err != nil {
				continue
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if c.l != nil {
				c.l.Warn("bybit: read error", applogger.Error(err))
			}
			c.reconnect(ctx)
			return
		}
		c.handleFrame(b)
	}
}

// reconnect retries with linear backoff (base delay times the attempt
// count). After maxReconnects consecutive failures it gives up: the stream
// is down until the service is restarted.
func (c *Client) reconnect(ctx context.Context) {
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.mu.Unlock()

	for attempt := 1; attempt <= c.maxReconnects; attempt++ {
		delay := c.reconnectBase * time.Duration(attempt)
		if c.l != nil {
			c.l.Warn("bybit: reconnecting",
				applogger.Int("attempt", attempt),
				applogger.String("delay", delay.String()),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
		if err != nil {
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.connected = true
		resub := make([]string, 0, len(c.subs))
		for s := range c.subs {
			resub = append(resub, s)
		}
		c.mu.Unlock()

		if err := c.sendOp(ctx, "subscribe", resub); err != nil {
			c.mu.Lock()
			_ = c.conn.Close()
			c.conn = nil
			c.connected = false
			c.mu.Unlock()
			continue
		}
		if c.l != nil {
			c.l.Info("bybit: reconnected", applogger.Int("symbols", len(resub)))
		}
		go c.readLoop(ctx)
		return
	}

	if c.l != nil {
		// The API and any in-flight analysis keep running without the feed.
		c.l.Error("bybit: reconnect attempts exhausted, ingestion halted",
			applogger.Int("attempts", c.maxReconnects),
		)
	}
}

// handleFrame merges a ticker frame into per-symbol state and dispatches the
// tick handler once both price and turnover have been seen.
func (c *Client) handleFrame(b []byte) {
	upd, ok := parseTickerFrame(b)
	if !ok {
		return
	}

	c.mu.Lock()
	tk, exists := c.tickers[upd.Symbol]
	if !exists {
		tk = &models.Ticker{}
		c.tickers[upd.Symbol] = tk
	}
	tk.Apply(upd)
	complete := tk.Complete()
	state := *tk
	handler := c.handler
	c.mu.Unlock()

	if complete && handler != nil {
		handler(upd.Symbol, state)
	}
}

// Close releases the socket and stops the loops.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

var _ domrepo.MarketStream = (*Client)(nil)
