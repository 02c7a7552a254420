// Package stream is the WebSocket client for real-time market data:
// auto-reconnect with doubling backoff, subscription replay on reconnect,
// heartbeat ping/pong, and typed per-feed channels.
package stream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/o2-exchange/sdk-go/params"
	"github.com/o2-exchange/sdk-go/pkg/apierr"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

// State is the connection lifecycle state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
	Terminated
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// LifecycleEvent reports connection transitions out-of-band from the data
// feeds. Final is set on the last event a connection will ever emit.
type LifecycleEvent struct {
	State   State
	Attempt int
	Delay   time.Duration
	Reason  string
	Final   bool
}

// Options configures a Conn. Zero durations fall back to the defaults in
// params.DefaultStream.
type Options struct {
	URL    string
	Stream params.Stream
	Dialer *websocket.Dialer
	Log    *zap.Logger
}

const (
	subscriberBuffer = 256
	lifecycleBuffer  = 64
)

type subscription struct {
	action  string
	key     string
	payload []byte
}

// Conn is a WebSocket connection with automatic reconnection. Data is
// fanned out to typed subscriber channels; a full subscriber channel
// drops the frame rather than stalling the read loop. On terminal loss
// all data channels are closed and Err returns a DisconnectedError.
type Conn struct {
	opts   Options
	dialer *websocket.Dialer
	log    *zap.Logger

	state atomic.Int32
	done  chan struct{}
	once  sync.Once

	lifecycle chan LifecycleEvent

	// writeMu serializes text writes; gorilla allows one writer at a time.
	writeMu sync.Mutex

	mu       sync.Mutex
	ws       *websocket.Conn
	subs     []subscription
	depth    []chan types.DepthUpdate
	orders   []chan types.OrderUpdate
	trades   []chan types.TradeUpdate
	balances []chan types.BalanceUpdate
	nonces   []chan types.NonceUpdate
	closed   bool
	err      error
}

// Dial connects to the WebSocket endpoint and starts the read and
// heartbeat loops. The context bounds the initial dial only; the
// connection outlives it.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	def := params.DefaultStream()
	if opts.Stream.ReconnectDelay == 0 {
		opts.Stream.ReconnectDelay = def.ReconnectDelay
	}
	if opts.Stream.MaxReconnectDelay == 0 {
		opts.Stream.MaxReconnectDelay = def.MaxReconnectDelay
	}
	if opts.Stream.PingInterval == 0 {
		opts.Stream.PingInterval = def.PingInterval
	}
	if opts.Stream.PongTimeout == 0 {
		opts.Stream.PongTimeout = def.PongTimeout
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	c := &Conn{
		opts:      opts,
		dialer:    dialer,
		log:       log,
		done:      make(chan struct{}),
		lifecycle: make(chan LifecycleEvent, lifecycleBuffer),
	}
	c.state.Store(int32(Connecting))

	ws, _, err := dialer.DialContext(ctx, opts.URL, nil)
	if err != nil {
		c.state.Store(int32(Terminated))
		return nil, fmt.Errorf("dial %s: %w", opts.URL, err)
	}
	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()
	c.state.Store(int32(Connected))

	go c.run(ws)
	return c, nil
}

// State returns the current lifecycle state.
func (c *Conn) State() State { return State(c.state.Load()) }

// Err returns the terminal error after the connection is lost for good,
// nil while the connection is live or still retrying.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Lifecycle returns the event channel. Events are dropped, not queued,
// once the buffer is full.
func (c *Conn) Lifecycle() <-chan LifecycleEvent { return c.lifecycle }

// Disconnect closes the connection and stops reconnecting. All data
// channels are closed. Safe to call more than once.
func (c *Conn) Disconnect() error {
	c.once.Do(func() {
		close(c.done)
		c.state.Store(int32(Terminated))

		c.mu.Lock()
		if c.ws != nil {
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = c.ws.Close()
		}
		c.closeSubscribersLocked(nil)
		c.mu.Unlock()

		c.emit(LifecycleEvent{State: Terminated, Reason: "explicit disconnect", Final: true})
	})
	return nil
}

func (c *Conn) stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Conn) emit(ev LifecycleEvent) {
	select {
	case c.lifecycle <- ev:
	default:
	}
}

// run drives one connection's read loop, then reconnects until the
// attempt limit is exhausted or Disconnect is called.
func (c *Conn) run(ws *websocket.Conn) {
	pingStop := c.startHeartbeat(ws)
	c.readLoop(ws)
	close(pingStop)

	delay := c.opts.Stream.ReconnectDelay
	attempts := 0

	for !c.stopped() {
		max := c.opts.Stream.MaxReconnectAttempts
		if max > 0 && attempts >= max {
			c.terminate(fmt.Sprintf("connection lost after %d reconnect attempts", attempts))
			return
		}
		attempts++
		c.state.Store(int32(Reconnecting))
		c.emit(LifecycleEvent{State: Reconnecting, Attempt: attempts, Delay: delay})

		select {
		case <-time.After(delay):
		case <-c.done:
			return
		}

		next, _, err := c.dialer.Dial(c.opts.URL, nil)
		if err != nil {
			c.log.Debug("reconnect failed",
				zap.Int("attempt", attempts),
				zap.Duration("delay", delay),
				zap.Error(err))
			delay *= 2
			if delay > c.opts.Stream.MaxReconnectDelay {
				delay = c.opts.Stream.MaxReconnectDelay
			}
			continue
		}

		if c.stopped() {
			next.Close()
			return
		}

		c.mu.Lock()
		c.ws = next
		replay := make([]subscription, len(c.subs))
		copy(replay, c.subs)
		c.mu.Unlock()

		c.writeMu.Lock()
		for _, sub := range replay {
			if err := next.WriteMessage(websocket.TextMessage, sub.payload); err != nil {
				break
			}
		}
		c.writeMu.Unlock()

		c.state.Store(int32(Connected))
		c.emit(LifecycleEvent{State: Connected, Attempt: attempts})
		delay = c.opts.Stream.ReconnectDelay
		attempts = 0

		pingStop = c.startHeartbeat(next)
		c.readLoop(next)
		close(pingStop)
	}
}

func (c *Conn) terminate(reason string) {
	c.state.Store(int32(Terminated))
	c.mu.Lock()
	c.closeSubscribersLocked(&apierr.DisconnectedError{Reason: reason})
	c.mu.Unlock()
	c.emit(LifecycleEvent{State: Terminated, Reason: reason, Final: true})
}

// closeSubscribersLocked closes every data channel once. err, when set,
// becomes the value Err reports.
func (c *Conn) closeSubscribersLocked(err error) {
	if c.closed {
		return
	}
	c.closed = true
	if err != nil && c.err == nil {
		c.err = err
	}
	for _, ch := range c.depth {
		close(ch)
	}
	for _, ch := range c.orders {
		close(ch)
	}
	for _, ch := range c.trades {
		close(ch)
	}
	for _, ch := range c.balances {
		close(ch)
	}
	for _, ch := range c.nonces {
		close(ch)
	}
}

// startHeartbeat pings on an interval and enforces the pong deadline via
// the read deadline; a silent peer fails the next read.
func (c *Conn) startHeartbeat(ws *websocket.Conn) chan struct{} {
	pongTimeout := c.opts.Stream.PongTimeout
	_ = ws.SetReadDeadline(time.Now().Add(pongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(c.opts.Stream.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-stop:
				return
			case <-c.done:
				return
			}
		}
	}()
	return stop
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	defer ws.Close()
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if !c.stopped() && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("read loop ended", zap.Error(err))
			}
			return
		}
		c.dispatch(msg)
	}
}

func (c *Conn) dispatch(msg []byte) {
	var env struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(msg, &env); err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	switch env.Action {
	case "subscribe_depth", "subscribe_depth_update":
		var update types.DepthUpdate
		if json.Unmarshal(msg, &update) == nil {
			for _, ch := range c.depth {
				sendOrDrop(ch, update)
			}
		}
	case "subscribe_orders":
		var update types.OrderUpdate
		if json.Unmarshal(msg, &update) == nil {
			for _, ch := range c.orders {
				sendOrDrop(ch, update)
			}
		}
	case "subscribe_trades":
		var update types.TradeUpdate
		if json.Unmarshal(msg, &update) == nil {
			for _, ch := range c.trades {
				sendOrDrop(ch, update)
			}
		}
	case "subscribe_balances":
		var update types.BalanceUpdate
		if json.Unmarshal(msg, &update) == nil {
			for _, ch := range c.balances {
				sendOrDrop(ch, update)
			}
		}
	case "subscribe_nonce":
		var update types.NonceUpdate
		if json.Unmarshal(msg, &update) == nil {
			for _, ch := range c.nonces {
				sendOrDrop(ch, update)
			}
		}
	}
}

func sendOrDrop[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
