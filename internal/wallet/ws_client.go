package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"aurora-assets/internal/observability"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is the first pause after a dropped connection. It doubles
	// up to MaxReconnectDelay while dialing keeps failing.
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration

	// PingInterval is the keepalive period. A connection that produces no
	// message or pong within ReadTimeout is considered dead.
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// SubscribeTimeout bounds the wait for a subscription id.
	SubscribeTimeout time.Duration

	// Logger receives connection events. Nil disables logging.
	Logger *log.Logger
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    500 * time.Millisecond,
		MaxReconnectDelay: 15 * time.Second,
		PingInterval:      20 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  15 * time.Second,
	}
}

// SignatureNotification reports that a subscribed signature landed.
type SignatureNotification struct {
	Signature string
	Slot      int64
	Err       interface{}
}

// watcher is one caller waiting for one signature.
type watcher struct {
	signature string
	ch        chan SignatureNotification
}

type ack struct {
	subID int64
	err   error
}

// pendingAck is a subscribe request waiting for its subscription id.
type pendingAck struct {
	w      *watcher
	result chan ack
}

// WSClient watches transaction signatures over a JSON-RPC WebSocket.
// Each subscription yields at most one notification, then its channel closes.
// A dropped connection is re-dialed and every open watcher re-subscribed.
type WSClient struct {
	endpoint string
	config   WSClientConfig
	dialer   websocket.Dialer

	// mu guards conn, watchers and acks.
	mu       sync.Mutex
	conn     *websocket.Conn
	watchers map[int64]*watcher
	acks     map[uint64]*pendingAck

	// writeMu serializes frames; gorilla allows a single concurrent writer.
	writeMu sync.Mutex

	nextID atomic.Uint64
	closed atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewWSClient dials endpoint and starts the read and keepalive loops.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClient{
		endpoint: endpoint,
		config:   cfg,
		dialer:   websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		watchers: make(map[int64]*watcher),
		acks:     make(map[uint64]*pendingAck),
		done:     make(chan struct{}),
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	c.wg.Add(2)
	go c.run()
	go c.keepalive()

	return c, nil
}

func (c *WSClient) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})
	return conn, nil
}

// SubscribeSignature subscribes to the confirmation of signature. The
// returned channel delivers one notification and is then closed; it is also
// closed by Unsubscribe and Close.
func (c *WSClient) SubscribeSignature(ctx context.Context, signature string) (<-chan SignatureNotification, error) {
	w := &watcher{signature: signature, ch: make(chan SignatureNotification, 1)}
	if err := c.subscribe(ctx, w); err != nil {
		return nil, err
	}
	return w.ch, nil
}

// subscribe sends signatureSubscribe for w and waits for its id. The read
// loop registers w before it reads the next frame, so a notification that
// follows the ack immediately is not lost.
func (c *WSClient) subscribe(ctx context.Context, w *watcher) error {
	if c.closed.Load() {
		return ErrClosed
	}

	id := c.nextID.Add(1)
	result := make(chan ack, 1)
	c.mu.Lock()
	c.acks[id] = &pendingAck{w: w, result: result}
	c.mu.Unlock()

	abandon := func() {
		c.mu.Lock()
		delete(c.acks, id)
		c.mu.Unlock()
	}

	err := c.write(rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "signatureSubscribe",
		Params:  []interface{}{w.signature, map[string]string{"commitment": "confirmed"}},
	})
	if err != nil {
		abandon()
		return fmt.Errorf("write subscribe: %w", err)
	}

	timer := time.NewTimer(c.config.SubscribeTimeout)
	defer timer.Stop()

	select {
	case res, ok := <-result:
		if !ok {
			return ErrClosed
		}
		return res.err
	case <-timer.C:
		abandon()
		return fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		abandon()
		return ctx.Err()
	}
}

// Unsubscribe drops the watcher for signature, closes its channel and tells
// the node. Unknown signatures are ignored.
func (c *WSClient) Unsubscribe(signature string) error {
	c.mu.Lock()
	var subID int64
	var found *watcher
	for id, w := range c.watchers {
		if w.signature == signature {
			subID, found = id, w
			delete(c.watchers, id)
			break
		}
	}
	c.mu.Unlock()

	if found == nil {
		return nil
	}
	close(found.ch)

	return c.write(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  "signatureUnsubscribe",
		Params:  []interface{}{subID},
	})
}

// Close closes the connection and every open subscription channel.
func (c *WSClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	for id, w := range c.watchers {
		close(w.ch)
		delete(c.watchers, id)
	}
	for id, p := range c.acks {
		close(p.result)
		delete(c.acks, id)
	}
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		conn.Close()
	}

	c.wg.Wait()
	return nil
}

func (c *WSClient) write(v interface{}) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		if c.closed.Load() {
			return ErrClosed
		}
		return errors.New("not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return conn.WriteJSON(v)
}

// watch registers w under subID unless the client is closed.
func (c *WSClient) watch(subID int64, w *watcher) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return false
	}
	c.watchers[subID] = w
	return true
}

// run reads until the client closes, re-dialing whenever the connection drops.
func (c *WSClient) run() {
	defer c.wg.Done()

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		err := c.readAll(conn)
		if c.closed.Load() {
			return
		}
		c.logf("connection lost: %v", err)
		conn.Close()

		if !c.redial() {
			return
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.resubscribe()
		}()
	}
}

// readAll dispatches messages from conn until a read fails.
func (c *WSClient) readAll(conn *websocket.Conn) error {
	for {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		start := time.Now()
		c.handleMessage(message)
		observability.RecordWSMessage(time.Since(start).Seconds())
	}
}

// redial replaces the connection, backing off between failures. Returns
// false if the client closed first.
func (c *WSClient) redial() bool {
	delay := c.config.ReconnectDelay
	for {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.dialer.HandshakeTimeout)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			c.logf("reconnect: %v", err)
			delay = min(delay*2, c.config.MaxReconnectDelay)
			continue
		}

		c.mu.Lock()
		if c.closed.Load() {
			c.mu.Unlock()
			conn.Close()
			return false
		}
		c.conn = conn
		c.mu.Unlock()
		c.logf("reconnected to %s", c.endpoint)
		return true
	}
}

// resubscribe moves every open watcher to a subscription on the new connection.
func (c *WSClient) resubscribe() {
	c.mu.Lock()
	stale := make(map[int64]*watcher, len(c.watchers))
	for id, w := range c.watchers {
		stale[id] = w
		delete(c.watchers, id)
	}
	c.mu.Unlock()

	for oldID, w := range stale {
		ctx, cancel := context.WithTimeout(context.Background(), c.config.SubscribeTimeout)
		err := c.subscribe(ctx, w)
		cancel()
		if err != nil {
			c.logf("resubscribe %.12s: %v", w.signature, err)
			// Keep it so Close still releases the channel.
			if !c.watch(oldID, w) {
				close(w.ch)
			}
		}
	}
}

func (c *WSClient) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logf("malformed message: %v", err)
		return
	}

	switch {
	case msg.Method == "signatureNotification" && msg.Params != nil:
		c.deliver(msg.Params)
	case msg.ID != nil && msg.Error != nil:
		c.resolve(*msg.ID, ack{err: msg.Error})
	case msg.ID != nil && len(msg.Result) > 0:
		var subID int64
		if err := json.Unmarshal(msg.Result, &subID); err != nil {
			// unsubscribe acks carry a bool
			return
		}
		c.resolve(*msg.ID, ack{subID: subID})
	}
}

// resolve registers the watcher on success and wakes its subscriber.
func (c *WSClient) resolve(id uint64, res ack) {
	c.mu.Lock()
	p, ok := c.acks[id]
	delete(c.acks, id)
	if ok && res.err == nil {
		if c.closed.Load() {
			res.err = ErrClosed
		} else {
			c.watchers[res.subID] = p.w
		}
	}
	c.mu.Unlock()

	if ok {
		p.result <- res
	}
}

// deliver hands the single notification to its watcher.
func (c *WSClient) deliver(params *wsNotificationParams) {
	var value wsSignatureValue
	if err := json.Unmarshal(params.Result.Value, &value); err != nil {
		// "receivedSignature" strings are not confirmations
		return
	}

	c.mu.Lock()
	w, ok := c.watchers[params.Subscription]
	delete(c.watchers, params.Subscription)
	c.mu.Unlock()
	if !ok {
		return
	}

	notif := SignatureNotification{Signature: w.signature, Err: value.Err}
	if params.Result.Context != nil {
		notif.Slot = params.Result.Context.Slot
	}
	w.ch <- notif
	close(w.ch)
}

func (c *WSClient) keepalive() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				continue
			}
			c.writeMu.Lock()
			// A dead connection surfaces as a read error in run.
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.config.WriteTimeout))
			c.writeMu.Unlock()
		}
	}
}

func (c *WSClient) logf(format string, args ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Printf(format, args...)
	}
}

type wsMessage struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      *uint64               `json:"id"`
	Method  string                `json:"method"`
	Result  json.RawMessage       `json:"result"`
	Error   *rpcError             `json:"error"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext      `json:"context"`
	Value   json.RawMessage `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsSignatureValue struct {
	Err interface{} `json:"err"`
}
