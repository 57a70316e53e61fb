package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrClientClosed is returned by operations on a closed WebSocket client.
var ErrClientClosed = errors.New("client closed")

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription acknowledgement.
	SubscribeTimeout time.Duration
	// Logger receives connection and error-response events. Defaults to a no-op logger.
	Logger *zap.Logger
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  10 * time.Second,
	}
}

// signatureSub is one live signatureSubscribe subscription.
type signatureSub struct {
	signature  string
	commitment Commitment
	ch         chan SignatureNotification
	once       sync.Once
}

func (s *signatureSub) deliver(n SignatureNotification) {
	s.once.Do(func() {
		s.ch <- n
		close(s.ch)
	})
}

func (s *signatureSub) cancel() {
	s.once.Do(func() { close(s.ch) })
}

// subscribeReply carries a subscription id or the server's error.
type subscribeReply struct {
	subID int64
	err   error
}

// pendingSub is a subscribe request awaiting its acknowledgement.
type pendingSub struct {
	sub   *signatureSub
	reply chan subscribeReply
}

// WSClientImpl implements WSClient using gorilla/websocket.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	log      *zap.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to its subscriber
	subs   map[int64]*signatureSub
	subsMu sync.Mutex

	// pendingSubs maps request ID to the subscriber waiting for its subscription ID
	pendingSubs   map[uint64]pendingSub
	pendingSubsMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

var _ WSClient = (*WSClientImpl)(nil)

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = DefaultWSConfig().SubscribeTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	c := &WSClientImpl{
		endpoint:    endpoint,
		config:      cfg,
		log:         log.Named("solana-ws"),
		subs:        make(map[int64]*signatureSub),
		pendingSubs: make(map[uint64]pendingSub),
		done:        make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// connect establishes WebSocket connection.
func (c *WSClientImpl) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// SubscribeSignature subscribes to confirmation of signature at the given commitment.
// The subscription is dropped when ctx is done before a notification arrives.
func (c *WSClientImpl) SubscribeSignature(ctx context.Context, signature string, commitment Commitment) (<-chan SignatureNotification, error) {
	sub := &signatureSub{
		signature:  signature,
		commitment: commitment,
		ch:         make(chan SignatureNotification, 1),
	}

	subID, err := c.subscribe(ctx, sub)
	if err != nil {
		return nil, err
	}

	go c.releaseOnDone(ctx, subID, sub)

	return sub.ch, nil
}

// releaseOnDone removes an undelivered subscription once its context ends.
func (c *WSClientImpl) releaseOnDone(ctx context.Context, subID int64, sub *signatureSub) {
	select {
	case <-ctx.Done():
	case <-c.done:
		return
	}

	c.subsMu.Lock()
	current, ok := c.subs[subID]
	if ok && current == sub {
		delete(c.subs, subID)
	}
	c.subsMu.Unlock()

	if ok && current == sub {
		sub.cancel()
		c.send(wsRequest{
			JSONRPC: "2.0",
			ID:      c.requestID.Add(1),
			Method:  "signatureUnsubscribe",
			Params:  []interface{}{subID},
		})
	}
}

// subscribe sends signatureSubscribe and waits for the subscription id.
// The read loop registers sub under the new id before acknowledging, so a
// notification that immediately follows the acknowledgement is not lost.
func (c *WSClientImpl) subscribe(ctx context.Context, sub *signatureSub) (int64, error) {
	if c.closed.Load() {
		return 0, ErrClientClosed
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			sub.signature,
			map[string]string{"commitment": string(sub.commitment)},
		},
	}

	replyCh := make(chan subscribeReply, 1)
	c.pendingSubsMu.Lock()
	c.pendingSubs[reqID] = pendingSub{sub: sub, reply: replyCh}
	c.pendingSubsMu.Unlock()

	removePending := func() {
		c.pendingSubsMu.Lock()
		delete(c.pendingSubs, reqID)
		c.pendingSubsMu.Unlock()
	}

	if err := c.send(req); err != nil {
		removePending()
		return 0, err
	}

	timer := time.NewTimer(c.config.SubscribeTimeout)
	defer timer.Stop()

	select {
	case reply, ok := <-replyCh:
		if !ok {
			return 0, ErrClientClosed
		}
		return reply.subID, reply.err
	case <-timer.C:
		removePending()
		return 0, fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return 0, ErrClientClosed
	case <-ctx.Done():
		removePending()
		return 0, ctx.Err()
	}
}

// send writes one request on the current connection.
func (c *WSClientImpl) send(req wsRequest) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write %s: %w", req.Method, err)
	}
	return nil
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.subsMu.Lock()
	for id, sub := range c.subs {
		sub.cancel()
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	c.pendingSubsMu.Lock()
	for id, p := range c.pendingSubs {
		close(p.reply)
		delete(c.pendingSubs, id)
	}
	c.pendingSubsMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				c.log.Warn("connection lost, reconnecting", zap.Error(err), zap.Duration("delay", reconnectDelay))
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect attempts to reconnect and resubscribe.
func (c *WSClientImpl) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		// Retried on the next read error
		c.log.Warn("reconnect failed", zap.Error(err))
		return
	}

	c.resubscribeAll()
}

// resubscribeAll re-registers every undelivered signature subscription after reconnect.
func (c *WSClientImpl) resubscribeAll() {
	c.subsMu.Lock()
	subs := make(map[int64]*signatureSub, len(c.subs))
	for id, sub := range c.subs {
		subs[id] = sub
	}
	c.subsMu.Unlock()

	for oldSubID, sub := range subs {
		ctx, cancel := context.WithTimeout(context.Background(), c.config.SubscribeTimeout)
		newSubID, err := c.subscribe(ctx, sub)
		cancel()

		if err != nil {
			// Keep old mapping; the caller's confirm timeout still applies
			c.log.Warn("resubscribe failed", zap.String("signature", sub.signature), zap.Error(err))
			continue
		}

		c.subsMu.Lock()
		if oldSubID != newSubID && c.subs[oldSubID] == sub {
			delete(c.subs, oldSubID)
		}
		c.subsMu.Unlock()
	}
}

// handleMessage processes incoming WebSocket message.
func (c *WSClientImpl) handleMessage(message []byte) {
	var resp wsResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		return
	}

	switch {
	case resp.Method == "signatureNotification" && resp.Params != nil:
		c.handleSignatureNotification(resp.Params)
	case resp.Error != nil:
		c.handleErrorResponse(resp.ID, resp.Error)
	case resp.ID != 0 && len(resp.Result) > 0:
		c.handleSubscribeResponse(resp.ID, resp.Result)
	}
}

// handleSubscribeResponse handles subscription confirmation.
// Unsubscribe acknowledgements carry a boolean result and are ignored.
func (c *WSClientImpl) handleSubscribeResponse(id uint64, result json.RawMessage) {
	var subID int64
	if err := json.Unmarshal(result, &subID); err != nil {
		return
	}
	c.pendingSubsMu.Lock()
	p, ok := c.pendingSubs[id]
	if ok {
		delete(c.pendingSubs, id)
	}
	c.pendingSubsMu.Unlock()

	if !ok {
		return
	}

	c.subsMu.Lock()
	c.subs[subID] = p.sub
	c.subsMu.Unlock()

	p.reply <- subscribeReply{subID: subID}
}

// handleErrorResponse fails the pending subscription the error belongs to.
func (c *WSClientImpl) handleErrorResponse(id uint64, rpcErr *rpcError) {
	c.log.Warn("error response", zap.Uint64("id", id), zap.Int("code", rpcErr.Code), zap.String("message", rpcErr.Message))
	c.pendingSubsMu.Lock()
	p, ok := c.pendingSubs[id]
	if ok {
		delete(c.pendingSubs, id)
	}
	c.pendingSubsMu.Unlock()

	if ok {
		p.reply <- subscribeReply{err: rpcErr}
	}
}

// handleSignatureNotification delivers the one-shot notification and drops the
// subscription; the server cancels it after sending.
func (c *WSClientImpl) handleSignatureNotification(params *wsNotificationParams) {
	var result wsSignatureResult
	if err := json.Unmarshal(params.Result, &result); err != nil {
		return
	}

	c.subsMu.Lock()
	sub, ok := c.subs[params.Subscription]
	if ok {
		delete(c.subs, params.Subscription)
	}
	c.subsMu.Unlock()

	if !ok {
		return
	}

	n := SignatureNotification{
		Signature: sub.signature,
		Err:       result.Value.Err,
	}
	if result.Context != nil {
		n.Slot = result.Context.Slot
	}
	sub.deliver(n)
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A dead connection surfaces as a read error and triggers reconnect
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// wsResponse covers acknowledgements, errors and notifications.
type wsResponse struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      uint64                `json:"id,omitempty"`
	Result  json.RawMessage       `json:"result,omitempty"`
	Error   *rpcError             `json:"error,omitempty"`
	Method  string                `json:"method,omitempty"`
	Params  *wsNotificationParams `json:"params,omitempty"`
}

type wsNotificationParams struct {
	Subscription int64           `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

type wsSignatureResult struct {
	Context *wsContext       `json:"context"`
	Value   wsSignatureValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsSignatureValue struct {
	Err interface{} `json:"err"`
}
