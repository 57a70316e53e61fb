package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"clawnch-scanner/internal/observability"
)

// Confirmation defaults.
const (
	DefaultConfirmTimeout = 60 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

// ErrConfirmTimeout is returned when a signature is not confirmed in time.
var ErrConfirmTimeout = errors.New("confirmation timed out")

// TransactionError reports a transaction that landed but failed on chain.
type TransactionError struct {
	Signature string
	Err       interface{}
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Err)
}

// ConfirmerOptions configures a Confirmer.
type ConfirmerOptions struct {
	RPC          RPCClient
	WS           WSClient // optional; polling alone is used when nil
	Commitment   Commitment
	Timeout      time.Duration
	PollInterval time.Duration
	Logger       *zap.Logger
}

// Confirmer waits for a submitted transaction to reach a commitment level.
// With a WebSocket client it listens for signatureSubscribe notifications and
// keeps polling getSignatureStatuses as a backstop.
type Confirmer struct {
	rpc          RPCClient
	ws           WSClient
	commitment   Commitment
	timeout      time.Duration
	pollInterval time.Duration
	log          *zap.Logger
}

// NewConfirmer creates a Confirmer, filling zero options with defaults.
func NewConfirmer(opts ConfirmerOptions) *Confirmer {
	c := &Confirmer{
		rpc:          opts.RPC,
		ws:           opts.WS,
		commitment:   opts.Commitment,
		timeout:      opts.Timeout,
		pollInterval: opts.PollInterval,
		log:          opts.Logger,
	}
	if c.commitment == "" {
		c.commitment = CommitmentConfirmed
	}
	if c.timeout <= 0 {
		c.timeout = DefaultConfirmTimeout
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// Confirm blocks until signature reaches the configured commitment, fails on
// chain, or the timeout elapses.
func (c *Confirmer) Confirm(ctx context.Context, signature string) error {
	start := time.Now()
	err := c.await(ctx, signature)
	if err == nil {
		observability.RecordConfirmation(time.Since(start).Seconds())
	}
	return err
}

func (c *Confirmer) await(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var notifications <-chan SignatureNotification
	if c.ws != nil {
		ch, err := c.ws.SubscribeSignature(ctx, signature, c.commitment)
		if err != nil {
			c.log.Warn("signature subscription failed, polling only",
				zap.String("signature", signature), zap.Error(err))
		} else {
			notifications = ch
		}
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		done, err := c.poll(ctx, signature)
		if done {
			return err
		}

		select {
		case n, ok := <-notifications:
			if !ok {
				// Subscription dropped; keep polling
				notifications = nil
				continue
			}
			if n.Err != nil {
				return &TransactionError{Signature: signature, Err: n.Err}
			}
			return nil
		case <-ticker.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w after %s: %s", ErrConfirmTimeout, c.timeout, signature)
			}
			return ctx.Err()
		}
	}
}

// poll checks the signature status once. Transient RPC errors are logged and
// treated as "not yet".
func (c *Confirmer) poll(ctx context.Context, signature string) (bool, error) {
	statuses, err := c.rpc.GetSignatureStatuses(ctx, []string{signature})
	if err != nil {
		if ctx.Err() == nil {
			c.log.Debug("status poll failed", zap.String("signature", signature), zap.Error(err))
		}
		return false, nil
	}
	if len(statuses) == 0 || statuses[0] == nil {
		return false, nil
	}

	status := statuses[0]
	if status.Failed() {
		return true, &TransactionError{Signature: signature, Err: status.Err}
	}
	return c.commitment.reached(status.ConfirmationStatus), nil
}
