package stub

import (
	"context"
	"sync"

	"github.com/mr-tron/base58"

	"clawnch-scanner/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Sent transactions are recorded; each one is reported confirmed unless
// SendErr or a per-signature status says otherwise.
type RPCClient struct {
	mu sync.Mutex

	Balances map[string]uint64
	Statuses map[string]*solana.SignatureStatus
	Sent     [][]byte

	SendErr    error
	StatusErr  error
	BalanceErr error
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances: make(map[string]uint64),
		Statuses: make(map[string]*solana.SignatureStatus),
	}
}

// SendTransaction records raw and returns the fee payer's signature.
func (c *RPCClient) SendTransaction(_ context.Context, raw []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.Sent = append(c.Sent, append([]byte(nil), raw...))

	tx, err := solana.DecodeTransaction(raw)
	if err != nil {
		return "", err
	}
	sig := tx.Signature()
	if _, ok := c.Statuses[sig]; !ok {
		c.Statuses[sig] = &solana.SignatureStatus{Slot: 1, ConfirmationStatus: string(solana.CommitmentConfirmed)}
	}
	return sig, nil
}

// GetSignatureStatuses returns stored statuses, nil for unknown signatures.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.StatusErr != nil {
		return nil, c.StatusErr
	}
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		out[i] = c.Statuses[sig]
	}
	return out, nil
}

// GetBalance returns the stored balance, zero when unknown.
func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.BalanceErr != nil {
		return 0, c.BalanceErr
	}
	return c.Balances[pubkey], nil
}

// SetStatus overrides the status reported for a signature.
func (c *RPCClient) SetStatus(signature string, status *solana.SignatureStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses[signature] = status
}

// SentCount returns the number of submitted transactions.
func (c *RPCClient) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}

// LastSentSignatures returns the base58 signatures of the last submitted transaction.
func (c *RPCClient) LastSentSignatures() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.Sent) == 0 {
		return nil
	}
	tx, err := solana.DecodeTransaction(c.Sent[len(c.Sent)-1])
	if err != nil {
		return nil
	}
	sigs := make([]string, len(tx.Signatures))
	for i, s := range tx.Signatures {
		sigs[i] = base58.Encode(s[:])
	}
	return sigs
}
