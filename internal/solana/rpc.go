package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface used by the launcher.
type RPCClient interface {
	// SendTransaction submits a signed, serialized transaction and returns its signature.
	SendTransaction(ctx context.Context, raw []byte) (string, error)

	// GetSignatureStatuses returns the status of each signature, nil for unknown ones.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetBalance returns the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)
}

// Commitment is the level of finality requested from the cluster.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// reached reports whether status has reached at least commitment c.
func (c Commitment) reached(status string) bool {
	switch c {
	case CommitmentProcessed:
		return status == string(CommitmentProcessed) || status == string(CommitmentConfirmed) || status == string(CommitmentFinalized)
	case CommitmentConfirmed:
		return status == string(CommitmentConfirmed) || status == string(CommitmentFinalized)
	default:
		return status == string(CommitmentFinalized)
	}
}
