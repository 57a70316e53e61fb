package solana

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// SignatureStatus from getSignatureStatuses.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *uint64 // nil once rooted
	Err                interface{}
	ConfirmationStatus string // processed | confirmed | finalized
}

// Failed reports whether the transaction landed with an on-chain error.
func (s *SignatureStatus) Failed() bool {
	return s != nil && s.Err != nil
}

// SendOptions configures sendTransaction.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment Commitment
	MaxRetries          int // node-side rebroadcast attempts
}

// DefaultSendOptions returns preflight-on submission with two node-side retries.
func DefaultSendOptions() SendOptions {
	return SendOptions{
		PreflightCommitment: CommitmentConfirmed,
		MaxRetries:          2,
	}
}
