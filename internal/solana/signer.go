package solana

// Signer produces ed25519 signatures for one account.
// Implementations may hold the key in memory or delegate to a remote signer.
type Signer interface {
	PublicKey() PublicKey
	Sign(message []byte) ([]byte, error)
}
