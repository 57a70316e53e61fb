package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeyLength is the size of an ed25519 public key.
const PublicKeyLength = 32

// SignatureLength is the size of an ed25519 signature.
const SignatureLength = 64

var (
	// ErrInvalidKeyLength is returned when decoded key material has the wrong size.
	ErrInvalidKeyLength = errors.New("invalid key length")
	// ErrKeyMismatch is returned when a secret key's embedded public half does
	// not match the key derived from its seed.
	ErrKeyMismatch = errors.New("public key does not match secret key")
	// ErrNotOnCurve is returned when a public key is not a valid curve point.
	ErrNotOnCurve = errors.New("public key is not on the ed25519 curve")
)

// PublicKey is a 32-byte account address.
type PublicKey [PublicKeyLength]byte

// PublicKeyFromBase58 decodes a base58 address.
func PublicKeyFromBase58(s string) (PublicKey, error) {
	var pk PublicKey
	b, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode base58: %w", err)
	}
	if len(b) != PublicKeyLength {
		return pk, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyLength, len(b), PublicKeyLength)
	}
	copy(pk[:], b)
	return pk, nil
}

// String returns the base58 form of the key.
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// IsOnCurve reports whether the key decodes to an ed25519 curve point.
// Program-derived addresses are deliberately off-curve and cannot sign.
func (pk PublicKey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}

// Keypair is an ed25519 key pair in the 64-byte Solana secret key layout
// (32-byte seed followed by the 32-byte public key).
type Keypair struct {
	private ed25519.PrivateKey
	public  PublicKey
}

var _ Signer = (*Keypair)(nil)

// NewKeypair generates a fresh random keypair.
func NewKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	kp := &Keypair{private: priv}
	copy(kp.public[:], pub)
	return kp, nil
}

// KeypairFromBase58 decodes a base58-encoded 64-byte secret key.
func KeypairFromBase58(secret string) (*Keypair, error) {
	b, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("decode base58: %w", err)
	}
	return KeypairFromBytes(b)
}

// KeypairFromBytes validates and wraps a 64-byte secret key.
func KeypairFromBytes(b []byte) (*Keypair, error) {
	if len(b) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyLength, len(b), ed25519.PrivateKeySize)
	}

	priv := ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
	if !bytes.Equal(priv[ed25519.SeedSize:], b[ed25519.SeedSize:]) {
		return nil, ErrKeyMismatch
	}

	kp := &Keypair{private: priv}
	copy(kp.public[:], priv[ed25519.SeedSize:])
	if !kp.public.IsOnCurve() {
		return nil, ErrNotOnCurve
	}
	return kp, nil
}

// PublicKey returns the keypair's address.
func (k *Keypair) PublicKey() PublicKey {
	return k.public
}

// Sign signs message with the secret key.
func (k *Keypair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.private, message), nil
}

// SecretBase58 returns the 64-byte secret key in base58.
func (k *Keypair) SecretBase58() string {
	return base58.Encode(k.private)
}
