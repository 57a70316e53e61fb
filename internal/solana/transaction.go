package solana

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// messageVersionPrefix marks a versioned message; the low 7 bits hold the version.
const messageVersionPrefix = 0x80

// LegacyVersion is reported for messages without a version prefix.
const LegacyVersion = -1

var (
	// ErrMalformedTransaction is returned when wire bytes cannot be decoded.
	ErrMalformedTransaction = errors.New("malformed transaction")
	// ErrSignerNotRequired is returned when a signer's key is not one of the
	// message's required signers.
	ErrSignerNotRequired = errors.New("signer is not a required signer")
)

// MessageHeader is the three-byte header that precedes the account keys.
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// Transaction is a decoded wire transaction.
// Only the parts needed for signing are parsed; the remainder of the message
// (blockhash, instructions, lookup tables) is carried as opaque bytes.
type Transaction struct {
	Signatures  [][SignatureLength]byte
	Message     []byte // exact bytes covered by every signature
	Version     int
	Header      MessageHeader
	AccountKeys []PublicKey
}

// DecodeTransaction parses a legacy or versioned wire transaction.
func DecodeTransaction(raw []byte) (*Transaction, error) {
	numSigs, n, err := decodeShortVec(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: signature count: %v", ErrMalformedTransaction, err)
	}
	off := n

	if len(raw) < off+numSigs*SignatureLength {
		return nil, fmt.Errorf("%w: truncated signatures", ErrMalformedTransaction)
	}
	tx := &Transaction{Signatures: make([][SignatureLength]byte, numSigs)}
	for i := range tx.Signatures {
		copy(tx.Signatures[i][:], raw[off:off+SignatureLength])
		off += SignatureLength
	}

	tx.Message = append([]byte(nil), raw[off:]...)
	if err := tx.parseMessage(); err != nil {
		return nil, err
	}

	if int(tx.Header.NumRequiredSignatures) != numSigs {
		return nil, fmt.Errorf("%w: %d signature slots for %d required signers",
			ErrMalformedTransaction, numSigs, tx.Header.NumRequiredSignatures)
	}
	return tx, nil
}

func (tx *Transaction) parseMessage() error {
	msg := tx.Message
	off := 0

	if len(msg) == 0 {
		return fmt.Errorf("%w: empty message", ErrMalformedTransaction)
	}

	tx.Version = LegacyVersion
	if msg[0]&messageVersionPrefix != 0 {
		tx.Version = int(msg[0] &^ messageVersionPrefix)
		off++
	}

	if len(msg) < off+3 {
		return fmt.Errorf("%w: truncated header", ErrMalformedTransaction)
	}
	tx.Header = MessageHeader{
		NumRequiredSignatures:       msg[off],
		NumReadonlySignedAccounts:   msg[off+1],
		NumReadonlyUnsignedAccounts: msg[off+2],
	}
	off += 3

	numKeys, n, err := decodeShortVec(msg[off:])
	if err != nil {
		return fmt.Errorf("%w: account key count: %v", ErrMalformedTransaction, err)
	}
	off += n

	if len(msg) < off+numKeys*PublicKeyLength {
		return fmt.Errorf("%w: truncated account keys", ErrMalformedTransaction)
	}
	if numKeys < int(tx.Header.NumRequiredSignatures) {
		return fmt.Errorf("%w: %d account keys for %d signers",
			ErrMalformedTransaction, numKeys, tx.Header.NumRequiredSignatures)
	}
	tx.AccountKeys = make([]PublicKey, numKeys)
	for i := range tx.AccountKeys {
		copy(tx.AccountKeys[i][:], msg[off:off+PublicKeyLength])
		off += PublicKeyLength
	}
	return nil
}

// RequiredSigners returns the accounts that must sign, in signature order.
func (tx *Transaction) RequiredSigners() []PublicKey {
	return tx.AccountKeys[:tx.Header.NumRequiredSignatures]
}

// Sign adds a signature from each signer into the slot matching its account index.
func (tx *Transaction) Sign(signers ...Signer) error {
	for _, s := range signers {
		if s == nil {
			return errors.New("nil signer")
		}
		pk := s.PublicKey()

		idx := -1
		for i, key := range tx.RequiredSigners() {
			if key == pk {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrSignerNotRequired, pk)
		}

		sig, err := s.Sign(tx.Message)
		if err != nil {
			return fmt.Errorf("sign with %s: %w", pk, err)
		}
		if len(sig) != SignatureLength {
			return fmt.Errorf("sign with %s: signature is %d bytes", pk, len(sig))
		}
		copy(tx.Signatures[idx][:], sig)
	}
	return nil
}

// IsFullySigned reports whether every signature slot is populated.
func (tx *Transaction) IsFullySigned() bool {
	var zero [SignatureLength]byte
	for _, sig := range tx.Signatures {
		if sig == zero {
			return false
		}
	}
	return len(tx.Signatures) > 0
}

// Signature returns the base58 transaction id (the fee payer's signature).
func (tx *Transaction) Signature() string {
	if len(tx.Signatures) == 0 {
		return ""
	}
	return base58.Encode(tx.Signatures[0][:])
}

// Serialize encodes the transaction back into wire format.
func (tx *Transaction) Serialize() []byte {
	out := encodeShortVec(len(tx.Signatures))
	for _, sig := range tx.Signatures {
		out = append(out, sig[:]...)
	}
	return append(out, tx.Message...)
}

// decodeShortVec reads a compact-u16 length prefix.
func decodeShortVec(b []byte) (value int, n int, err error) {
	for n < 3 {
		if n >= len(b) {
			return 0, 0, errors.New("unexpected end of input")
		}
		elem := int(b[n])
		value |= (elem & 0x7f) << (7 * n)
		n++
		if elem&0x80 == 0 {
			return value, n, nil
		}
	}
	return 0, 0, errors.New("compact-u16 overflow")
}

// encodeShortVec writes a compact-u16 length prefix.
func encodeShortVec(v int) []byte {
	var out []byte
	for {
		elem := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, elem)
		}
		out = append(out, elem|0x80)
	}
}
