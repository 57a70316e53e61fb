package stub

import "clawnch-scanner/internal/solana"

// UnsignedTransaction builds a minimal v0 wire transaction whose required
// signers are the given keys, in order, with zeroed signature slots.
// The message carries one extra read-only program account, a zero blockhash,
// no instructions and no lookup tables.
func UnsignedTransaction(signers ...solana.PublicKey) []byte {
	var program solana.PublicKey
	program[0] = 6

	msg := []byte{0x80, byte(len(signers)), 0, 1, byte(len(signers) + 1)}
	for _, pk := range signers {
		msg = append(msg, pk[:]...)
	}
	msg = append(msg, program[:]...)
	msg = append(msg, make([]byte, 32)...) // recent blockhash
	msg = append(msg, 0)                   // instructions
	msg = append(msg, 0)                   // address table lookups

	out := []byte{byte(len(signers))}
	out = append(out, make([]byte, len(signers)*solana.SignatureLength)...)
	return append(out, msg...)
}
