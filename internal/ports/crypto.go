package ports

// KeyVault generates per-document symmetric keys and seals/opens payloads
// with authenticated encryption. No two documents share a key; losing a key
// makes its document permanently unrecoverable (accepted tradeoff, no escrow).
type KeyVault interface {
	// GenerateKey returns fresh cryptographically strong key material.
	GenerateKey() ([]byte, error)
	Encrypt(plaintext, key []byte) ([]byte, error)
	// Decrypt fails with domain.ErrIntegrity when the ciphertext was altered
	// or the key does not match. It never returns partial plaintext.
	Decrypt(ciphertext, key []byte) ([]byte, error)
}
