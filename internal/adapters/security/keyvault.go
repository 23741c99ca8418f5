package security

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/securedocs/document-service/internal/domain"
)

// KeyVault seals document payloads with XChaCha20-Poly1305. Each document
// gets its own 32-byte key, generated once at upload; the AEAD tag makes any
// ciphertext alteration fail on open instead of yielding garbled plaintext.
// Ciphertext layout: 24-byte random nonce followed by the sealed box.
type KeyVault struct{}

func NewKeyVault() *KeyVault {
	return &KeyVault{}
}

// GenerateKey returns fresh random key material. Uniqueness across calls
// comes from the 256-bit keyspace; keys are never derived or reused.
func (v *KeyVault) GenerateKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

func (v *KeyVault) Encrypt(plaintext, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens the sealed payload. Any tamper, truncation, or key mismatch
// surfaces as domain.ErrIntegrity; the underlying AEAD error is not exposed
// so nothing about the key leaks to callers.
func (v *KeyVault) Decrypt(ciphertext, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, domain.ErrIntegrity
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, domain.ErrIntegrity
	}
	nonce, box := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		return nil, domain.ErrIntegrity
	}
	return plaintext, nil
}
