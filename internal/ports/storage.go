package ports

import "context"

// BlobStore persists encrypted document payloads. Implementations only ever
// see ciphertext; keys never cross this boundary.
type BlobStore interface {
	// Store writes the payload and returns its location reference.
	Store(ctx context.Context, name string, payload []byte) (string, error)
	Fetch(ctx context.Context, location string) ([]byte, error)
	Delete(ctx context.Context, location string) error
}
