package ports

import (
	"context"

	"github.com/google/uuid"
)

// ViewCounterStore tracks per-document view counts. The counter is
// non-critical telemetry: increments are best-effort and lost updates under
// concurrent views are acceptable, so implementations need no serialization
// beyond what the backing store gives for free.
type ViewCounterStore interface {
	Increment(ctx context.Context, documentID uuid.UUID) error
	Get(ctx context.Context, documentID uuid.UUID) (int64, error)
	GetMany(ctx context.Context, documentIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}
