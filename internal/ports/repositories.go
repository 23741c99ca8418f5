package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/domain"
)

// DocumentFilter narrows document listings. Zero values mean "no filter".
type DocumentFilter struct {
	Query       string
	Category    string
	AccessLevel domain.AccessLevel
	Limit       int
	Offset      int
}

// DocumentRepository defines persistence for document records. Create is
// transactional with the outbox so an upload event exists iff the row does.
type DocumentRepository interface {
	CreateWithOutboxTx(ctx context.Context, doc domain.Document, outboxEvent OutboxEvent) error
	GetByID(ctx context.Context, documentID uuid.UUID) (domain.Document, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filter DocumentFilter) ([]domain.Document, error)
	Search(ctx context.Context, filter DocumentFilter) ([]domain.Document, error)
	DeleteWithOutboxTx(ctx context.Context, documentID uuid.UUID, outboxEvent OutboxEvent) error
}

// SubmitRequestParams captures a new access request submission.
type SubmitRequestParams struct {
	RequestID   uuid.UUID
	RequesterID uuid.UUID
	DocumentID  uuid.UUID
	Reason      string
	Priority    domain.RequestPriority
	SubmittedAt time.Time
}

// AccessRequestRepository owns the request workflow state. The Tx methods
// perform the status compare-and-set, the grant insert (approve only), and
// the outbox enqueue in one database transaction, so two racing decisions on
// the same request cannot both succeed and at most one grant row is created.
type AccessRequestRepository interface {
	// Submit inserts a pending request. A concurrent or prior pending request
	// for the same (requester, document) pair fails with ErrDuplicateRequest;
	// the storage layer backs this with a partial unique index so a race
	// cannot produce two pending rows.
	Submit(ctx context.Context, params SubmitRequestParams, outboxEvent OutboxEvent) (domain.AccessRequest, error)
	GetByID(ctx context.Context, requestID uuid.UUID) (domain.AccessRequest, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.AccessRequest, error)
	ListPendingByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.AccessRequest, error)
	// ApproveTx flips pending -> approved and records the grant. Approving an
	// already-approved request is a no-op; a denied request fails with
	// ErrInvalidStateTransition.
	ApproveTx(ctx context.Context, requestID uuid.UUID, decidedBy uuid.UUID, decidedAt time.Time, grant domain.Grant, outboxEvent OutboxEvent) error
	// DenyTx flips pending -> denied with no grant side effect. Denying a
	// request in any terminal state, an already-denied one included, fails
	// with ErrInvalidStateTransition.
	DenyTx(ctx context.Context, requestID uuid.UUID, decidedBy uuid.UUID, decidedAt time.Time, outboxEvent OutboxEvent) error
}

// GrantRepository is the durable capability store consulted by the policy.
type GrantRepository interface {
	// Add is idempotent: inserting an existing (subject, capability, scope)
	// tuple is a no-op, not a duplicate.
	Add(ctx context.Context, grant domain.Grant) error
	// ListForDocument returns the subject's grants relevant to one document:
	// rows scoped to it plus global rows.
	ListForDocument(ctx context.Context, subjectID, documentID uuid.UUID) ([]domain.Grant, error)
}

// OutboxEvent is the write-side event payload prior to storage.
// It is adapter-neutral to keep application code independent of broker specifics.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls publish-retry workflow for domain events.
// This explicit contract enables transactional outbox patterns without leaking DB details.
type OutboxRepository interface {
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
