package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/domain"
	"github.com/securedocs/document-service/internal/ports"
)

// Service orchestrates the document vault use cases over the port
// abstractions. It holds no mutable state of its own; all state lives behind
// the repositories, the blob store, and the view counter.
type Service struct {
	cfg       Config
	documents ports.DocumentRepository
	requests  ports.AccessRequestRepository
	grants    ports.GrantRepository
	blobs     ports.BlobStore
	vault     ports.KeyVault
	views     ports.ViewCounterStore
	logger    *slog.Logger
	nowFn     func() time.Time
}

type Dependencies struct {
	Config    Config
	Documents ports.DocumentRepository
	Requests  ports.AccessRequestRepository
	Grants    ports.GrantRepository
	Blobs     ports.BlobStore
	Vault     ports.KeyVault
	Views     ports.ViewCounterStore
	Logger    *slog.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:       deps.Config,
		documents: deps.Documents,
		requests:  deps.Requests,
		grants:    deps.Grants,
		blobs:     deps.Blobs,
		vault:     deps.Vault,
		views:     deps.Views,
		logger:    logger.With("module", "application", "layer", "service"),
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// CanAccess loads the actor's grant state for the document and evaluates the
// access policy. This is the single decision point consumed by every entry
// point, HTTP and gRPC alike. It fails closed: a grant-store read error denies.
func (s *Service) CanAccess(ctx context.Context, actor domain.Actor, doc domain.Document, op domain.Operation) bool {
	grants, err := s.loadGrants(ctx, actor.ID, doc.DocumentID)
	if err != nil {
		s.logger.WarnContext(ctx, "grant lookup failed, denying",
			"operation", "can_access",
			"outcome", "failure",
			"document_id", doc.DocumentID,
			"error", err,
		)
		return false
	}
	return domain.CanAccess(actor, doc, op, grants)
}

// CheckAccess is the lookup-by-id variant used by the internal gRPC surface.
func (s *Service) CheckAccess(ctx context.Context, actor domain.Actor, documentID uuid.UUID, op domain.Operation) (bool, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return false, err
	}
	return s.CanAccess(ctx, actor, doc, op), nil
}

func (s *Service) loadGrants(ctx context.Context, subjectID, documentID uuid.UUID) (domain.GrantSet, error) {
	rows, err := s.grants.ListForDocument(ctx, subjectID, documentID)
	if err != nil {
		return domain.GrantSet{}, err
	}
	return domain.NewGrantSet(rows), nil
}
