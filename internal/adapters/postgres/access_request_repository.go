package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/domain"
	"github.com/securedocs/document-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accessRequestRepository struct {
	db *gorm.DB
}

// Submit inserts a pending request and its outbox event in one transaction.
// The uq_access_requests_pending partial unique index is the authoritative
// guard against two pending rows for the same (requester, document) pair; a
// racing insert loses with a unique violation mapped to ErrDuplicateRequest.
func (r *accessRequestRepository) Submit(ctx context.Context, params ports.SubmitRequestParams, outboxEvent ports.OutboxEvent) (domain.AccessRequest, error) {
	rec := accessRequestModel{
		RequestID:   params.RequestID,
		RequesterID: params.RequesterID,
		DocumentID:  params.DocumentID,
		Status:      string(domain.RequestPending),
		Reason:      params.Reason,
		Priority:    string(params.Priority),
		RequestDate: params.SubmittedAt,
	}
	if rec.RequestID == uuid.Nil {
		rec.RequestID = uuid.New()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateRequest
			}
			return err
		}
		return tx.Create(&docOutboxModel{
			OutboxID:     outboxEvent.EventID,
			EventType:    outboxEvent.EventType,
			PartitionKey: outboxEvent.PartitionKey,
			Payload:      string(outboxEvent.Payload),
			CreatedAt:    outboxEvent.OccurredAt,
		}).Error
	})
	if err != nil {
		return domain.AccessRequest{}, err
	}
	return toDomainRequest(rec), nil
}

func (r *accessRequestRepository) GetByID(ctx context.Context, requestID uuid.UUID) (domain.AccessRequest, error) {
	var rec accessRequestModel
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AccessRequest{}, domain.ErrNotFound
		}
		return domain.AccessRequest{}, err
	}
	return toDomainRequest(rec), nil
}

func (r *accessRequestRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.AccessRequest, error) {
	var rows []accessRequestModel
	if err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("request_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainRequests(rows), nil
}

func (r *accessRequestRepository) ListPendingByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.AccessRequest, error) {
	var rows []accessRequestModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN documents ON documents.document_id = access_requests.document_id").
		Where("documents.owner_id = ?", ownerID).
		Where("access_requests.status = ?", string(domain.RequestPending)).
		Order("access_requests.request_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainRequests(rows), nil
}

// ApproveTx is the atomic conditional transition pending -> approved. The
// status flip is a compare-and-set on the pending state, so of two racing
// decisions exactly one updates a row; the loser re-reads the status to
// distinguish idempotent re-approval from an invalid transition. The grant
// insert uses ON CONFLICT DO NOTHING, keeping approval idempotent at the
// grant level as well.
func (r *accessRequestRepository) ApproveTx(ctx context.Context, requestID uuid.UUID, decidedBy uuid.UUID, decidedAt time.Time, grant domain.Grant, outboxEvent ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&accessRequestModel{}).
			Where("request_id = ?", requestID).
			Where("status = ?", string(domain.RequestPending)).
			Updates(map[string]any{
				"status":     string(domain.RequestApproved),
				"decided_at": decidedAt,
				"decided_by": decidedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return r.checkTerminal(tx, requestID, domain.RequestApproved)
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grantModel{
			SubjectID:  grant.SubjectID,
			Capability: string(grant.Capability),
			Scope:      grant.Scope,
			GrantedAt:  grant.GrantedAt,
		}).Error; err != nil {
			return err
		}

		return tx.Create(&docOutboxModel{
			OutboxID:     outboxEvent.EventID,
			EventType:    outboxEvent.EventType,
			PartitionKey: outboxEvent.PartitionKey,
			Payload:      string(outboxEvent.Payload),
			CreatedAt:    outboxEvent.OccurredAt,
		}).Error
	})
}

// DenyTx is the atomic conditional transition pending -> denied. No grant
// side effect.
func (r *accessRequestRepository) DenyTx(ctx context.Context, requestID uuid.UUID, decidedBy uuid.UUID, decidedAt time.Time, outboxEvent ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&accessRequestModel{}).
			Where("request_id = ?", requestID).
			Where("status = ?", string(domain.RequestPending)).
			Updates(map[string]any{
				"status":     string(domain.RequestDenied),
				"decided_at": decidedAt,
				"decided_by": decidedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return r.checkTerminal(tx, requestID, domain.RequestDenied)
		}

		return tx.Create(&docOutboxModel{
			OutboxID:     outboxEvent.EventID,
			EventType:    outboxEvent.EventType,
			PartitionKey: outboxEvent.PartitionKey,
			Payload:      string(outboxEvent.Payload),
			CreatedAt:    outboxEvent.OccurredAt,
		}).Error
	})
}

// checkTerminal resolves a lost compare-and-set. Re-approving an approved
// request is the one idempotent form; any other decision against a terminal
// request, including re-denying a denied one, is an invalid transition.
func (r *accessRequestRepository) checkTerminal(tx *gorm.DB, requestID uuid.UUID, wanted domain.RequestStatus) error {
	var rec accessRequestModel
	if err := tx.Where("request_id = ?", requestID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if wanted == domain.RequestApproved && domain.RequestStatus(rec.Status) == wanted {
		return nil
	}
	return domain.ErrInvalidStateTransition
}

func toDomainRequests(rows []accessRequestModel) []domain.AccessRequest {
	reqs := make([]domain.AccessRequest, 0, len(rows))
	for _, rec := range rows {
		reqs = append(reqs, toDomainRequest(rec))
	}
	return reqs
}
