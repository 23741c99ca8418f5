package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/domain"
	"github.com/securedocs/document-service/internal/ports"
	"gorm.io/gorm"
)

type documentRepository struct {
	db *gorm.DB
}

func (r *documentRepository) CreateWithOutboxTx(ctx context.Context, doc domain.Document, outboxEvent ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := toDocumentModel(doc)
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
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
}

func (r *documentRepository) GetByID(ctx context.Context, documentID uuid.UUID) (domain.Document, error) {
	var rec documentModel
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Document{}, domain.ErrNotFound
		}
		return domain.Document{}, err
	}
	return toDomainDocument(rec), nil
}

func (r *documentRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter ports.DocumentFilter) ([]domain.Document, error) {
	q := r.applyFilter(r.db.WithContext(ctx).Where("owner_id = ?", ownerID), filter)
	var rows []documentModel
	if err := q.Order("upload_date DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainDocuments(rows), nil
}

func (r *documentRepository) Search(ctx context.Context, filter ports.DocumentFilter) ([]domain.Document, error) {
	q := r.applyFilter(r.db.WithContext(ctx).Model(&documentModel{}), filter)
	var rows []documentModel
	if err := q.Order("upload_date DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainDocuments(rows), nil
}

func (r *documentRepository) DeleteWithOutboxTx(ctx context.Context, documentID uuid.UUID, outboxEvent ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("document_id = ?", documentID).Delete(&documentModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
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

func (r *documentRepository) applyFilter(q *gorm.DB, filter ports.DocumentFilter) *gorm.DB {
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.AccessLevel != "" {
		q = q.Where("access_level = ?", string(filter.AccessLevel))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	return q
}

func toDomainDocuments(rows []documentModel) []domain.Document {
	docs := make([]domain.Document, 0, len(rows))
	for _, rec := range rows {
		docs = append(docs, toDomainDocument(rec))
	}
	return docs
}
