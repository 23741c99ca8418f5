package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type grantRepository struct {
	db *gorm.DB
}

// Add is idempotent on the (subject, capability, scope) primary key.
func (r *grantRepository) Add(ctx context.Context, grant domain.Grant) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&grantModel{
			SubjectID:  grant.SubjectID,
			Capability: string(grant.Capability),
			Scope:      grant.Scope,
			GrantedAt:  grant.GrantedAt,
		}).Error
}

func (r *grantRepository) ListForDocument(ctx context.Context, subjectID, documentID uuid.UUID) ([]domain.Grant, error) {
	var rows []grantModel
	if err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Where("scope IN ?", []string{documentID.String(), domain.ScopeGlobal}).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	grants := make([]domain.Grant, 0, len(rows))
	for _, rec := range rows {
		grants = append(grants, toDomainGrant(rec))
	}
	return grants, nil
}
