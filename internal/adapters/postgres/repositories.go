package postgres

import (
	"github.com/securedocs/document-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Documents ports.DocumentRepository
	Requests  ports.AccessRequestRepository
	Grants    ports.GrantRepository
	Outbox    ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Documents: &documentRepository{db: db},
		Requests:  &accessRequestRepository{db: db},
		Grants:    &grantRepository{db: db},
		Outbox:    &outboxRepository{db: db},
	}
}
