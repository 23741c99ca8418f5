package postgres

import (
	"time"

	"github.com/google/uuid"
)

type documentModel struct {
	DocumentID    uuid.UUID `gorm:"column:document_id;type:uuid;primaryKey"`
	OwnerID       uuid.UUID `gorm:"column:owner_id;type:uuid"`
	Title         string    `gorm:"column:title"`
	FileName      string    `gorm:"column:file_name"`
	ContentType   string    `gorm:"column:content_type"`
	Category      string    `gorm:"column:category"`
	Department    string    `gorm:"column:department"`
	Description   string    `gorm:"column:description"`
	AccessLevel   string    `gorm:"column:access_level"`
	Size          int64     `gorm:"column:size"`
	Status        string    `gorm:"column:status"`
	EncryptionKey []byte    `gorm:"column:encryption_key;type:bytea"`
	PayloadPath   string    `gorm:"column:payload_path"`
	ViewCount     int64     `gorm:"column:view_count"`
	UploadDate    time.Time `gorm:"column:upload_date"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (documentModel) TableName() string { return "documents" }

type accessRequestModel struct {
	RequestID   uuid.UUID  `gorm:"column:request_id;type:uuid;primaryKey"`
	RequesterID uuid.UUID  `gorm:"column:requester_id;type:uuid"`
	DocumentID  uuid.UUID  `gorm:"column:document_id;type:uuid"`
	Status      string     `gorm:"column:status"`
	Reason      string     `gorm:"column:reason"`
	Priority    string     `gorm:"column:priority"`
	RequestDate time.Time  `gorm:"column:request_date"`
	DecidedAt   *time.Time `gorm:"column:decided_at"`
	DecidedBy   *uuid.UUID `gorm:"column:decided_by;type:uuid"`
}

func (accessRequestModel) TableName() string { return "access_requests" }

type grantModel struct {
	SubjectID  uuid.UUID `gorm:"column:subject_id;type:uuid;primaryKey"`
	Capability string    `gorm:"column:capability;primaryKey"`
	Scope      string    `gorm:"column:scope;primaryKey"`
	GrantedAt  time.Time `gorm:"column:granted_at"`
}

func (grantModel) TableName() string { return "grants" }

type docOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (docOutboxModel) TableName() string { return "document_outbox" }
