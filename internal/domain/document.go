package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccessLevel is the visibility tier attached to a document. It coarsely
// determines default read visibility before grants are consulted.
type AccessLevel string

const (
	AccessPrivate    AccessLevel = "private"
	AccessRestricted AccessLevel = "restricted"
	AccessInternal   AccessLevel = "internal"
	AccessPublic     AccessLevel = "public"
)

// DocumentStatus tracks the upload pipeline state of a document.
type DocumentStatus string

const (
	StatusQueued     DocumentStatus = "queued"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

const (
	CategoryReport    = "report"
	CategoryFinancial = "financial"
	CategoryPolicy    = "policy"
	CategoryManual    = "manual"
	CategoryLegal     = "legal"
	CategoryMarketing = "marketing"
	CategoryTraining  = "training"
	CategoryOther     = "other"
)

// Document is the stored-document aggregate. EncryptionKey is generated
// exactly once at creation, set before PayloadPath is written, and read only
// by the decrypt path. ViewCount is best-effort telemetry.
type Document struct {
	DocumentID    uuid.UUID
	OwnerID       uuid.UUID
	Title         string
	FileName      string
	ContentType   string
	Category      string
	Department    string
	Description   string
	AccessLevel   AccessLevel
	Size          int64
	Status        DocumentStatus
	EncryptionKey []byte
	PayloadPath   string
	ViewCount     int64
	UploadDate    time.Time
	UpdatedAt     time.Time
}

// NormalizeAccessLevel maps free-form input onto a known tier.
// Empty input defaults to private, the source system's default.
func NormalizeAccessLevel(raw string) (AccessLevel, bool) {
	switch AccessLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case AccessPrivate, "":
		return AccessPrivate, true
	case AccessRestricted:
		return AccessRestricted, true
	case AccessInternal:
		return AccessInternal, true
	case AccessPublic:
		return AccessPublic, true
	default:
		return "", false
	}
}

// NormalizeCategory maps free-form input onto a known category, defaulting to other.
func NormalizeCategory(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case CategoryReport:
		return CategoryReport
	case CategoryFinancial:
		return CategoryFinancial
	case CategoryPolicy:
		return CategoryPolicy
	case CategoryManual:
		return CategoryManual
	case CategoryLegal:
		return CategoryLegal
	case CategoryMarketing:
		return CategoryMarketing
	case CategoryTraining:
		return CategoryTraining
	default:
		return CategoryOther
	}
}

// RequiresAccessRequest reports whether reading this tier ever needs the
// approval workflow. Public and internal documents are readable by any
// authenticated actor without a request.
func (l AccessLevel) RequiresAccessRequest() bool {
	return l == AccessPrivate || l == AccessRestricted
}
