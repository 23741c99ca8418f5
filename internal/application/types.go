package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/domain"
)

type Config struct {
	// MaxUploadBytes bounds accepted payload size; the source system capped
	// uploads at 100MB.
	MaxUploadBytes   int64
	DefaultListLimit int
	MaxListLimit     int
}

type UploadDocumentInput struct {
	Title       string
	FileName    string
	ContentType string
	Category    string
	Department  string
	Description string
	AccessLevel string
	Content     []byte
}

// DocumentView is the metadata shape returned to callers. The encryption key
// and payload location never leave the service.
type DocumentView struct {
	DocumentID  uuid.UUID             `json:"document_id"`
	OwnerID     uuid.UUID             `json:"owner_id"`
	Title       string                `json:"title"`
	FileName    string                `json:"file_name"`
	ContentType string                `json:"content_type"`
	Category    string                `json:"category"`
	Department  string                `json:"department,omitempty"`
	Description string                `json:"description,omitempty"`
	AccessLevel domain.AccessLevel    `json:"access_level"`
	Size        int64                 `json:"size"`
	Status      domain.DocumentStatus `json:"status"`
	ViewCount   int64                 `json:"view_count"`
	UploadDate  time.Time             `json:"upload_date"`
}

// DocumentContent carries decrypted payload bytes plus what a caller needs to
// serve them inline or as an attachment.
type DocumentContent struct {
	DocumentID  uuid.UUID
	Title       string
	FileName    string
	ContentType string
	Plaintext   []byte
}

type ListDocumentsInput struct {
	Query       string
	Category    string
	AccessLevel string
	Limit       int
	Offset      int
}

type SubmitAccessRequestInput struct {
	DocumentID uuid.UUID
	Reason     string
	Priority   string
}

type AccessRequestView struct {
	RequestID   uuid.UUID              `json:"request_id"`
	RequesterID uuid.UUID              `json:"requester_id"`
	DocumentID  uuid.UUID              `json:"document_id"`
	Status      domain.RequestStatus   `json:"status"`
	Reason      string                 `json:"reason,omitempty"`
	Priority    domain.RequestPriority `json:"priority"`
	RequestDate time.Time              `json:"request_date"`
	DecidedAt   *time.Time             `json:"decided_at,omitempty"`
}

// AccessRequestList mirrors the source's manage-requests page: the actor's
// own submissions alongside pending decisions for documents they own.
type AccessRequestList struct {
	MyRequests      []AccessRequestView `json:"my_requests"`
	PendingForOwner []AccessRequestView `json:"pending_for_owner"`
}

func toDocumentView(doc domain.Document) DocumentView {
	return DocumentView{
		DocumentID:  doc.DocumentID,
		OwnerID:     doc.OwnerID,
		Title:       doc.Title,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Category:    doc.Category,
		Department:  doc.Department,
		Description: doc.Description,
		AccessLevel: doc.AccessLevel,
		Size:        doc.Size,
		Status:      doc.Status,
		ViewCount:   doc.ViewCount,
		UploadDate:  doc.UploadDate,
	}
}

func toAccessRequestView(req domain.AccessRequest) AccessRequestView {
	return AccessRequestView{
		RequestID:   req.RequestID,
		RequesterID: req.RequesterID,
		DocumentID:  req.DocumentID,
		Status:      req.Status,
		Reason:      req.Reason,
		Priority:    req.Priority,
		RequestDate: req.RequestDate,
		DecidedAt:   req.DecidedAt,
	}
}
