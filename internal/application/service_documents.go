package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/domain"
	"github.com/securedocs/document-service/internal/ports"
)

// UploadDocument encrypts and stores a new document owned by the actor.
// Write ordering: encrypt, write the blob, then commit key+record in one
// transaction. A failed commit rolls the blob back so no row ever points at
// a missing payload and no ciphertext outlives its record.
func (s *Service) UploadDocument(ctx context.Context, actor domain.Actor, input UploadDocumentInput) (DocumentView, error) {
	if actor.ID == uuid.Nil {
		return DocumentView{}, domain.ErrUnauthorized
	}
	title := strings.TrimSpace(input.Title)
	if title == "" || input.FileName == "" {
		return DocumentView{}, fmt.Errorf("%w: title and file name are required", domain.ErrInvalidInput)
	}
	if len(input.Content) == 0 {
		return DocumentView{}, fmt.Errorf("%w: empty upload", domain.ErrInvalidInput)
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(input.Content)) > s.cfg.MaxUploadBytes {
		return DocumentView{}, fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrInvalidInput, s.cfg.MaxUploadBytes)
	}
	level, ok := domain.NormalizeAccessLevel(input.AccessLevel)
	if !ok {
		return DocumentView{}, fmt.Errorf("%w: unknown access level %q", domain.ErrInvalidInput, input.AccessLevel)
	}

	key, err := s.vault.GenerateKey()
	if err != nil {
		return DocumentView{}, fmt.Errorf("generate key: %w", err)
	}
	ciphertext, err := s.vault.Encrypt(input.Content, key)
	if err != nil {
		return DocumentView{}, fmt.Errorf("encrypt payload: %w", err)
	}

	now := s.nowFn()
	doc := domain.Document{
		DocumentID:    uuid.New(),
		OwnerID:       actor.ID,
		Title:         title,
		FileName:      input.FileName,
		ContentType:   contentTypeOrDefault(input.ContentType),
		Category:      domain.NormalizeCategory(input.Category),
		Department:    strings.TrimSpace(input.Department),
		Description:   strings.TrimSpace(input.Description),
		AccessLevel:   level,
		Size:          int64(len(input.Content)),
		Status:        domain.StatusQueued,
		EncryptionKey: key,
		UploadDate:    now,
		UpdatedAt:     now,
	}

	location, err := s.blobs.Store(ctx, blobName(doc), ciphertext)
	if err != nil {
		return DocumentView{}, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	doc.PayloadPath = location
	doc.Status = domain.StatusCompleted

	event, err := s.documentEvent(domain.EventDocumentUploaded, doc, now)
	if err != nil {
		_ = s.blobs.Delete(ctx, location)
		return DocumentView{}, err
	}
	if err := s.documents.CreateWithOutboxTx(ctx, doc, event); err != nil {
		// The blob is orphaned without its record; remove it before failing.
		if delErr := s.blobs.Delete(ctx, location); delErr != nil {
			s.logger.ErrorContext(ctx, "blob rollback failed after commit error",
				"operation", "upload_document",
				"outcome", "failure",
				"document_id", doc.DocumentID,
				"error", delErr,
			)
		}
		return DocumentView{}, fmt.Errorf("persist document: %w", err)
	}

	s.logger.InfoContext(ctx, "document uploaded",
		"operation", "upload_document",
		"outcome", "success",
		"document_id", doc.DocumentID,
		"access_level", doc.AccessLevel,
		"size", doc.Size,
	)
	return toDocumentView(doc), nil
}

// GetDocument returns metadata for one document after a read policy check.
func (s *Service) GetDocument(ctx context.Context, actor domain.Actor, documentID uuid.UUID) (DocumentView, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return DocumentView{}, err
	}
	if !s.CanAccess(ctx, actor, doc, domain.OpRead) {
		return DocumentView{}, domain.ErrAccessDenied
	}
	doc.ViewCount = s.mergedViewCount(ctx, doc)
	return toDocumentView(doc), nil
}

// ViewDocument decrypts the document for inline display and bumps the view
// counter. The counter is best-effort telemetry; its failure never blocks the
// read.
func (s *Service) ViewDocument(ctx context.Context, actor domain.Actor, documentID uuid.UUID) (DocumentContent, error) {
	content, err := s.readDecrypted(ctx, actor, documentID)
	if err != nil {
		return DocumentContent{}, err
	}
	if s.views != nil {
		if err := s.views.Increment(ctx, documentID); err != nil {
			s.logger.WarnContext(ctx, "view counter increment failed",
				"operation", "view_document",
				"outcome", "partial",
				"document_id", documentID,
				"error", err,
			)
		}
	}
	return content, nil
}

// DownloadDocument decrypts the document for download without counting a view.
func (s *Service) DownloadDocument(ctx context.Context, actor domain.Actor, documentID uuid.UUID) (DocumentContent, error) {
	return s.readDecrypted(ctx, actor, documentID)
}

// readDecrypted is the single decrypt path: policy check first, then blob
// fetch, then authenticated decrypt. Decrypt failures surface as ErrIntegrity
// with the document id logged and nothing about the key; the caller sees a
// generic failure, never partial plaintext.
func (s *Service) readDecrypted(ctx context.Context, actor domain.Actor, documentID uuid.UUID) (DocumentContent, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return DocumentContent{}, err
	}
	if !s.CanAccess(ctx, actor, doc, domain.OpRead) {
		return DocumentContent{}, domain.ErrAccessDenied
	}
	if len(doc.EncryptionKey) == 0 || doc.PayloadPath == "" {
		// Key absence fails closed as an integrity failure, not a crash.
		s.logger.ErrorContext(ctx, "document missing key or payload reference",
			"operation", "read_decrypted",
			"outcome", "failure",
			"document_id", doc.DocumentID,
		)
		return DocumentContent{}, domain.ErrIntegrity
	}
	ciphertext, err := s.blobs.Fetch(ctx, doc.PayloadPath)
	if err != nil {
		return DocumentContent{}, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	plaintext, err := s.vault.Decrypt(ciphertext, doc.EncryptionKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "payload decrypt failed",
			"operation", "read_decrypted",
			"outcome", "failure",
			"document_id", doc.DocumentID,
		)
		return DocumentContent{}, err
	}
	return DocumentContent{
		DocumentID:  doc.DocumentID,
		Title:       doc.Title,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Plaintext:   plaintext,
	}, nil
}

// DeleteDocument removes the record and its encrypted payload together.
// Only the owner passes the delete policy. The row (and its outbox event) go
// first inside a transaction; the blob follows, so a crash in between leaves
// ciphertext without a key rather than a record without a payload.
func (s *Service) DeleteDocument(ctx context.Context, actor domain.Actor, documentID uuid.UUID) error {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if !s.CanAccess(ctx, actor, doc, domain.OpDelete) {
		return domain.ErrAccessDenied
	}
	now := s.nowFn()
	event, err := s.documentEvent(domain.EventDocumentDeleted, doc, now)
	if err != nil {
		return err
	}
	if err := s.documents.DeleteWithOutboxTx(ctx, doc.DocumentID, event); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := s.blobs.Delete(ctx, doc.PayloadPath); err != nil {
		s.logger.ErrorContext(ctx, "blob delete failed after record delete",
			"operation", "delete_document",
			"outcome", "partial",
			"document_id", doc.DocumentID,
			"error", err,
		)
	}
	s.logger.InfoContext(ctx, "document deleted",
		"operation", "delete_document",
		"outcome", "success",
		"document_id", doc.DocumentID,
	)
	return nil
}

// ListMyDocuments returns the actor's own documents with optional filters.
func (s *Service) ListMyDocuments(ctx context.Context, actor domain.Actor, input ListDocumentsInput) ([]DocumentView, error) {
	if actor.ID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	filter, err := s.buildFilter(input)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByOwner(ctx, actor.ID, filter)
	if err != nil {
		return nil, err
	}
	return s.toViews(ctx, docs), nil
}

// SearchDocuments is the keyword search over document metadata. Listing
// metadata is not tier-gated (matching the source's search page); reading
// content still is.
func (s *Service) SearchDocuments(ctx context.Context, actor domain.Actor, input ListDocumentsInput) ([]DocumentView, error) {
	if actor.ID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	filter, err := s.buildFilter(input)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.toViews(ctx, docs), nil
}

func (s *Service) buildFilter(input ListDocumentsInput) (ports.DocumentFilter, error) {
	filter := ports.DocumentFilter{
		Query:    strings.TrimSpace(input.Query),
		Category: strings.TrimSpace(input.Category),
		Limit:    input.Limit,
		Offset:   input.Offset,
	}
	if raw := strings.TrimSpace(input.AccessLevel); raw != "" {
		level, ok := domain.NormalizeAccessLevel(raw)
		if !ok {
			return ports.DocumentFilter{}, fmt.Errorf("%w: unknown access level %q", domain.ErrInvalidInput, raw)
		}
		filter.AccessLevel = level
	}
	if filter.Limit <= 0 {
		filter.Limit = s.cfg.DefaultListLimit
	}
	if s.cfg.MaxListLimit > 0 && filter.Limit > s.cfg.MaxListLimit {
		filter.Limit = s.cfg.MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter, nil
}

func (s *Service) toViews(ctx context.Context, docs []domain.Document) []DocumentView {
	views := make([]DocumentView, 0, len(docs))
	counts := s.viewCounts(ctx, docs)
	for _, doc := range docs {
		if n, ok := counts[doc.DocumentID]; ok && n > doc.ViewCount {
			doc.ViewCount = n
		}
		views = append(views, toDocumentView(doc))
	}
	return views
}

func (s *Service) viewCounts(ctx context.Context, docs []domain.Document) map[uuid.UUID]int64 {
	if s.views == nil || len(docs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.DocumentID)
	}
	counts, err := s.views.GetMany(ctx, ids)
	if err != nil {
		return nil
	}
	return counts
}

func (s *Service) mergedViewCount(ctx context.Context, doc domain.Document) int64 {
	if s.views == nil {
		return doc.ViewCount
	}
	n, err := s.views.Get(ctx, doc.DocumentID)
	if err != nil || n < doc.ViewCount {
		return doc.ViewCount
	}
	return n
}

func contentTypeOrDefault(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "application/octet-stream"
	}
	return raw
}

func blobName(doc domain.Document) string {
	return fmt.Sprintf("%s_%s", doc.OwnerID, doc.DocumentID)
}
