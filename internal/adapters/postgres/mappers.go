package postgres

import (
	"errors"

	"github.com/securedocs/document-service/internal/domain"
	"gorm.io/gorm"
)

func toDomainDocument(rec documentModel) domain.Document {
	return domain.Document{
		DocumentID:    rec.DocumentID,
		OwnerID:       rec.OwnerID,
		Title:         rec.Title,
		FileName:      rec.FileName,
		ContentType:   rec.ContentType,
		Category:      rec.Category,
		Department:    rec.Department,
		Description:   rec.Description,
		AccessLevel:   domain.AccessLevel(rec.AccessLevel),
		Size:          rec.Size,
		Status:        domain.DocumentStatus(rec.Status),
		EncryptionKey: rec.EncryptionKey,
		PayloadPath:   rec.PayloadPath,
		ViewCount:     rec.ViewCount,
		UploadDate:    rec.UploadDate,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func toDocumentModel(doc domain.Document) documentModel {
	return documentModel{
		DocumentID:    doc.DocumentID,
		OwnerID:       doc.OwnerID,
		Title:         doc.Title,
		FileName:      doc.FileName,
		ContentType:   doc.ContentType,
		Category:      doc.Category,
		Department:    doc.Department,
		Description:   doc.Description,
		AccessLevel:   string(doc.AccessLevel),
		Size:          doc.Size,
		Status:        string(doc.Status),
		EncryptionKey: doc.EncryptionKey,
		PayloadPath:   doc.PayloadPath,
		ViewCount:     doc.ViewCount,
		UploadDate:    doc.UploadDate,
		UpdatedAt:     doc.UpdatedAt,
	}
}

func toDomainRequest(rec accessRequestModel) domain.AccessRequest {
	return domain.AccessRequest{
		RequestID:   rec.RequestID,
		RequesterID: rec.RequesterID,
		DocumentID:  rec.DocumentID,
		Status:      domain.RequestStatus(rec.Status),
		Reason:      rec.Reason,
		Priority:    domain.RequestPriority(rec.Priority),
		RequestDate: rec.RequestDate,
		DecidedAt:   rec.DecidedAt,
		DecidedBy:   rec.DecidedBy,
	}
}

func toDomainGrant(rec grantModel) domain.Grant {
	return domain.Grant{
		SubjectID:  rec.SubjectID,
		Capability: domain.Capability(rec.Capability),
		Scope:      rec.Scope,
		GrantedAt:  rec.GrantedAt,
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
