package application

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/domain"
	"github.com/securedocs/document-service/internal/ports"
)

// documentEvent builds the outbox payload for document lifecycle events.
// Payloads carry metadata only; content and key material never enter the
// event stream.
func (s *Service) documentEvent(eventType string, doc domain.Document, at time.Time) (ports.OutboxEvent, error) {
	payload, err := json.Marshal(map[string]any{
		"document_id":  doc.DocumentID.String(),
		"owner_id":     doc.OwnerID.String(),
		"access_level": string(doc.AccessLevel),
		"category":     doc.Category,
		"size":         doc.Size,
		"occurred_at":  at.Format(time.RFC3339),
	})
	if err != nil {
		return ports.OutboxEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: doc.DocumentID.String(),
		Payload:      payload,
		OccurredAt:   at,
	}, nil
}

func (s *Service) requestEvent(eventType string, req domain.AccessRequest, doc domain.Document, decidedBy uuid.UUID, at time.Time) (ports.OutboxEvent, error) {
	payload, err := json.Marshal(map[string]any{
		"request_id":   req.RequestID.String(),
		"requester_id": req.RequesterID.String(),
		"document_id":  doc.DocumentID.String(),
		"access_level": string(doc.AccessLevel),
		"decided_by":   decidedBy.String(),
		"occurred_at":  at.Format(time.RFC3339),
	})
	if err != nil {
		return ports.OutboxEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: doc.DocumentID.String(),
		Payload:      payload,
		OccurredAt:   at,
	}, nil
}
