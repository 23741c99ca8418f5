package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/domain"
	"github.com/securedocs/document-service/internal/ports"
)

// SubmitAccessRequest opens a pending request for a non-public document.
// Owners and actors on public/internal documents already have access; a
// second submission while one is pending is rejected, not duplicated. The
// duplicate check is enforced again inside the repository transaction, so a
// concurrent double-submit cannot create two pending rows.
func (s *Service) SubmitAccessRequest(ctx context.Context, actor domain.Actor, input SubmitAccessRequestInput) (AccessRequestView, error) {
	if actor.ID == uuid.Nil {
		return AccessRequestView{}, domain.ErrUnauthorized
	}
	doc, err := s.documents.GetByID(ctx, input.DocumentID)
	if err != nil {
		return AccessRequestView{}, err
	}
	if actor.ID == doc.OwnerID || !doc.AccessLevel.RequiresAccessRequest() {
		return AccessRequestView{}, domain.ErrAlreadyHasAccess
	}

	now := s.nowFn()
	pending := domain.AccessRequest{RequestID: uuid.New(), RequesterID: actor.ID, DocumentID: doc.DocumentID}
	event, err := s.requestEvent(domain.EventAccessRequestSubmitted, pending, doc, actor.ID, now)
	if err != nil {
		return AccessRequestView{}, err
	}
	req, err := s.requests.Submit(ctx, ports.SubmitRequestParams{
		RequestID:   pending.RequestID,
		RequesterID: actor.ID,
		DocumentID:  doc.DocumentID,
		Reason:      strings.TrimSpace(input.Reason),
		Priority:    domain.NormalizePriority(input.Priority),
		SubmittedAt: now,
	}, event)
	if err != nil {
		return AccessRequestView{}, err
	}

	s.logger.InfoContext(ctx, "access request submitted",
		"operation", "submit_access_request",
		"outcome", "success",
		"request_id", req.RequestID,
		"document_id", doc.DocumentID,
		"priority", req.Priority,
	)
	return toAccessRequestView(req), nil
}

// ApproveAccessRequest transitions a pending request to approved and records
// the grant that unlocks the document's tier for the requester. Only the
// document owner or a superuser may decide. Re-approving an approved request
// is a no-op; approving a denied one fails. The status flip, the grant
// insert, and the outbox event commit in one transaction, so racing
// decisions on the same request resolve to exactly one winner and at most
// one grant.
func (s *Service) ApproveAccessRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID) error {
	req, doc, err := s.loadRequestForDecision(ctx, actor, requestID)
	if err != nil {
		return err
	}
	capability, ok := domain.CapabilityForLevel(doc.AccessLevel)
	if !ok {
		// Tier changed to public/internal after submission; nothing to grant.
		return fmt.Errorf("%w: document is no longer gated", domain.ErrInvalidStateTransition)
	}

	now := s.nowFn()
	grant := domain.Grant{
		SubjectID:  req.RequesterID,
		Capability: capability,
		Scope:      doc.DocumentID.String(),
		GrantedAt:  now,
	}
	event, err := s.requestEvent(domain.EventAccessRequestApproved, req, doc, actor.ID, now)
	if err != nil {
		return err
	}
	if err := s.requests.ApproveTx(ctx, req.RequestID, actor.ID, now, grant, event); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "access request approved",
		"operation", "approve_access_request",
		"outcome", "success",
		"request_id", req.RequestID,
		"document_id", doc.DocumentID,
		"capability", capability,
	)
	return nil
}

// DenyAccessRequest transitions a pending request to denied. No grant side
// effect. Denying a request that already reached a terminal state, denied
// included, fails with ErrInvalidStateTransition; only approve retries are
// idempotent.
func (s *Service) DenyAccessRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID) error {
	req, doc, err := s.loadRequestForDecision(ctx, actor, requestID)
	if err != nil {
		return err
	}
	now := s.nowFn()
	event, err := s.requestEvent(domain.EventAccessRequestDenied, req, doc, actor.ID, now)
	if err != nil {
		return err
	}
	if err := s.requests.DenyTx(ctx, req.RequestID, actor.ID, now, event); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "access request denied",
		"operation", "deny_access_request",
		"outcome", "success",
		"request_id", req.RequestID,
		"document_id", doc.DocumentID,
	)
	return nil
}

// ListAccessRequests returns the actor's own submissions plus pending
// requests awaiting the actor's decision as a document owner.
func (s *Service) ListAccessRequests(ctx context.Context, actor domain.Actor) (AccessRequestList, error) {
	if actor.ID == uuid.Nil {
		return AccessRequestList{}, domain.ErrUnauthorized
	}
	mine, err := s.requests.ListByRequester(ctx, actor.ID)
	if err != nil {
		return AccessRequestList{}, err
	}
	pending, err := s.requests.ListPendingByOwner(ctx, actor.ID)
	if err != nil {
		return AccessRequestList{}, err
	}

	list := AccessRequestList{
		MyRequests:      make([]AccessRequestView, 0, len(mine)),
		PendingForOwner: make([]AccessRequestView, 0, len(pending)),
	}
	for _, req := range mine {
		list.MyRequests = append(list.MyRequests, toAccessRequestView(req))
	}
	for _, req := range pending {
		list.PendingForOwner = append(list.PendingForOwner, toAccessRequestView(req))
	}
	return list, nil
}

func (s *Service) loadRequestForDecision(ctx context.Context, actor domain.Actor, requestID uuid.UUID) (domain.AccessRequest, domain.Document, error) {
	if actor.ID == uuid.Nil {
		return domain.AccessRequest{}, domain.Document{}, domain.ErrUnauthorized
	}
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return domain.AccessRequest{}, domain.Document{}, err
	}
	doc, err := s.documents.GetByID(ctx, req.DocumentID)
	if err != nil {
		return domain.AccessRequest{}, domain.Document{}, err
	}
	if !domain.CanDecide(actor, doc) {
		return domain.AccessRequest{}, domain.Document{}, domain.ErrAccessDenied
	}
	return req, doc, nil
}
