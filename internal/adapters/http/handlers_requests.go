package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/application"
	"github.com/securedocs/document-service/internal/domain"
)

type submitAccessRequestBody struct {
	Reason   string `json:"reason"`
	Priority string `json:"priority"`
}

func (h *Handler) submitAccessRequest(w http.ResponseWriter, r *http.Request) {
	const operation = "submit_access_request"
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		writeMissingActorError(ctx, w, operation)
		return
	}
	documentID, err := pathUUID(r, "document_id")
	if err != nil {
		writeValidationError(ctx, w, operation, err)
		return
	}

	var body submitAccessRequestBody
	if r.ContentLength != 0 {
		if err := decodeBody(r, &body); err != nil {
			writeValidationError(ctx, w, operation, err)
			return
		}
	}

	view, err := h.service.SubmitAccessRequest(ctx, actor, application.SubmitAccessRequestInput{
		DocumentID: documentID,
		Reason:     body.Reason,
		Priority:   body.Priority,
	})
	if err != nil {
		writeMappedError(ctx, w, operation, err)
		return
	}
	writeSuccess(w, http.StatusCreated, view)
}

func (h *Handler) listAccessRequests(w http.ResponseWriter, r *http.Request) {
	const operation = "list_access_requests"
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		writeMissingActorError(ctx, w, operation)
		return
	}

	list, err := h.service.ListAccessRequests(ctx, actor)
	if err != nil {
		writeMappedError(ctx, w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, list)
}

func (h *Handler) approveAccessRequest(w http.ResponseWriter, r *http.Request) {
	h.decideAccessRequest(w, r, "approve_access_request", h.service.ApproveAccessRequest)
}

func (h *Handler) denyAccessRequest(w http.ResponseWriter, r *http.Request) {
	h.decideAccessRequest(w, r, "deny_access_request", h.service.DenyAccessRequest)
}

func (h *Handler) decideAccessRequest(w http.ResponseWriter, r *http.Request, operation string, decide func(context.Context, domain.Actor, uuid.UUID) error) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		writeMissingActorError(ctx, w, operation)
		return
	}
	requestID, err := pathUUID(r, "request_id")
	if err != nil {
		writeValidationError(ctx, w, operation, err)
		return
	}

	if err := decide(ctx, actor, requestID); err != nil {
		writeMappedError(ctx, w, operation, err)
		return
	}
	writeMessage(w, http.StatusOK, "request "+decisionWord(operation))
}

func decisionWord(operation string) string {
	if operation == "deny_access_request" {
		return "denied"
	}
	return "approved"
}
