package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the access request workflow state. Pending transitions to
// approved or denied exactly once; both are terminal.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDenied   RequestStatus = "denied"
)

type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityNormal RequestPriority = "normal"
	PriorityHigh   RequestPriority = "high"
)

// AccessRequest is a requester's petition to read a non-public document.
// Content belongs to the requester; status transitions belong to the
// document's owner (or a superuser).
type AccessRequest struct {
	RequestID   uuid.UUID
	RequesterID uuid.UUID
	DocumentID  uuid.UUID
	Status      RequestStatus
	Reason      string
	Priority    RequestPriority
	RequestDate time.Time
	DecidedAt   *time.Time
	DecidedBy   *uuid.UUID
}

// Terminal reports whether the request reached an immutable state.
func (r AccessRequest) Terminal() bool {
	return r.Status == RequestApproved || r.Status == RequestDenied
}

// NormalizePriority maps free-form input onto a known priority, defaulting to normal.
func NormalizePriority(raw string) RequestPriority {
	switch RequestPriority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// CanDecide reports whether the actor may approve or deny a request for the
// given document: its owner, or a superuser.
func CanDecide(actor Actor, doc Document) bool {
	return actor.ID == doc.OwnerID || actor.Superuser
}
