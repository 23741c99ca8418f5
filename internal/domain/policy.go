package domain

import "github.com/google/uuid"

// Operation is an action an actor can attempt on a document.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
)

// Actor is the authenticated identity evaluated by the policy. Superuser
// status authorizes workflow transitions (approve/deny on behalf of owners)
// but does not bypass read policy; that matches the source system, where
// admin reads still went through the tier rules.
type Actor struct {
	ID        uuid.UUID
	Role      string
	Superuser bool
}

// CanAccess is the single access decision function consumed by every entry
// point. It is a pure function of its inputs; callers load the actor's grant
// state for the document beforehand. First matching rule wins:
//
//  1. the owner may read, write, and delete;
//  2. nobody else may delete;
//  3. public and internal documents are readable by any actor;
//  4. restricted documents are readable with a view-restricted grant;
//  5. private documents are readable with a view-private grant;
//  6. everything else is denied.
//
// Non-owner write has no path in the system and falls through to deny.
func CanAccess(actor Actor, doc Document, op Operation, grants GrantSet) bool {
	if actor.ID == doc.OwnerID {
		return op == OpRead || op == OpWrite || op == OpDelete
	}
	if op != OpRead {
		return false
	}
	switch doc.AccessLevel {
	case AccessPublic, AccessInternal:
		return true
	case AccessRestricted:
		return grants.Holds(CapabilityViewRestricted, doc.DocumentID)
	case AccessPrivate:
		return grants.Holds(CapabilityViewPrivate, doc.DocumentID)
	default:
		return false
	}
}
