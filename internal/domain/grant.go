package domain

import (
	"time"

	"github.com/google/uuid"
)

// Capability is a named permission a subject can hold. The names mirror the
// source system's permission codenames: restricted documents are unlocked by
// view-restricted, private documents by view-private. That tier-to-capability
// mapping reads inverted (the weaker-sounding name gates the stronger tier);
// it is preserved verbatim from the source pending product confirmation, and
// must not be silently swapped.
type Capability string

const (
	CapabilityViewRestricted Capability = "view-restricted"
	CapabilityViewPrivate    Capability = "view-private"
)

// ScopeGlobal marks a grant that applies to every document at the capability's
// tier rather than one specific document.
const ScopeGlobal = ""

// Grant records that a subject holds a capability. Scope is a document id, or
// ScopeGlobal for tier-wide grants. Grants are additive and created only by
// the approval workflow; this core never revokes them.
type Grant struct {
	SubjectID  uuid.UUID
	Capability Capability
	Scope      string
	GrantedAt  time.Time
}

// GrantSet is the loaded grant state consulted by the access policy.
// It holds the subject's grants relevant to one document: document-scoped
// rows plus global rows.
type GrantSet struct {
	grants map[Capability][]string
}

func NewGrantSet(grants []Grant) GrantSet {
	set := GrantSet{grants: make(map[Capability][]string, len(grants))}
	for _, g := range grants {
		set.grants[g.Capability] = append(set.grants[g.Capability], g.Scope)
	}
	return set
}

// Holds reports whether the set contains the capability for the given
// document, either scoped to that document or globally.
func (s GrantSet) Holds(capability Capability, documentID uuid.UUID) bool {
	for _, scope := range s.grants[capability] {
		if scope == ScopeGlobal || scope == documentID.String() {
			return true
		}
	}
	return false
}

// CapabilityForLevel returns the capability that unlocks reads at the given
// tier, and false for tiers that need no capability.
func CapabilityForLevel(level AccessLevel) (Capability, bool) {
	switch level {
	case AccessRestricted:
		return CapabilityViewRestricted, true
	case AccessPrivate:
		return CapabilityViewPrivate, true
	default:
		return "", false
	}
}
