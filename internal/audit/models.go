// Package audit implements the append-only trail behind the succession
// vault. Entries are never edited or removed; that is the trail's core
// integrity property, and everything else in this package exists to keep it.
package audit

import (
	"time"

	id "heritage/pkg/domain"
)

// Action tags an audit entry. The set is closed so the ledger renderer can
// handle every case exhaustively; free-form strings are not accepted.
type Action string

const (
	ActionVaultOpened          Action = "VAULT_OPENED"
	ActionVaultClosed          Action = "VAULT_CLOSED"
	ActionManualLock           Action = "MANUAL_LOCK"
	ActionManualUnlock         Action = "MANUAL_UNLOCK"
	ActionProtocolTransition   Action = "PROTOCOL_TRANSITION"
	ActionPINVerified          Action = "PIN_VERIFIED"
	ActionPINDenied            Action = "PIN_DENIED"
	ActionBypassActivated      Action = "BYPASS_ACTIVATED"
	ActionKineticAnchorSecured Action = "KINETIC_ANCHOR_SECURED"
	ActionProtocolSuperseded   Action = "PROTOCOL_SUPERSEDED"
	ActionAnnualReviewNotice   Action = "ANNUAL_REVIEW_NOTICE_SENT"
	ActionExternalVerification Action = "EXTERNAL_VERIFICATION_EXECUTED"
)

// IsValid reports whether the action is one of the closed set.
func (a Action) IsValid() bool {
	switch a {
	case ActionVaultOpened, ActionVaultClosed, ActionManualLock,
		ActionManualUnlock, ActionProtocolTransition, ActionPINVerified,
		ActionPINDenied, ActionBypassActivated, ActionKineticAnchorSecured,
		ActionProtocolSuperseded, ActionAnnualReviewNotice,
		ActionExternalVerification:
		return true
	}
	return false
}

func (a Action) String() string { return string(a) }

// Category classifies audit actions for ledger grouping and retention.
type Category string

const (
	// CategoryAccess covers vault access-control events.
	CategoryAccess Category = "access"
	// CategoryCustody covers chain-of-custody events on the record itself.
	CategoryCustody Category = "custody"
	// CategoryPolicy covers temporal-policy events (annual review).
	CategoryPolicy Category = "policy"
	// CategoryExternal covers events triggered by parties other than the
	// vault owner.
	CategoryExternal Category = "external"
)

var actionCategories = map[Action]Category{
	ActionVaultOpened:        CategoryAccess,
	ActionVaultClosed:        CategoryAccess,
	ActionManualLock:         CategoryAccess,
	ActionManualUnlock:       CategoryAccess,
	ActionPINVerified:        CategoryAccess,
	ActionPINDenied:          CategoryAccess,
	ActionProtocolTransition: CategoryCustody,

	ActionKineticAnchorSecured: CategoryCustody,
	ActionProtocolSuperseded:   CategoryCustody,

	ActionAnnualReviewNotice: CategoryPolicy,

	ActionBypassActivated:      CategoryExternal,
	ActionExternalVerification: CategoryExternal,
}

// Category returns the category for this action. Unknown actions fall back
// to CategoryAccess, though IsValid gates them out before they get here.
func (a Action) Category() Category {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryAccess
}

// Entry is a single audit event. Entries are transport-agnostic so the
// in-memory trail, the durable store, and the ledger renderers all share
// one shape.
type Entry struct {
	Action  Action    `json:"action"`
	Details string    `json:"details"`
	Time    time.Time `json:"time"`
	// Actor records who caused the event: "owner" for vault-session actions,
	// "system" for scheduled policy actions, or a descriptor for external
	// verifiers.
	Actor string `json:"actor,omitempty"`
	// IP and Origin carry request metadata for externally-triggered events.
	IP     string `json:"ip,omitempty"`
	Origin string `json:"origin,omitempty"`
}

// ActorOwner and friends are the well-known actor values.
const (
	ActorOwner    = "owner"
	ActorSystem   = "system"
	ActorExternal = "external"
)

// UserEntry pairs an entry with the vault owner it belongs to, for durable
// storage.
type UserEntry struct {
	UserID id.UserID
	Entry
}
