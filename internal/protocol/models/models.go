// Package models defines the succession record: the durable designation
// document (Will or Trust), its lifecycle status, and the validation rules
// the wizard gates enforce.
package models

import (
	"time"

	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
)

// ProtocolType discriminates the designation payload.
type ProtocolType string

const (
	ProtocolWill  ProtocolType = "will"
	ProtocolTrust ProtocolType = "trust"
)

// ParseProtocolType validates against the explicit allow-list. Anything
// outside it is a hard validation failure, never inferred or coerced.
func ParseProtocolType(s string) (ProtocolType, error) {
	t := ProtocolType(s)
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid protocol type %q: must be 'will' or 'trust'", s)
	}
	return t, nil
}

func (t ProtocolType) IsValid() bool {
	return t == ProtocolWill || t == ProtocolTrust
}

func (t ProtocolType) String() string { return string(t) }

// MaritalStatus for Will designations.
type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

func (m MaritalStatus) IsValid() bool {
	switch m {
	case MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed:
		return true
	}
	return false
}

// TrusteeMode selects how a Trust is initially administered.
type TrusteeMode string

const (
	TrusteeSelf             TrusteeMode = "self"
	TrusteeSelfSpouseJoint  TrusteeMode = "self_spouse_joint"
	TrusteeCorporateTrustee TrusteeMode = "corporate"
)

func (m TrusteeMode) IsValid() bool {
	switch m {
	case TrusteeSelf, TrusteeSelfSpouseJoint, TrusteeCorporateTrustee:
		return true
	}
	return false
}

// WillData is the Will designation payload.
type WillData struct {
	FullName            string        `json:"full_name"`
	County              string        `json:"county"`
	MaritalStatus       MaritalStatus `json:"marital_status"`
	SpouseName          string        `json:"spouse_name,omitempty"`
	ChildrenNames       []string      `json:"children_names,omitempty"`
	ExecutorName        string        `json:"executor_name"`
	BeneficiaryName     string        `json:"beneficiary_name"`
	BeneficiaryRelation string        `json:"beneficiary_relation,omitempty"`
}

// TrustData is the Trust designation payload.
type TrustData struct {
	FullName             string      `json:"full_name"`
	County               string      `json:"county"`
	InitialTrusteeMode   TrusteeMode `json:"initial_trustee_mode"`
	CorporateTrusteeName string      `json:"corporate_trustee_name,omitempty"`
	JointTrusteeName     string      `json:"joint_trustee_name,omitempty"`
	SuccessorTrustee     string      `json:"successor_trustee"`
	TrustBeneficiaries   string      `json:"trust_beneficiaries"`
	SafetyNetExecutor    string      `json:"safety_net_executor"`
}

// ProtocolData is the finalized discriminated payload stored on a record.
// Exactly one of Will/Trust is set, matching Type.
type ProtocolData struct {
	Type  ProtocolType `json:"type"`
	Will  *WillData    `json:"will,omitempty"`
	Trust *TrustData   `json:"trust,omitempty"`

	FinalizedAt time.Time `json:"finalized_at"`
	// ProtocolSeed is assigned once, at the persistence boundary, and is
	// immutable for the record's lifetime.
	ProtocolSeed       string     `json:"protocol_seed,omitempty"`
	LastAnnualNoticeAt *time.Time `json:"last_annual_notice_at,omitempty"`
}

// SuccessorName returns the person a review notice addresses: the executor
// for a Will, the successor trustee for a Trust.
func (d ProtocolData) SuccessorName() string {
	switch d.Type {
	case ProtocolWill:
		if d.Will != nil {
			return d.Will.ExecutorName
		}
	case ProtocolTrust:
		if d.Trust != nil {
			return d.Trust.SuccessorTrustee
		}
	}
	return ""
}

// PrincipalName returns the designating party's full name.
func (d ProtocolData) PrincipalName() string {
	switch d.Type {
	case ProtocolWill:
		if d.Will != nil {
			return d.Will.FullName
		}
	case ProtocolTrust:
		if d.Trust != nil {
			return d.Trust.FullName
		}
	}
	return ""
}

// Validate checks structural consistency of a finalized payload.
func (d ProtocolData) Validate() error {
	if !d.Type.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "protocol data has no valid type")
	}
	switch d.Type {
	case ProtocolWill:
		if d.Will == nil || d.Trust != nil {
			return dErrors.New(dErrors.CodeInvariantViolation, "will protocol must carry exactly the will payload")
		}
	case ProtocolTrust:
		if d.Trust == nil || d.Will != nil {
			return dErrors.New(dErrors.CodeInvariantViolation, "trust protocol must carry exactly the trust payload")
		}
	}
	if d.FinalizedAt.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "protocol data is not finalized")
	}
	return nil
}

// RecordStatus tracks a record's place in the chain of custody. Records are
// never deleted: a newly anchored record supersedes the prior active one.
type RecordStatus string

const (
	StatusActive     RecordStatus = "active"
	StatusSuperseded RecordStatus = "superseded"
)

// SuccessionRecord is the durable entity: at most one active record exists
// per user at a time.
type SuccessionRecord struct {
	ID           id.RecordID  `json:"id"`
	UserID       id.UserID    `json:"user_id"`
	Data         ProtocolData `json:"protocol_data"`
	Status       RecordStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	SupersededAt *time.Time   `json:"superseded_at,omitempty"`
}

// ReviewReference returns the anchor for the annual-review clock: the last
// notice stamp when one exists, otherwise record creation. The clock resets
// only when a notice is queued and stamped, never on mere reads.
func (r SuccessionRecord) ReviewReference() time.Time {
	if r.Data.LastAnnualNoticeAt != nil {
		return *r.Data.LastAnnualNoticeAt
	}
	return r.CreatedAt
}

// Supersede transitions the record out of the active chain.
func (r *SuccessionRecord) Supersede(at time.Time) {
	r.Status = StatusSuperseded
	r.SupersededAt = &at
}
