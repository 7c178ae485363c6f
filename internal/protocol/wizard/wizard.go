// Package wizard implements the multi-step designation form as a pure state
// machine. It owns navigation and per-step validation gates only: no seed
// generation, no persistence, no audit. Finalize hands a payload to the
// caller, which keeps this package trivially testable.
package wizard

import (
	"strings"
	"time"

	dErrors "heritage/pkg/domain-errors"
	"heritage/internal/protocol/models"
)

// Step counts per mode. The terminal step is a read-only preview/confirm.
const (
	willSteps  = 5
	trustSteps = 6
)

// Wizard collects Will or Trust data across steps 1..N. Data persists across
// navigation; going back never discards or re-validates lower steps.
type Wizard struct {
	protocolType models.ProtocolType
	step         int

	will  models.WillData
	trust models.TrustData
}

// New creates a wizard for the given protocol type, positioned at step 1.
func New(protocolType models.ProtocolType) (*Wizard, error) {
	if !protocolType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid protocol type %q", protocolType)
	}
	return &Wizard{protocolType: protocolType, step: 1}, nil
}

// Type returns the protocol type this wizard collects.
func (w *Wizard) Type() models.ProtocolType { return w.protocolType }

// Step returns the current step, 1-based.
func (w *Wizard) Step() int { return w.step }

// Steps returns the total step count for this mode.
func (w *Wizard) Steps() int {
	if w.protocolType == models.ProtocolTrust {
		return trustSteps
	}
	return willSteps
}

// AtPreview reports whether the wizard is on the terminal preview step.
func (w *Wizard) AtPreview() bool { return w.step == w.Steps() }

// SetWill merges Will fields into the draft. Updates are allowed at any
// step; gates are only checked on Next.
func (w *Wizard) SetWill(data models.WillData) error {
	if w.protocolType != models.ProtocolWill {
		return dErrors.New(dErrors.CodeInvalidInput, "wizard is not collecting a will")
	}
	w.will = data
	return nil
}

// SetTrust merges Trust fields into the draft.
func (w *Wizard) SetTrust(data models.TrustData) error {
	if w.protocolType != models.ProtocolTrust {
		return dErrors.New(dErrors.CodeInvalidInput, "wizard is not collecting a trust")
	}
	w.trust = data
	return nil
}

// Will returns a copy of the current Will draft.
func (w *Wizard) Will() models.WillData { return w.will }

// Trust returns a copy of the current Trust draft.
func (w *Wizard) Trust() models.TrustData { return w.trust }

// Next advances one step if the current step's gate passes. On gate failure
// the step counter does not move and the gate error is returned.
func (w *Wizard) Next() error {
	if w.AtPreview() {
		return dErrors.New(dErrors.CodeInvalidInput, "already at the final step")
	}
	if err := w.gate(w.step); err != nil {
		return err
	}
	w.step++
	return nil
}

// Back moves one step back. Always permitted; data persists.
func (w *Wizard) Back() {
	if w.step > 1 {
		w.step--
	}
}

// Finalize produces the designation payload. It is only callable at the
// terminal step, after re-checking every gate. The payload carries no seed:
// seed assignment belongs to the persistence boundary so that re-finalizing
// before persistence never wastes one.
func (w *Wizard) Finalize(now time.Time) (models.ProtocolData, error) {
	if !w.AtPreview() {
		return models.ProtocolData{}, dErrors.Newf(dErrors.CodeInvalidInput,
			"cannot finalize at step %d of %d", w.step, w.Steps())
	}
	for step := 1; step < w.Steps(); step++ {
		if err := w.gate(step); err != nil {
			return models.ProtocolData{}, err
		}
	}

	data := models.ProtocolData{Type: w.protocolType, FinalizedAt: now}
	switch w.protocolType {
	case models.ProtocolWill:
		will := w.will
		data.Will = &will
	case models.ProtocolTrust:
		trust := w.trust
		data.Trust = &trust
	}
	return data, nil
}

// gate returns nil when the given step's validation gate holds.
func (w *Wizard) gate(step int) error {
	if w.protocolType == models.ProtocolWill {
		return w.willGate(step)
	}
	return w.trustGate(step)
}

func (w *Wizard) willGate(step int) error {
	switch step {
	case 1:
		if blank(w.will.FullName) {
			return gateErr("full_name")
		}
		if blank(w.will.County) {
			return gateErr("county")
		}
		return nil
	case 2:
		if !w.will.MaritalStatus.IsValid() {
			return gateErr("marital_status")
		}
		if w.will.MaritalStatus == models.MaritalMarried && blank(w.will.SpouseName) {
			return gateErr("spouse_name")
		}
		return nil
	case 3:
		if blank(w.will.ExecutorName) {
			return gateErr("executor_name")
		}
		return nil
	case 4:
		if blank(w.will.BeneficiaryName) {
			return gateErr("beneficiary_name")
		}
		return nil
	default:
		return nil
	}
}

func (w *Wizard) trustGate(step int) error {
	switch step {
	case 1:
		if blank(w.trust.FullName) {
			return gateErr("full_name")
		}
		if blank(w.trust.County) {
			return gateErr("county")
		}
		return nil
	case 2:
		if !w.trust.InitialTrusteeMode.IsValid() {
			return gateErr("initial_trustee_mode")
		}
		if w.trust.InitialTrusteeMode == models.TrusteeCorporateTrustee && blank(w.trust.CorporateTrusteeName) {
			return gateErr("corporate_trustee_name")
		}
		if w.trust.InitialTrusteeMode == models.TrusteeSelfSpouseJoint && blank(w.trust.JointTrusteeName) {
			return gateErr("joint_trustee_name")
		}
		return nil
	case 3:
		if blank(w.trust.SuccessorTrustee) {
			return gateErr("successor_trustee")
		}
		return nil
	case 4:
		if blank(w.trust.TrustBeneficiaries) {
			return gateErr("trust_beneficiaries")
		}
		return nil
	case 5:
		if blank(w.trust.SafetyNetExecutor) {
			return gateErr("safety_net_executor")
		}
		return nil
	default:
		return nil
	}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func gateErr(field string) error {
	return dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
}

