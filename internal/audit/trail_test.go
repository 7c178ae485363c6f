package audit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrailAppendAndSnapshot(t *testing.T) {
	t.Run("snapshot is newest-first", func(t *testing.T) {
		trail := NewTrail(8)
		for i := 0; i < 3; i++ {
			trail.Append(Entry{Action: ActionVaultOpened, Details: fmt.Sprintf("open %d", i)})
		}

		snap := trail.Snapshot()
		assert.Len(t, snap, 3)
		assert.Equal(t, "open 2", snap[0].Details)
		assert.Equal(t, "open 0", snap[2].Details)
	})

	t.Run("capacity bounds the window without reordering", func(t *testing.T) {
		trail := NewTrail(4)
		for i := 0; i < 10; i++ {
			trail.Append(Entry{Action: ActionManualLock, Details: fmt.Sprintf("e%d", i)})
		}

		snap := trail.Snapshot()
		assert.Len(t, snap, 4)
		assert.Equal(t, "e9", snap[0].Details)
		assert.Equal(t, "e6", snap[3].Details)
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		trail := NewTrail(4)
		trail.Append(Entry{Action: ActionVaultOpened, Time: time.Now()})

		snap := trail.Snapshot()
		snap[0].Details = "mutated"

		assert.Empty(t, trail.Snapshot()[0].Details)
	})
}

func TestActionCategories(t *testing.T) {
	t.Run("every valid action has a category", func(t *testing.T) {
		actions := []Action{
			ActionVaultOpened, ActionVaultClosed, ActionManualLock,
			ActionManualUnlock, ActionProtocolTransition, ActionPINVerified,
			ActionPINDenied, ActionBypassActivated, ActionKineticAnchorSecured,
			ActionProtocolSuperseded, ActionAnnualReviewNotice,
			ActionExternalVerification,
		}
		for _, a := range actions {
			assert.True(t, a.IsValid(), "action %s", a)
			assert.NotEmpty(t, a.Category(), "action %s", a)
		}
	})

	t.Run("free-form strings are rejected", func(t *testing.T) {
		assert.False(t, Action("SOMETHING_ELSE").IsValid())
	})
}
