package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage/internal/audit"
	"heritage/internal/console"
	consolehandler "heritage/internal/console/handler"
	"heritage/internal/notify"
	"heritage/internal/protocol/models"
	protocolservice "heritage/internal/protocol/service"
	"heritage/internal/protocol/store"
	"heritage/internal/review"
	"heritage/internal/vault"
	id "heritage/pkg/domain"
	"heritage/pkg/testutil"
)

type pinStub struct{ pin string }

func (v pinStub) VerifyPIN(ctx context.Context, userID id.UserID, pin string) bool {
	return pin == v.pin
}

type emailStub string

func (e emailStub) Email(ctx context.Context, userID id.UserID) (string, error) {
	return string(e), nil
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	userID := id.NewUserID()
	records := store.NewInMemoryStore()
	publisher := audit.NewPublisher(audit.NewInMemoryStore())
	registry := vault.NewRegistry(userID, pinStub{pin: "4821"}, publisher, vault.WithPINDelay(0))
	anchors := protocolservice.NewService(records, publisher)
	reviews := review.NewService(notify.NewInMemoryQueue(), records, publisher)

	session := console.NewConsole(userID, registry, console.NewLoader(records),
		anchors, reviews, emailStub("owner@example.com"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	consolehandler.New(session, userID, publisher, logger).Register(r)
	return r
}

func TestVaultRoutes(t *testing.T) {
	t.Run("open lands on the locked gate", func(t *testing.T) {
		router := newRouter(t)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/vault/open", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)

		view := testutil.UnmarshalResponse[console.View](t, rr)
		assert.Equal(t, vault.StateOpenLocked, view.Vault.State)
		assert.Nil(t, view.Record)
	})

	t.Run("wrong pin is refused", func(t *testing.T) {
		router := newRouter(t)
		testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/vault/open", nil))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/vault/unlock", map[string]string{"pin": "0000"}))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		testutil.AssertErrorCode(t, rr, "unauthorized")
	})

	t.Run("unlock, designate, finalize, relock", func(t *testing.T) {
		router := newRouter(t)
		testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/vault/open", nil))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/vault/unlock", map[string]string{"pin": "4821"}))
		testutil.AssertStatus(t, rr, http.StatusOK)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/wizard", map[string]string{"type": "will"}))
		testutil.AssertStatus(t, rr, http.StatusCreated)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/wizard/will", models.WillData{
			FullName:        "Alex Mercer",
			County:          "Travis",
			MaritalStatus:   models.MaritalSingle,
			ExecutorName:    "Robin Vale",
			BeneficiaryName: "Jamie Mercer",
		}))
		testutil.AssertStatus(t, rr, http.StatusOK)

		view := testutil.UnmarshalResponse[console.View](t, rr)
		for step := view.WizardStep; step < 5; step++ {
			rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/wizard/next", nil))
			testutil.AssertStatus(t, rr, http.StatusOK)
		}

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/wizard/finalize", nil))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		record := testutil.UnmarshalResponse[models.SuccessionRecord](t, rr)
		assert.NotEmpty(t, record.Data.ProtocolSeed)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/vault/lock", nil))
		view = testutil.UnmarshalResponse[console.View](t, rr)
		assert.Equal(t, vault.StateOpenLocked, view.Vault.State)
		assert.True(t, view.HasRecord)
		assert.Nil(t, view.Record, "relocked gate hides the document")
	})

	t.Run("wizard behind the locked gate is forbidden", func(t *testing.T) {
		router := newRouter(t)
		testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/vault/open", nil))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/wizard", map[string]string{"type": "will"}))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
		testutil.AssertErrorCode(t, rr, "forbidden")
	})

	t.Run("audit history reflects the visit", func(t *testing.T) {
		router := newRouter(t)
		testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/vault/open", nil))
		testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/vault/close", nil))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/audit", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)

		resp := testutil.UnmarshalResponse[struct {
			Entries []audit.Entry `json:"entries"`
		}](t, rr)
		require.Len(t, resp.Entries, 2)
		assert.Equal(t, audit.ActionVaultClosed, resp.Entries[0].Action)
		assert.Equal(t, audit.ActionVaultOpened, resp.Entries[1].Action)
	})
}
