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

	"heritage/internal/identity"
	identityhandler "heritage/internal/identity/handler"
	id "heritage/pkg/domain"
	"heritage/pkg/testutil"
)

func newRouter(t *testing.T) (http.Handler, *identity.Service) {
	t.Helper()
	service := identity.NewService(identity.NewInMemoryStore())
	r := chi.NewRouter()
	identityhandler.New(service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, service
}

func TestProvision(t *testing.T) {
	t.Run("provisions a fresh owner", func(t *testing.T) {
		router, service := newRouter(t)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/owners", map[string]string{
			"email": "owner@example.com",
			"pin":   "4821",
		}))
		testutil.AssertStatus(t, rr, http.StatusCreated)

		resp := testutil.UnmarshalResponse[struct {
			UserID string `json:"user_id"`
		}](t, rr)
		userID, err := id.ParseUserID(resp.UserID)
		require.NoError(t, err)

		assert.True(t, service.VerifyPIN(context.Background(), userID, "4821"))
		email, err := service.Email(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, "owner@example.com", email)
	})

	t.Run("accepts an explicit user id", func(t *testing.T) {
		router, _ := newRouter(t)
		userID := id.NewUserID()

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/owners", map[string]string{
			"user_id": userID.String(),
			"email":   "owner@example.com",
			"pin":     "4821",
		}))
		testutil.AssertStatus(t, rr, http.StatusCreated)

		resp := testutil.UnmarshalResponse[struct {
			UserID string `json:"user_id"`
		}](t, rr)
		assert.Equal(t, userID.String(), resp.UserID)
	})

	t.Run("rejects a malformed user id", func(t *testing.T) {
		router, _ := newRouter(t)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/owners", map[string]string{
			"user_id": "not-a-uuid",
			"email":   "owner@example.com",
			"pin":     "4821",
		}))
		testutil.AssertErrorCode(t, rr, "invalid_input")
	})

	t.Run("rejects a short pin", func(t *testing.T) {
		router, _ := newRouter(t)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/owners", map[string]string{
			"email": "owner@example.com",
			"pin":   "12",
		}))
		testutil.AssertErrorCode(t, rr, "invalid_input")
	})
}
