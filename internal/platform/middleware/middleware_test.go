package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage/pkg/requestcontext"
)

func capture(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) (context.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var captured context.Context
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Context()
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.NotNil(t, captured)
	return captured, rec
}

func TestRequestID(t *testing.T) {
	t.Run("generates an ID when none is supplied", func(t *testing.T) {
		ctx, rec := capture(t, RequestID, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, requestcontext.RequestID(ctx))
		assert.Equal(t, requestcontext.RequestID(ctx), rec.Header().Get("X-Request-ID"))
	})

	t.Run("honors an inbound X-Request-ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-42")
		ctx, _ := capture(t, RequestID, req)
		assert.Equal(t, "req-42", requestcontext.RequestID(ctx))
	})
}

func TestClientMetadata(t *testing.T) {
	t.Run("prefers the first X-Forwarded-For entry", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		ctx, _ := capture(t, ClientMetadata, req)
		assert.Equal(t, "203.0.113.7", requestcontext.ClientIP(ctx))
	})

	t.Run("falls back to RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.4:52100"
		ctx, _ := capture(t, ClientMetadata, req)
		assert.Equal(t, "198.51.100.4", requestcontext.ClientIP(ctx))
	})

	t.Run("derives a readable origin from the user agent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
		ctx, _ := capture(t, ClientMetadata, req)
		assert.Contains(t, requestcontext.Origin(ctx), "Chrome 126")
	})
}

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("matching token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Admin-Token", "s3cret")
		rec := httptest.NewRecorder()
		RequireAdminToken("s3cret", logger)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("wrong token is refused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Admin-Token", "guess")
		rec := httptest.NewRecorder()
		RequireAdminToken("s3cret", logger)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unset expected token refuses everything", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		RequireAdminToken("", logger)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
