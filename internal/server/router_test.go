package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukepan/multi-rooms-chat-back/internal/admin"
	"github.com/dukepan/multi-rooms-chat-back/internal/dispatch"
	"github.com/dukepan/multi-rooms-chat-back/internal/identity"
	"github.com/dukepan/multi-rooms-chat-back/internal/mailbox"
	"github.com/dukepan/multi-rooms-chat-back/internal/middleware"
	"github.com/dukepan/multi-rooms-chat-back/internal/registry"
)

type noopVerifier struct{}

func (noopVerifier) Verify(tokenString string) (identity.Principal, error) {
	return identity.Principal{}, nil
}

func newTestRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New()
	fab := mailbox.New(nil)
	adminHandlers := &admin.Handlers{Registry: reg, Fabric: fab, Logger: logger}
	dispatcher := &dispatch.Dispatcher{Registry: reg, Fabric: fab, Logger: logger}
	rateLimiter := middleware.NewRateLimiter(nil, 10, logger)
	promRegistry := prometheus.NewRegistry()

	return NewRouter(adminHandlers, dispatcher, noopVerifier{}, rateLimiter, promRegistry)
}

func TestPingReturnsPong(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ping"] != "pong!" {
		t.Errorf("got %v, want pong!", body)
	}
}

func TestHealthReturnsPong(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ping"] != "pong!" {
		t.Errorf("got %v, want pong!", body)
	}
}

func TestHealthzReturnsBareOK(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected a non-empty error message")
	}
}
