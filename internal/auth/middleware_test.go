package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukepan/multi-rooms-chat-back/internal/contextkey"
	"github.com/dukepan/multi-rooms-chat-back/internal/identity"
)

type fakeVerifier struct {
	principal identity.Principal
	err       error
}

func (f fakeVerifier) Verify(tokenString string) (identity.Principal, error) {
	if f.err != nil {
		return identity.Principal{}, f.err
	}
	return f.principal, nil
}

func TestMiddlewarePrefersQueryToken(t *testing.T) {
	want := identity.Principal{Subject: "host-1", Roles: identity.NewRoleSet(identity.RoleHost)}
	var got identity.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = r.Context().Value(contextkey.ContextKeyPrincipal).(identity.Principal)
		w.WriteHeader(http.StatusOK)
	})

	handler := Middleware(fakeVerifier{principal: want})(next)
	req := httptest.NewRequest(http.MethodGet, "/websocket?token=abc", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got.Subject != want.Subject {
		t.Errorf("principal subject = %q, want %q", got.Subject, want.Subject)
	}
}

func TestMiddlewareFallsBackToBearerHeader(t *testing.T) {
	want := identity.Principal{Subject: "u1", Roles: identity.NewRoleSet(identity.RoleUser)}
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	handler := Middleware(fakeVerifier{principal: want})(next)
	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Error("expected the next handler to run")
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run without a token")
	})

	handler := Middleware(fakeVerifier{})(next)
	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestMiddlewareRejectsVerifyError(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run on a verify error")
	})

	handler := Middleware(fakeVerifier{err: errBadToken{}})(next)
	req := httptest.NewRequest(http.MethodGet, "/api/rooms?token=bad", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

type errBadToken struct{}

func (errBadToken) Error() string { return "bad token" }
