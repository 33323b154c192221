package auth

import (
	"context"
	"net/http"

	"github.com/dukepan/multi-rooms-chat-back/internal/contextkey"
)

// Middleware verifies the caller's token and attaches the resolved
// Principal to the request context. HTTP callers present the token as
// a Bearer header; the upgrade endpoint presents it as a query
// parameter, since browsers cannot set headers on a WebSocket
// handshake.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("token")
			if token == "" {
				var err error
				token, err = ExtractBearer(r.Header.Get("Authorization"))
				if err != nil {
					http.Error(w, `{"error":"missing token"}`, http.StatusUnauthorized)
					return
				}
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), contextkey.ContextKeyPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
