// Package server assembles the HTTP surface: the admin rooms API, the
// WebSocket upgrade endpoint, and the ops endpoints (health, metrics).
package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukepan/multi-rooms-chat-back/internal/admin"
	"github.com/dukepan/multi-rooms-chat-back/internal/auth"
	"github.com/dukepan/multi-rooms-chat-back/internal/dispatch"
	"github.com/dukepan/multi-rooms-chat-back/internal/domain"
	"github.com/dukepan/multi-rooms-chat-back/internal/metrics"
	"github.com/dukepan/multi-rooms-chat-back/internal/middleware"
)

func parseRoomID(s string) (domain.RoomId, error) {
	return domain.ParseRoomId(s)
}

// Router is the top-level HTTP handler.
type Router struct {
	mux *http.ServeMux
}

// NewRouter wires the admin, dispatch and ops handlers behind the
// appropriate middleware chains. The WebSocket upgrade endpoint only
// gets auth middleware -- it is explicitly not rate limited, since a
// long-lived connection isn't a repeatable request.
func NewRouter(
	admin *admin.Handlers,
	dispatcher *dispatch.Dispatcher,
	verifier auth.Verifier,
	rateLimiter *middleware.RateLimiter,
	promRegistry *prometheus.Registry,
) http.Handler {
	mux := http.NewServeMux()

	authMW := auth.Middleware(verifier)

	mux.HandleFunc("GET /ping", pingHandler)
	mux.HandleFunc("GET /health", pingHandler)
	mux.HandleFunc("GET /healthz", healthzHandler)
	mux.Handle("GET /metrics", metrics.Handler(promRegistry))

	mux.Handle("POST /api/rooms", authMW(rateLimiter.Middleware(http.HandlerFunc(admin.CreateRoom))))
	mux.Handle("GET /api/rooms", authMW(rateLimiter.Middleware(http.HandlerFunc(admin.ListRooms))))
	mux.Handle("DELETE /api/rooms/{roomId}", authMW(rateLimiter.Middleware(http.HandlerFunc(cancelRoomHandler(admin)))))

	mux.Handle("GET /websocket", authMW(dispatcher))

	routed := middleware.TracingMiddleware(mux)
	routed = middleware.RequestIDMiddleware(routed)
	return notFoundWrapper(routed)
}

func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"ping": "pong!"})
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func cancelRoomHandler(h *admin.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, err := parseRoomID(r.PathValue("roomId"))
		if err != nil {
			http.Error(w, `{"error":"invalid room id"}`, http.StatusBadRequest)
			return
		}
		h.CancelRoom(w, r, roomID)
	}
}

// notFoundWrapper gives unmatched routes a JSON 404 body instead of
// ServeMux's default plain-text response.
func notFoundWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		if rw.status == http.StatusNotFound && !rw.wrote {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	if status != http.StatusNotFound {
		r.wrote = true
		r.ResponseWriter.WriteHeader(status)
	}
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == http.StatusNotFound && !r.wrote {
		return len(b), nil
	}
	r.wrote = true
	return r.ResponseWriter.Write(b)
}
