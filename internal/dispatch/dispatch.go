// Package dispatch upgrades an authenticated HTTP request into the
// appropriate session after validating the room and the role (and,
// for a host, room ownership) of the connection attempt.
package dispatch

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/dukepan/multi-rooms-chat-back/internal/contextkey"
	"github.com/dukepan/multi-rooms-chat-back/internal/domain"
	"github.com/dukepan/multi-rooms-chat-back/internal/identity"
	"github.com/dukepan/multi-rooms-chat-back/internal/mailbox"
	"github.com/dukepan/multi-rooms-chat-back/internal/registry"
	"github.com/dukepan/multi-rooms-chat-back/internal/session"
	"github.com/dukepan/multi-rooms-chat-back/internal/wire"
)

// ConnType is the query-parameter-selected side of the connection.
type ConnType string

const (
	ConnHost ConnType = "host"
	ConnUser ConnType = "user"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Dispatcher wires the registry and fabric into the upgrade handler.
type Dispatcher struct {
	Registry *registry.Registry
	Fabric   *mailbox.Fabric
	Logger   *slog.Logger

	// OnHostEnd and OnUserEnd, if set, are invoked with the room (and,
	// for a user, the user id) and the disconnect reason after a host or
	// user session's teardown completes.
	OnHostEnd func(roomID domain.RoomId, reason string)
	OnUserEnd func(roomID domain.RoomId, userID domain.UserId, reason string)
}

// Outcome classifies the result of validating an upgrade request,
// independent of the HTTP status code a caller chooses to map it to.
type Outcome int

const (
	OutcomeUpgraded Outcome = iota
	OutcomeNotFound
	OutcomeForbidden
	OutcomeBadRequest
)

// Validate checks that the room exists, that the principal holds the
// role the connection type needs and, for a host connection, that the
// principal is the room's host, without performing the upgrade, so
// HTTP and test callers can reuse the same decision logic. Room
// membership is not checked.
func (d *Dispatcher) Validate(principal identity.Principal, roomID domain.RoomId, connType ConnType) (domain.Room, Outcome) {
	room, ok := d.Registry.GetRoom(roomID)
	if !ok {
		return domain.Room{}, OutcomeNotFound
	}

	switch connType {
	case ConnHost:
		if !principal.HasRole(identity.RoleHost) {
			return domain.Room{}, OutcomeForbidden
		}
		if room.HostID != domain.UserId(principal.Subject) {
			return domain.Room{}, OutcomeForbidden
		}
		return room, OutcomeUpgraded
	case ConnUser:
		if !principal.HasRole(identity.RoleUser) {
			return domain.Room{}, OutcomeForbidden
		}
		return room, OutcomeUpgraded
	default:
		return domain.Room{}, OutcomeBadRequest
	}
}

// ServeHTTP handles GET /websocket?roomId=...&type=host|user. The
// caller is expected to have already attached a verified Principal to
// the request context (see internal/auth).
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, ok := r.Context().Value(contextkey.ContextKeyPrincipal).(identity.Principal)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	roomID, err := domain.ParseRoomId(r.URL.Query().Get("roomId"))
	if err != nil {
		http.Error(w, "invalid roomId", http.StatusBadRequest)
		return
	}
	connType := ConnType(r.URL.Query().Get("type"))

	room, outcome := d.Validate(principal, roomID, connType)
	switch outcome {
	case OutcomeNotFound:
		http.Error(w, "room not found", http.StatusNotFound)
		return
	case OutcomeForbidden:
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	case OutcomeBadRequest:
		http.Error(w, "invalid type", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Logger.Error("websocket upgrade failed", "err", err)
		return
	}
	sock := session.NewWebsocketSocket(conn)

	switch connType {
	case ConnHost:
		h := &session.Host{
			RoomID:   roomID,
			HostID:   domain.UserId(principal.Subject),
			Socket:   sock,
			Registry: d.Registry,
			Fabric:   d.Fabric,
			Logger:   d.Logger,
			TeardownHook: func(reason wire.DisconnectReason) {
				if d.OnHostEnd != nil {
					d.OnHostEnd(roomID, string(reason))
				}
			},
		}
		go h.Run(context.Background())
	case ConnUser:
		userID := domain.UserId(principal.Subject)
		u := &session.User{
			RoomID:   roomID,
			UserID:   userID,
			Socket:   sock,
			Registry: d.Registry,
			Fabric:   d.Fabric,
			Logger:   d.Logger,
			TeardownHook: func(reason wire.DisconnectReason) {
				if d.OnUserEnd != nil {
					d.OnUserEnd(roomID, userID, string(reason))
				}
			},
		}
		go u.Run(context.Background())
	}

	_ = room // room existence already validated; host_id confirmed above for hosts
}
