// Package admin implements the administrative HTTP surface: create,
// cancel and list rooms. Every handler requires the Admin role.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukepan/multi-rooms-chat-back/internal/contextkey"
	"github.com/dukepan/multi-rooms-chat-back/internal/domain"
	"github.com/dukepan/multi-rooms-chat-back/internal/identity"
	"github.com/dukepan/multi-rooms-chat-back/internal/mailbox"
	"github.com/dukepan/multi-rooms-chat-back/internal/registry"
	"github.com/dukepan/multi-rooms-chat-back/internal/wire"
)

// AuditSink receives a fire-and-forget record of an admin-driven room
// lifecycle event. Implemented by internal/audit; nil is a valid
// no-op sink for tests.
type AuditSink interface {
	RecordRoomCreated(roomID domain.RoomId, hostID domain.UserId, roomType domain.RoomType)
	RecordRoomCancelled(roomID domain.RoomId)
}

// Handlers implements the /api/rooms surface.
type Handlers struct {
	Registry *registry.Registry
	Fabric   *mailbox.Fabric
	Logger   *slog.Logger
	Audit    AuditSink
}

type createRoomRequest struct {
	Type   string `json:"type"`
	HostID string `json:"hostId"`
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
}

type roomListEntry struct {
	RoomID      string `json:"roomId"`
	HostID      string `json:"hostId"`
	Type        string `json:"type"`
	PlayerCount int    `json:"playerCount"`
}

type roomsPage struct {
	Rooms      []roomListEntry `json:"rooms"`
	TotalRooms int             `json:"totalRooms"`
	Page       int             `json:"page"`
	Size       int             `json:"size"`
}

func principalFrom(r *http.Request) (identity.Principal, bool) {
	p, ok := r.Context().Value(contextkey.ContextKeyPrincipal).(identity.Principal)
	return p, ok
}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	p, ok := principalFrom(r)
	if !ok || !p.HasRole(identity.RoleAdmin) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return false
	}
	return true
}

// CreateRoom handles POST /api/rooms.
func (h *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}

	room := domain.Room{
		ID:       domain.NewRoomId(),
		HostID:   domain.UserId(req.HostID),
		RoomType: domain.RoomType(req.Type),
	}

	if err := h.Registry.CreateRoom(room); err != nil {
		http.Error(w, `{"error":"conflict"}`, http.StatusConflict)
		return
	}

	if h.Audit != nil {
		h.Audit.RecordRoomCreated(room.ID, room.HostID, room.RoomType)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createRoomResponse{RoomID: room.ID.String()})
}

// CancelRoom handles DELETE /api/rooms/{roomId}.
//
// Both the admin-driven teardown here and the host session's own
// teardown remove the room; each step below tolerates the other path
// having already run, so the two can race without coordination.
func (h *Handlers) CancelRoom(w http.ResponseWriter, r *http.Request, roomID domain.RoomId) {
	if !requireAdmin(w, r) {
		return
	}

	room, ok := h.Registry.GetRoom(roomID)
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	users := h.Registry.ClearRoomUsers(roomID)
	h.Fabric.DisconnectRoomUsers(roomID, users, wire.ReasonRoomClosed)
	h.Fabric.DisconnectHost(roomID, room.HostID, wire.ReasonRoomClosed)
	// Defensive removal covers the host-absent case; the host
	// session's own teardown will also attempt this and find it gone.
	h.Registry.RemoveRoom(roomID)

	if h.Audit != nil {
		h.Audit.RecordRoomCancelled(roomID)
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRooms handles GET /api/rooms?page=&size=.
func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 0 {
		page = 0
	}
	size := 20
	if s := r.URL.Query().Get("size"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 100 {
			http.Error(w, `{"error":"size must be in [1,100]"}`, http.StatusBadRequest)
			return
		}
		size = v
	}

	summaries, total := h.Registry.GetRoomsPaginated(page, size)
	entries := make([]roomListEntry, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, roomListEntry{
			RoomID:      s.Room.ID.String(),
			HostID:      s.Room.HostID.String(),
			Type:        string(s.Room.RoomType),
			PlayerCount: s.PlayerCount,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(roomsPage{
		Rooms:      entries,
		TotalRooms: total,
		Page:       page,
		Size:       size,
	})
}
