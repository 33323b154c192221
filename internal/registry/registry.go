// Package registry holds the room/membership registry: a concurrent
// map of rooms and a concurrent map of per-room user sets. It owns
// these records exclusively -- the mailbox fabric and the sessions
// never mutate them directly.
package registry

import (
	"sync"

	"github.com/dukepan/multi-rooms-chat-back/internal/domain"
)

// ErrAlreadyExists is returned by CreateRoom when the room id already
// has an entry. Practically unreachable with UUIDv4 ids, but callers
// must still handle a collision rather than silently overwrite a room.
var ErrAlreadyExists = errAlreadyExists{}

type errAlreadyExists struct{}

func (errAlreadyExists) Error() string { return "room already exists" }

// Registry is the concurrent room/membership store. The zero value is
// not usable; construct with New.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[domain.RoomId]domain.Room
	members map[domain.RoomId]map[domain.UserId]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		rooms:   make(map[domain.RoomId]domain.Room),
		members: make(map[domain.RoomId]map[domain.UserId]struct{}),
	}
}

// CreateRoom atomically inserts the room record and an empty
// membership set. Fails only if the id already exists.
func (r *Registry) CreateRoom(room domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.ID]; exists {
		return ErrAlreadyExists
	}
	r.rooms[room.ID] = room
	r.members[room.ID] = make(map[domain.UserId]struct{})
	return nil
}

// GetRoom returns a snapshot copy of the room record, if present.
func (r *Registry) GetRoom(id domain.RoomId) (domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// RemoveRoom removes both the room record and its membership set
// atomically, returning the removed room if it existed. Tolerates a
// missing room -- teardown paths race each other by design.
func (r *Registry) RemoveRoom(id domain.RoomId) (domain.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	delete(r.rooms, id)
	delete(r.members, id)
	return room, true
}

// RoomSummary pairs a room with its current member count, as returned
// by pagination.
type RoomSummary struct {
	Room        domain.Room
	PlayerCount int
}

// GetRoomsPaginated returns the [page*size, page*size+size) slice of a
// single snapshot, plus the total room count at that snapshot. Caller
// is responsible for validating size is in [1, 100].
func (r *Registry) GetRoomsPaginated(page, size int) ([]RoomSummary, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]RoomSummary, 0, len(r.rooms))
	for id, room := range r.rooms {
		all = append(all, RoomSummary{Room: room, PlayerCount: len(r.members[id])})
	}
	total := len(all)

	start := page * size
	if start >= total || start < 0 {
		return []RoomSummary{}, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total
}

// AddUser adds a user to a room's membership set. Returns true if the
// user was newly added, false if the room is missing or the user was
// already present.
func (r *Registry) AddUser(roomID domain.RoomId, userID domain.UserId) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[roomID]
	if !ok {
		return false
	}
	if _, exists := set[userID]; exists {
		return false
	}
	set[userID] = struct{}{}
	return true
}

// RemoveUser removes a user from a room's membership set. No-op if
// either is missing.
func (r *Registry) RemoveUser(roomID domain.RoomId, userID domain.UserId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.members[roomID]; ok {
		delete(set, userID)
	}
}

// IsUserInRoom reports current membership. A missing room is treated
// as an empty set rather than an error.
func (r *Registry) IsUserInRoom(roomID domain.RoomId, userID domain.UserId) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.members[roomID]
	if !ok {
		return false
	}
	_, present := set[userID]
	return present
}

// RoomUserCount returns the member count, 0 if the room is missing.
func (r *Registry) RoomUserCount(roomID domain.RoomId) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[roomID])
}

// RoomUsers returns a snapshot copy of the member list.
func (r *Registry) RoomUsers(roomID domain.RoomId) []domain.UserId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.members[roomID]
	out := make([]domain.UserId, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// ClearRoomUsers atomically empties the membership set and returns the
// prior members. No-op (returns nil) if the room is missing.
func (r *Registry) ClearRoomUsers(roomID domain.RoomId) []domain.UserId {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[roomID]
	if !ok {
		return nil
	}
	out := make([]domain.UserId, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	r.members[roomID] = make(map[domain.UserId]struct{})
	return out
}

// RoomCount returns the number of rooms currently registered.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// AllRoomIDs returns a snapshot of every room id currently registered.
// Used by the graceful-shutdown teardown sweep.
func (r *Registry) AllRoomIDs() []domain.RoomId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RoomId, 0, len(r.rooms))
	for id := range r.rooms {
		out = append(out, id)
	}
	return out
}
