// Package domain holds the value types shared by the registry, the
// mailbox fabric and the session state machines.
package domain

import "github.com/google/uuid"

// RoomId is a UUIDv4 room identifier.
type RoomId uuid.UUID

// NewRoomId generates a fresh UUIDv4 room id.
func NewRoomId() RoomId {
	return RoomId(uuid.New())
}

// ParseRoomId parses a room id from its string form.
func ParseRoomId(s string) (RoomId, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return RoomId{}, err
	}
	return RoomId(id), nil
}

func (r RoomId) String() string {
	return uuid.UUID(r).String()
}

// UserId is an opaque subject identifier supplied by the auth layer.
type UserId string

func (u UserId) String() string { return string(u) }

// RoomType is an opaque application-defined room category.
type RoomType string

// Room is the immutable record the registry stores for a live room.
type Room struct {
	ID       RoomId
	HostID   UserId
	RoomType RoomType
}
