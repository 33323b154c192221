// Package wire defines the JSON shapes that cross the bidirectional
// socket in each direction, plus the disconnect reason vocabulary.
// Nothing in here touches I/O; it is pure marshaling.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/dukepan/multi-rooms-chat-back/internal/domain"
)

// DisconnectReason enumerates why a session is being torn down, as
// reported to the socket on the way out.
type DisconnectReason string

const (
	ReasonKicked        DisconnectReason = "Kicked"
	ReasonRoomClosed    DisconnectReason = "RoomClosed"
	ReasonUserClosed    DisconnectReason = "UserClosed"
	ReasonNewConnection DisconnectReason = "NewConnection"
	ReasonPingPong      DisconnectReason = "PingPong"
)

// HostWsIn is what the host sends on its socket.
type HostWsIn struct {
	Event   string          `json:"event"`
	UserID  string          `json:"userId"`
	Message json.RawMessage `json:"message"`
}

// UserWsIn is what a user sends on its socket.
type UserWsIn struct {
	Event   string          `json:"event"`
	Message json.RawMessage `json:"message"`
}

// ToHostMessage is a value enqueued into a room's host mailbox.
type ToHostMessage struct {
	Event   string // "JoinRoom" | "LeaveRoom" | "Message" | "Disconnect"
	UserID  domain.UserId
	Message json.RawMessage
	Reason  DisconnectReason // only set when Event == "Disconnect"
}

func JoinRoom(userID domain.UserId) ToHostMessage {
	return ToHostMessage{Event: "JoinRoom", UserID: userID}
}

func LeaveRoom(userID domain.UserId) ToHostMessage {
	return ToHostMessage{Event: "LeaveRoom", UserID: userID}
}

func HostMessage(userID domain.UserId, payload json.RawMessage) ToHostMessage {
	return ToHostMessage{Event: "Message", UserID: userID, Message: payload}
}

func HostDisconnect(userID domain.UserId, reason DisconnectReason) ToHostMessage {
	return ToHostMessage{Event: "Disconnect", UserID: userID, Reason: reason}
}

// IsDisconnect reports whether this message is the host-addressed
// disconnect signal the host session recognizes as its own shutdown
// trigger when UserID matches the host's own subject.
func (m ToHostMessage) IsDisconnect() bool { return m.Event == "Disconnect" }

// hostWsOut is the wire envelope sent on the host's socket.
type hostWsOut struct {
	Event   string          `json:"event"`
	UserID  string          `json:"userId,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
}

// MarshalJSON renders the outbound envelope for the host socket.
func (m ToHostMessage) MarshalJSON() ([]byte, error) {
	out := hostWsOut{Event: m.Event, UserID: m.UserID.String()}
	switch m.Event {
	case "Message":
		out.Message = m.Message
	case "Disconnect":
		payload, err := json.Marshal(disconnectPayload{Reason: m.Reason})
		if err != nil {
			return nil, fmt.Errorf("marshal disconnect payload: %w", err)
		}
		out.Message = payload
	}
	return json.Marshal(out)
}

// ToUserMessage is a value enqueued into a (user, room) mailbox.
type ToUserMessage struct {
	Event   string // "Message" | "Disconnect"
	UserID  domain.UserId
	Message json.RawMessage
	Reason  DisconnectReason
}

func UserMessage(userID domain.UserId, payload json.RawMessage) ToUserMessage {
	return ToUserMessage{Event: "Message", UserID: userID, Message: payload}
}

func UserDisconnect(userID domain.UserId, reason DisconnectReason) ToUserMessage {
	return ToUserMessage{Event: "Disconnect", UserID: userID, Reason: reason}
}

func (m ToUserMessage) IsDisconnect() bool { return m.Event == "Disconnect" }

type disconnectPayload struct {
	Reason DisconnectReason `json:"reason"`
}

// MarshalJSON renders the outbound envelope for a user socket.
func (m ToUserMessage) MarshalJSON() ([]byte, error) {
	out := hostWsOut{Event: m.Event, UserID: m.UserID.String()}
	switch m.Event {
	case "Message":
		out.Message = m.Message
	case "Disconnect":
		payload, err := json.Marshal(disconnectPayload{Reason: m.Reason})
		if err != nil {
			return nil, fmt.Errorf("marshal disconnect payload: %w", err)
		}
		out.Message = payload
	}
	return json.Marshal(out)
}
