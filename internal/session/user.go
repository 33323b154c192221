package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dukepan/multi-rooms-chat-back/internal/domain"
	"github.com/dukepan/multi-rooms-chat-back/internal/mailbox"
	"github.com/dukepan/multi-rooms-chat-back/internal/registry"
	"github.com/dukepan/multi-rooms-chat-back/internal/wire"
)

// User runs one user's session within a room: it owns the user's
// socket and its (user, room) mailbox consumer for the lifetime of
// the connection.
type User struct {
	RoomID   domain.RoomId
	UserID   domain.UserId
	Socket   Socket
	Registry *registry.Registry
	Fabric   *mailbox.Fabric
	Logger   *slog.Logger

	TeardownHook func(reason wire.DisconnectReason)
}

// Run executes the entry sequence (join the room, register the
// mailbox, notify the host) then the user session loop, then teardown.
// It blocks until the session reaches Closing and teardown completes.
func (u *User) Run(ctx context.Context) {
	u.Registry.AddUser(u.RoomID, u.UserID)
	inbox := u.Fabric.RegisterUser(u.UserID, u.RoomID)
	u.Fabric.SendToHost(u.RoomID, wire.JoinRoom(u.UserID))

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	var pongDeadline time.Time
	reason := wire.ReasonUserClosed
	frames := u.Socket.Frames()

loop:
	for {
		select {
		case msg, ok := <-inbox:
			if !ok {
				reason = wire.ReasonRoomClosed
				break loop
			}
			if err := u.sendUser(msg); err != nil {
				u.Logger.Error("user socket send failed", "room_id", u.RoomID.String(), "user_id", u.UserID.String(), "err", err)
				reason = wire.ReasonUserClosed
				break loop
			}
			if msg.IsDisconnect() {
				reason = msg.Reason
				break loop
			}

		case frame, ok := <-frames:
			if !ok {
				reason = wire.ReasonUserClosed
				break loop
			}
			switch frame.Kind {
			case FrameText:
				u.handleInbound(frame.Data)
			case FramePong:
				pongDeadline = time.Time{}
			case FrameClose:
				reason = wire.ReasonUserClosed
				break loop
			case FrameError:
				u.Logger.Error("user socket error", "room_id", u.RoomID.String(), "user_id", u.UserID.String(), "err", frame.Err)
				reason = wire.ReasonUserClosed
				break loop
			}

		case <-ticker.C:
			if !pongDeadline.IsZero() && time.Now().After(pongDeadline) {
				reason = wire.ReasonPingPong
				break loop
			}
			if err := u.Socket.WritePing(); err != nil {
				reason = wire.ReasonUserClosed
				break loop
			}
			pongDeadline = time.Now().Add(pongTimeout)
		}
	}

	u.teardown(inbox)
	if u.TeardownHook != nil {
		u.TeardownHook(reason)
	}
}

func (u *User) sendUser(msg wire.ToUserMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		u.Logger.Error("user message marshal failed", "room_id", u.RoomID.String(), "err", err)
		return nil
	}
	return u.Socket.WriteText(data)
}

func (u *User) handleInbound(data []byte) {
	var in wire.UserWsIn
	if err := json.Unmarshal(data, &in); err != nil {
		u.Logger.Warn("user frame parse failed", "room_id", u.RoomID.String(), "user_id", u.UserID.String(), "err", err)
		return
	}

	switch in.Event {
	case "MESSAGE":
		u.Fabric.SendToHost(u.RoomID, wire.HostMessage(u.UserID, in.Message))
	default:
		u.Logger.Warn("user sent unknown event", "room_id", u.RoomID.String(), "event", in.Event)
	}
}

// teardown runs exactly once: unregister the mailbox, remove the
// membership, tell the host the user left. ch identifies the specific
// mailbox this session owns, so a displaced (superseded) session can
// never unregister a newer one's mailbox -- and, since membership has
// no notion of session identity of its own, a displaced session must
// not remove it either, or it would delete the entry the newer
// session just added.
func (u *User) teardown(ch <-chan wire.ToUserMessage) {
	if u.Fabric.UnregisterUser(u.UserID, u.RoomID, ch) {
		u.Registry.RemoveUser(u.RoomID, u.UserID)
		u.Fabric.SendToHost(u.RoomID, wire.LeaveRoom(u.UserID))
	}
}
