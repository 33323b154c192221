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

const (
	pingPeriod  = 30 * time.Second
	pongTimeout = 10 * time.Second
)

// Host runs one room's host session: it owns the room's socket and
// its host mailbox consumer for the lifetime of the connection.
type Host struct {
	RoomID   domain.RoomId
	HostID   domain.UserId
	Socket   Socket
	Registry *registry.Registry
	Fabric   *mailbox.Fabric
	Logger   *slog.Logger

	// TeardownHook, if set, is invoked exactly once after teardown
	// completes -- used to drive audit events and metrics.
	TeardownHook func(reason wire.DisconnectReason)
}

// Run executes the host session loop until the socket or mailbox
// closes, then tears the room down. It blocks until the session
// reaches Closing and teardown has completed.
func (h *Host) Run(ctx context.Context) {
	inbox := h.Fabric.RegisterHost(h.RoomID)

	// time.NewTicker only fires after one full period has elapsed, so
	// the first real ping naturally lands pingPeriod after session
	// start -- no warm-up tick to special-case.
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	var pongDeadline time.Time
	reason := wire.ReasonUserClosed

	frames := h.Socket.Frames()

loop:
	for {
		select {
		case msg, ok := <-inbox:
			if !ok {
				reason = wire.ReasonRoomClosed
				break loop
			}
			if msg.IsDisconnect() && msg.UserID == h.HostID {
				h.sendHost(msg)
				reason = msg.Reason
				break loop
			}
			if err := h.sendHost(msg); err != nil {
				h.Logger.Error("host socket send failed", "room_id", h.RoomID.String(), "err", err)
				reason = wire.ReasonUserClosed
				break loop
			}

		case frame, ok := <-frames:
			if !ok {
				reason = wire.ReasonUserClosed
				break loop
			}
			switch frame.Kind {
			case FrameText:
				h.handleInbound(frame.Data)
			case FramePong:
				pongDeadline = time.Time{}
			case FrameClose:
				reason = wire.ReasonUserClosed
				break loop
			case FrameError:
				h.Logger.Error("host socket error", "room_id", h.RoomID.String(), "err", frame.Err)
				reason = wire.ReasonUserClosed
				break loop
			}

		case <-ticker.C:
			if !pongDeadline.IsZero() && time.Now().After(pongDeadline) {
				reason = wire.ReasonPingPong
				break loop
			}
			if err := h.Socket.WritePing(); err != nil {
				reason = wire.ReasonUserClosed
				break loop
			}
			pongDeadline = time.Now().Add(pongTimeout)
		}
	}

	h.teardown()
	if h.TeardownHook != nil {
		h.TeardownHook(reason)
	}
}

func (h *Host) sendHost(msg wire.ToHostMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		h.Logger.Error("host message marshal failed", "room_id", h.RoomID.String(), "err", err)
		return nil
	}
	return h.Socket.WriteText(data)
}

func (h *Host) handleInbound(data []byte) {
	var in wire.HostWsIn
	if err := json.Unmarshal(data, &in); err != nil {
		h.Logger.Warn("host frame parse failed", "room_id", h.RoomID.String(), "err", err)
		return
	}

	userID := domain.UserId(in.UserID)
	if !h.Registry.IsUserInRoom(h.RoomID, userID) {
		h.Logger.Warn("host addressed non-member", "room_id", h.RoomID.String(), "user_id", in.UserID)
		return
	}

	switch in.Event {
	case "MESSAGE":
		h.Fabric.SendToUser(userID, h.RoomID, wire.UserMessage(userID, in.Message))
	case "DISCONNECT":
		h.Fabric.SendToUser(userID, h.RoomID, wire.UserDisconnect(userID, wire.ReasonKicked))
	default:
		h.Logger.Warn("host sent unknown event", "room_id", h.RoomID.String(), "event", in.Event)
	}
}

// teardown runs exactly once: unregister the host mailbox, clear and
// disconnect every remaining member, then remove the room. Every step
// tolerates the room/mailbox already being gone -- this races the
// admin cancel path by design.
func (h *Host) teardown() {
	h.Fabric.UnregisterHost(h.RoomID)
	users := h.Registry.ClearRoomUsers(h.RoomID)
	h.Fabric.DisconnectRoomUsers(h.RoomID, users, wire.ReasonRoomClosed)
	h.Registry.RemoveRoom(h.RoomID)
}
