// Package mailbox is the fabric that routes messages between a room's
// host and its users. Every mailbox is a bounded FIFO with at most one
// consumer; delivery is strictly non-blocking best-effort, so a slow
// reader can never apply backpressure to the sender.
package mailbox

import (
	"sync"

	"github.com/dukepan/multi-rooms-chat-back/internal/domain"
	"github.com/dukepan/multi-rooms-chat-back/internal/wire"
)

// Capacity is the fixed bound on every mailbox queue.
const Capacity = 256

type userKey struct {
	userID domain.UserId
	roomID domain.RoomId
}

// Fabric owns every mailbox producer handle in the process.
type Fabric struct {
	mu    sync.RWMutex
	hosts map[domain.RoomId]chan wire.ToHostMessage
	users map[userKey]chan wire.ToUserMessage

	onDrop func(kind string)
}

// New creates an empty fabric. onDrop, if non-nil, is invoked (best
// effort, never blocking) whenever a best-effort deliver drops a
// message -- wired to a metrics counter by the caller.
func New(onDrop func(kind string)) *Fabric {
	if onDrop == nil {
		onDrop = func(string) {}
	}
	return &Fabric{
		hosts:  make(map[domain.RoomId]chan wire.ToHostMessage),
		users:  make(map[userKey]chan wire.ToUserMessage),
		onDrop: onDrop,
	}
}

// RegisterHost creates a bounded mailbox for the room's host and
// returns its consumer end. A pre-existing producer is silently
// overwritten -- in practice a room has at most one live host session
// at a time.
func (f *Fabric) RegisterHost(roomID domain.RoomId) <-chan wire.ToHostMessage {
	ch := make(chan wire.ToHostMessage, Capacity)
	f.mu.Lock()
	f.hosts[roomID] = ch
	f.mu.Unlock()
	return ch
}

// UnregisterHost drops the host producer for a room. Tolerates a
// missing entry. Never closes the channel -- a concurrent SendToHost
// may already be past its RLock and about to send, and closing here
// would turn that send into a panic instead of a dropped message. Its
// only caller is the host's own teardown, run after its mailbox
// consumer loop has already exited, so no consumer needs the close
// signal.
func (f *Fabric) UnregisterHost(roomID domain.RoomId) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.hosts, roomID)
}

// SendToHost enqueues msg into the room's host mailbox, best-effort.
// Drops silently if the mailbox is missing or full.
func (f *Fabric) SendToHost(roomID domain.RoomId, msg wire.ToHostMessage) {
	f.mu.RLock()
	ch, ok := f.hosts[roomID]
	f.mu.RUnlock()
	if !ok {
		f.onDrop("host_missing")
		return
	}
	select {
	case ch <- msg:
	default:
		f.onDrop("host_full")
	}
}

// RegisterUser creates a bounded mailbox at key (userID, roomID) and
// returns its consumer end. If a producer already existed under that
// key, the fabric first makes a best-effort attempt to enqueue
// Disconnect(NewConnection) into the old one, then displaces it. The
// old channel is never closed -- a concurrent SendToUser may already
// be past its RLock and about to send into it, and closing here would
// turn that send into a panic instead of a dropped message. The old
// session's own Run loop reads the Disconnect(NewConnection) message
// and tears itself down without needing a close signal.
func (f *Fabric) RegisterUser(userID domain.UserId, roomID domain.RoomId) <-chan wire.ToUserMessage {
	key := userKey{userID: userID, roomID: roomID}
	ch := make(chan wire.ToUserMessage, Capacity)

	f.mu.Lock()
	old, hadOld := f.users[key]
	f.users[key] = ch
	f.mu.Unlock()

	if hadOld {
		select {
		case old <- wire.UserDisconnect(userID, wire.ReasonNewConnection):
		default:
			f.onDrop("displace_full")
		}
	}
	return ch
}

// UnregisterUser drops the producer at (userID, roomID). Tolerates a
// missing entry. Only removes the map entry if it still points at the
// caller's own channel, so a stale unregister from a displaced session
// can never clobber a newer registration. Reports whether it actually
// removed the entry, so a caller whose mailbox was already displaced
// knows not to touch state a newer session now owns.
func (f *Fabric) UnregisterUser(userID domain.UserId, roomID domain.RoomId, ch <-chan wire.ToUserMessage) bool {
	key := userKey{userID: userID, roomID: roomID}
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.users[key]
	if !ok || current != ch {
		return false
	}
	delete(f.users, key)
	return true
}

// SendToUser enqueues msg into the (userID, roomID) mailbox,
// best-effort.
func (f *Fabric) SendToUser(userID domain.UserId, roomID domain.RoomId, msg wire.ToUserMessage) {
	key := userKey{userID: userID, roomID: roomID}
	f.mu.RLock()
	ch, ok := f.users[key]
	f.mu.RUnlock()
	if !ok {
		f.onDrop("user_missing")
		return
	}
	select {
	case ch <- msg:
	default:
		f.onDrop("user_full")
	}
}

// DisconnectRoomUsers enqueues Disconnect(reason) to every listed
// user's mailbox in the room, best effort.
func (f *Fabric) DisconnectRoomUsers(roomID domain.RoomId, userIDs []domain.UserId, reason wire.DisconnectReason) {
	for _, userID := range userIDs {
		f.SendToUser(userID, roomID, wire.UserDisconnect(userID, reason))
	}
}

// DisconnectHost enqueues a host-addressed Disconnect(reason) event --
// the host session recognizes its own subject as the trigger to close.
func (f *Fabric) DisconnectHost(roomID domain.RoomId, hostID domain.UserId, reason wire.DisconnectReason) {
	f.SendToHost(roomID, wire.HostDisconnect(hostID, reason))
}

// HasHostMailbox reports whether a host mailbox is currently
// registered for roomID. Exposed for teardown-completion tests.
func (f *Fabric) HasHostMailbox(roomID domain.RoomId) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.hosts[roomID]
	return ok
}

// HasUserMailbox reports whether a user mailbox is currently
// registered at (userID, roomID).
func (f *Fabric) HasUserMailbox(userID domain.UserId, roomID domain.RoomId) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.users[userKey{userID: userID, roomID: roomID}]
	return ok
}
