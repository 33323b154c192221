// Package session implements the two long-lived session state
// machines (host, user) that each own one side of an upgraded socket
// plus a mailbox consumer, and race mailbox/socket/timer as the single
// source of truth per iteration.
package session

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

// FrameKind classifies an inbound socket event.
type FrameKind int

const (
	FrameText FrameKind = iota
	FramePong
	FrameClose
	FrameError
)

// Frame is a decoded inbound socket event, fed to the session loop by
// the socket's internal read goroutine.
type Frame struct {
	Kind FrameKind
	Data []byte
	Err  error
}

// Socket is the narrow interface the session state machines depend
// on, so tests can substitute a fake without a real network
// connection. wsSocket below is the production gorilla/websocket
// implementation.
type Socket interface {
	Frames() <-chan Frame
	WriteText(data []byte) error
	WritePing() error
	Close() error
}

const (
	writeWait = 10 * time.Second
	// maxMessageSize bounds a single inbound socket frame.
	maxMessageSize = 8192
)

// wsSocket adapts a *websocket.Conn to the Socket interface, running a
// single dedicated reader goroutine per the gorilla contract that at
// most one goroutine may call ReadMessage on a connection.
type wsSocket struct {
	conn   *websocket.Conn
	frames chan Frame
}

// NewWebsocketSocket wraps conn and starts its read loop.
func NewWebsocketSocket(conn *websocket.Conn) Socket {
	s := &wsSocket{
		conn:   conn,
		frames: make(chan Frame, 8),
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		select {
		case s.frames <- Frame{Kind: FramePong}:
		default:
		}
		return nil
	})
	go s.readLoop()
	return s
}

func (s *wsSocket) readLoop() {
	defer close(s.frames)
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.frames <- Frame{Kind: FrameClose}
			} else {
				s.frames <- Frame{Kind: FrameError, Err: err}
			}
			return
		}
		switch msgType {
		case websocket.TextMessage:
			s.frames <- Frame{Kind: FrameText, Data: data}
		case websocket.CloseMessage:
			s.frames <- Frame{Kind: FrameClose}
			return
		default:
			// binary frames carry no defined meaning on this wire; drop them.
		}
	}
}

func (s *wsSocket) Frames() <-chan Frame { return s.frames }

func (s *wsSocket) WriteText(data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSocket) WritePing() error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

func (s *wsSocket) Close() error {
	return s.conn.Close()
}

// ErrPongTimeout is an error value describing a liveness-timer expiry
// without a pong. The session loops do not return it; they report that
// case as wire.ReasonPingPong.
var ErrPongTimeout = errors.New("pong timeout")
