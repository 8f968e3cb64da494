// Package session carries the websocket transport: one Session per
// connected client, with a bounded outbound queue and intent decoding.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lixenwraith/pixelden/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameBytes = 4096
	// maxBadFrames closes a session that keeps sending garbage.
	maxBadFrames = 10
)

// Router consumes decoded intents and session lifecycle. The world
// director implements it.
type Router interface {
	Dispatch(sessionID string, intent protocol.Intent)
	Unbind(sessionID string)
}

// Session is one connected client. It implements world.Client: Deliver
// enqueues without blocking and a full queue disconnects the session (the
// server never degrades the stream, it drops the subscriber).
type Session struct {
	id     string
	userID string

	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	router Router
	log    *zap.Logger

	closeOnce sync.Once
	closed    atomic.Bool
	badFrames int
}

// New wraps an upgraded connection.
func New(id, userID string, conn *websocket.Conn, queueSize int, router Router, log *zap.Logger) *Session {
	return &Session{
		id:     id,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
		router: router,
		log:    log.Named("session").With(zap.String("session", id), zap.String("user", userID)),
	}
}

// SessionID returns the transport-level session identifier.
func (s *Session) SessionID() string { return s.id }

// UserID returns the authenticated user identity.
func (s *Session) UserID() string { return s.userID }

// Deliver encodes and enqueues one event. Queue overflow disconnects: a
// subscriber that cannot keep up stops being a subscriber.
func (s *Session) Deliver(ev protocol.Event) {
	if s.closed.Load() {
		return
	}
	frame, err := protocol.EncodeEvent(ev)
	if err != nil {
		s.log.Error("event encode failed", zap.String("type", ev.EventType()), zap.Error(err))
		return
	}
	select {
	case s.send <- frame:
	default:
		// Deliver runs under the broadcasting room's lock; Close unbinds
		// through the director back into that room, so it must run on its
		// own goroutine.
		s.log.Warn("send queue overflow, disconnecting")
		go s.Close()
	}
}

// Kick sends a terminal disconnect event and closes.
func (s *Session) Kick(reason string) {
	s.Deliver(protocol.ForceDisconnect{Reason: reason})
	s.Close()
}

// Close tears the session down exactly once: unbind, then transport close.
// The send channel is never closed; writePump exits via done so a racing
// Deliver can never hit a closed channel.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.router.Unbind(s.id)
		close(s.done)
	})
}

// Run starts both pumps and blocks until the read side ends.
func (s *Session) Run() {
	go s.writePump()
	s.readPump()
}

// readPump decodes inbound frames into intents. Malformed frames are
// dropped silently; repeated violations disconnect.
func (s *Session) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(maxFrameBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		intent, err := protocol.DecodeIntent(data)
		if err != nil {
			s.badFrames++
			s.log.Debug("dropping malformed frame", zap.Error(err), zap.Int("count", s.badFrames))
			if s.badFrames >= maxBadFrames {
				s.log.Warn("too many protocol violations, disconnecting")
				return
			}
			continue
		}
		s.router.Dispatch(s.id, intent)
	}
}

// writePump drains the outbound queue onto the socket and keeps the
// connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-s.done:
			// Drain what is already queued (e.g. a ForceDisconnect),
			// then say goodbye.
			for {
				select {
				case frame := <-s.send:
					_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
					if s.conn.WriteMessage(websocket.TextMessage, frame) != nil {
						return
					}
				default:
					_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
					_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
