package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Serve runs one socket until the peer goes away or ctx is cancelled.
// identity is the user the connection authenticated as.
func (c *Channel) Serve(ctx context.Context, conn *websocket.Conn, identity uint) {
	s := c.Connect()
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump(ctx, conn, s)
	}()

	c.readPump(conn, s, identity)

	c.Disconnect(s)
	cancel()
	wg.Wait()
	conn.Close()
}

func (c *Channel) readPump(conn *websocket.Conn, s *Session, identity uint) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", "session_id", s.id, "error", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.reply(s, mustEncode(FrameError, ErrorData{Message: "malformed frame"}))
			continue
		}

		switch frame.Type {
		case FrameJoin:
			c.handleJoin(s, frame, identity)
		case FramePing:
			c.reply(s, mustEncode(FramePong, nil))
		default:
			c.reply(s, mustEncode(FrameError, ErrorData{Message: "unknown frame type " + frame.Type}))
		}
	}
}

func (c *Channel) handleJoin(s *Session, frame Frame, identity uint) {
	userID := frame.UserID
	if userID == 0 {
		userID = identity
	}
	if userID != identity {
		c.log.Warn("rejected join", "session_id", s.id, "identity", identity, "user_id", userID)
		c.reply(s, mustEncode(FrameError, ErrorData{Message: ErrIdentityMismatch.Error()}))
		return
	}
	if err := c.Join(s, userID); err != nil {
		c.reply(s, mustEncode(FrameError, ErrorData{Message: err.Error()}))
		return
	}
	c.reply(s, mustEncode(FrameJoined, JoinedData{UserID: userID}))
}

func (c *Channel) reply(s *Session, frame []byte) {
	if err := s.Push(frame); err != nil && !errors.Is(err, ErrSessionClosed) {
		c.log.Warn("dropped control frame", "session_id", s.id, "error", err)
	}
}

func (c *Channel) writePump(ctx context.Context, conn *websocket.Conn, s *Session) {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-s.Outbound():
			conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Warn("websocket write failed", "session_id", s.id, "error", err)
				// Unblock the reader so Serve can tear the session down
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}

		case <-s.Done():
			// Disconnected from outside the read loop closes the socket too
			closeConn(conn, c.opts.WriteWait, "session closed")
			return

		case <-ctx.Done():
			closeConn(conn, c.opts.WriteWait, "server shutting down")
			return
		}
	}
}

func closeConn(conn *websocket.Conn, wait time.Duration, reason string) {
	conn.SetWriteDeadline(time.Now().Add(wait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, reason))
	conn.Close()
}
