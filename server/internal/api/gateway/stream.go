package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wat40/C-Encryption-System/server/internal/protocol"
	"github.com/wat40/C-Encryption-System/server/internal/services/stream"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamClient is one /ws/stream connection. Replies are queued on send in
// the order frames were read.
type streamClient struct {
	conn    *websocket.Conn
	session *stream.Session
	send    chan protocol.StreamFrame
	done    chan struct{}
	server  *Server
	userID  int64
}

// handleStream authenticates, upgrades and runs a chained cipher session
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	// Try to get token from query parameter first (preferred for WebSocket)
	token := r.URL.Query().Get("token")
	if token == "" {
		token = extractToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		writeJSONError(w, http.StatusUnauthorized, "missing authorization token", "unauthorized")
		return
	}

	claims, err := s.authSvc.ValidateToken(token)
	if err != nil {
		s.log.Warn("stream rejected: invalid token")
		writeJSONError(w, http.StatusUnauthorized, "invalid token", "unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", err)
		return
	}

	session, ok := s.handshake(conn, claims.UserID)
	if !ok {
		conn.Close()
		return
	}

	client := &streamClient{
		conn:    conn,
		session: session,
		send:    make(chan protocol.StreamFrame, 64),
		done:    make(chan struct{}),
		server:  s,
		userID:  claims.UserID,
	}
	s.log.Info("stream client connected", "user", claims.UserID)

	go client.writePump()
	client.readPump()
}

// handshake reads the hello frame within the handshake timeout and answers
// with ready or error.
func (s *Server) handshake(conn *websocket.Conn, userID int64) (*stream.Session, bool) {
	conn.SetReadDeadline(time.Now().Add(s.opts.HandshakeTimeout))

	var hello protocol.StreamFrame
	if err := conn.ReadJSON(&hello); err != nil {
		s.log.Debug("stream handshake read failed", "user", userID, "error", err)
		return nil, false
	}

	session, ready, err := s.streamSvc.Handshake(userID, hello)
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err != nil {
		conn.WriteJSON(stream.ErrorFrame(hello.Seq, err))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "handshake failed"))
		return nil, false
	}
	if err := conn.WriteJSON(ready); err != nil {
		return nil, false
	}
	return session, true
}

// readPump reads frames and queues one reply per frame
func (c *streamClient) readPump() {
	idle := c.server.opts.IdleTimeout
	defer func() {
		close(c.send)
		c.server.log.Info("stream client disconnected", "user", c.userID)
	}()

	c.conn.SetReadDeadline(time.Now().Add(idle))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(idle))
		return nil
	})

	for {
		var frame protocol.StreamFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(idle))
		select {
		case c.send <- c.session.Handle(frame):
		case <-c.done:
			return
		}
	}
}

// writePump writes replies to the WebSocket connection
func (c *streamClient) writePump() {
	ticker := time.NewTicker(c.server.opts.IdleTimeout / 2)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
