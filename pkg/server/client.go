package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/coinbubbles/pkg/canvas"
	"github.com/matzehuels/coinbubbles/pkg/directory"
	"github.com/matzehuels/coinbubbles/pkg/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	sendBuffer  = 16
	replyBuffer = 8
)

// Message types exchanged over the WebSocket.
const (
	TypeFrame    = "frame"
	TypeError    = "error"
	TypeSelect   = "select"
	TypeMove     = "move"
	TypeViewport = "viewport"
)

// Message is a WebSocket message in either direction. The server sends
// frame and error messages; clients may send select, move and viewport.
type Message struct {
	Type    string          `json:"type"`
	Frame   *canvas.Frame   `json:"frame,omitempty"`
	Item    *directory.Item `json:"item,omitempty"`
	ID      string          `json:"id,omitempty"`
	X       float64         `json:"x,omitempty"`
	Y       float64         `json:"y,omitempty"`
	Width   float64         `json:"width,omitempty"`
	Height  float64         `json:"height,omitempty"`
	Code    errors.Code     `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// client is one WebSocket connection. send is owned by the canvas loop,
// which closes it on unregister; replies carries per-client errors.
type client struct {
	server  *Server
	conn    *websocket.Conn
	send    chan []byte
	replies chan []byte
	id      string
}

func frameMessage(f canvas.Frame) ([]byte, error) {
	return json.Marshal(Message{Type: TypeFrame, Frame: &f})
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts requests without an Origin header, origins matching
// a configured prefix, and otherwise same-host or localhost origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.opts.AllowedOrigins) > 0 {
		for _, allowed := range s.opts.AllowedOrigins {
			if strings.HasPrefix(origin, allowed) {
				return true
			}
		}
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host || u.Hostname() == "localhost" || u.Hostname() == "127.0.0.1"
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &client{
		server:  s,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		replies: make(chan []byte, replyBuffer),
		id:      uuid.NewString(),
	}
	select {
	case s.register <- c:
	case <-s.done:
		conn.Close()
		return
	}
	s.logger.Info("client connected", "client", c.id, "remote", r.RemoteAddr)

	go c.writePump()
	c.readPump(r.Context())
}

func (c *client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.done:
		}
		c.conn.Close()
		c.server.logger.Info("client disconnected", "client", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				c.server.logger.Warn("websocket read", "client", c.id, "err", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid message"))
			continue
		}
		if err := c.route(ctx, msg); err != nil {
			c.reply(err)
		}
	}
}

// route applies an inbound message. The resulting frame reaches this client
// through the regular broadcast.
func (c *client) route(ctx context.Context, msg Message) error {
	var err error
	switch msg.Type {
	case TypeSelect:
		if msg.Item == nil {
			return errors.New(errors.ErrCodeInvalidInput, "select needs an item")
		}
		_, err = c.server.Select(ctx, *msg.Item)
	case TypeMove:
		_, err = c.server.Move(ctx, msg.ID, msg.X, msg.Y)
	case TypeViewport:
		_, err = c.server.Resize(ctx, msg.Width, msg.Height)
	default:
		err = errors.New(errors.ErrCodeUnsupported, "unknown message type %q", msg.Type)
	}
	return err
}

func (c *client) reply(err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	data, _ := json.Marshal(Message{Type: TypeError, Code: code, Message: errors.UserMessage(err)})
	select {
	case c.replies <- data:
	default:
		c.server.logger.Debug("dropping error reply", "client", c.id)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.server.logger.Debug("websocket write", "client", c.id, "err", err)
				return
			}
		case data := <-c.replies:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
