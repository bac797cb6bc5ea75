package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lllypuk/taskboard/internal/domain/id"
)

const (
	defaultPingInterval   = 30 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultWriteWait      = 10 * time.Second
	defaultMaxMessageSize = 4096
	defaultSendBuffer     = 256
)

// ClientConfig tunes a single connection. PingInterval must be shorter than
// PongWait or healthy peers get dropped.
type ClientConfig struct {
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultClientConfig returns the connection defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval:   defaultPingInterval,
		PongWait:       defaultPongWait,
		WriteWait:      defaultWriteWait,
		MaxMessageSize: defaultMaxMessageSize,
		SendBuffer:     defaultSendBuffer,
	}
}

// Commands accepted from the browser.
const (
	commandSubscribe   = "subscribe"
	commandUnsubscribe = "unsubscribe"
	commandPing        = "ping"
)

// ClientMessage is a command sent by the browser.
type ClientMessage struct {
	Type    string `json:"type"`
	BoardID string `json:"board_id,omitempty"`
}

type reply struct {
	Type    string `json:"type"`
	Action  string `json:"action,omitempty"`
	BoardID string `json:"board_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client is one browser connection following one or more boards.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID id.ID
	config ClientConfig
	logger *slog.Logger

	// outbox is closed by Close; pending frames are flushed by WritePump.
	outbox chan []byte

	mu     sync.RWMutex
	boards map[id.ID]struct{}
	closed bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientConfig overrides DefaultClientConfig.
func WithClientConfig(config ClientConfig) ClientOption {
	return func(c *Client) { c.config = config }
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client following boardID. It is inert until registered
// with the hub and its pumps are started.
func NewClient(hub *Hub, conn *websocket.Conn, userID, boardID id.ID, opts ...ClientOption) *Client {
	c := &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		config: DefaultClientConfig(),
		logger: slog.Default(),
		boards: map[id.ID]struct{}{boardID: {}},
	}
	for _, opt := range opts {
		opt(c)
	}

	buffer := c.config.SendBuffer
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	c.outbox = make(chan []byte, buffer)
	return c
}

// UserID returns the authenticated user behind the connection.
func (c *Client) UserID() id.ID { return c.userID }

// BoardIDs returns the boards the client follows.
func (c *Client) BoardIDs() []id.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]id.ID, 0, len(c.boards))
	for boardID := range c.boards {
		ids = append(ids, boardID)
	}
	return ids
}

// HasBoard reports whether the client follows boardID.
func (c *Client) HasBoard(boardID id.ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.boards[boardID]
	return ok
}

func (c *Client) follow(boardID id.ID, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.boards[boardID] = struct{}{}
	} else {
		delete(c.boards, boardID)
	}
}

// IsClosed reports whether Close has been called.
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Send queues a frame without blocking. It reports false when the client is
// closed or too slow to keep up.
func (c *Client) Send(message []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}

	select {
	case c.outbox <- message:
		return true
	default:
		return false
	}
}

// Close stops the client and closes the connection. Safe to call repeatedly.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.outbox)
	_ = c.conn.Close()
}

// ReadPump handles browser commands until the connection fails, then
// unregisters the client. Run it in its own goroutine.
func (c *Client) ReadPump() {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	}
	if err := extend(""); err != nil {
		c.logger.Error("failed to set read deadline", slog.String("error", err.Error()))
		return
	}
	c.conn.SetPongHandler(extend)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error",
					slog.String("user_id", c.userID.String()),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		c.handleCommand(data)
	}
}

// WritePump flushes the outbox and keeps the connection alive with pings.
// Run it in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.outbox:
			if !ok {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(websocket.TextMessage, message); err != nil {
				c.logger.Warn("websocket write error",
					slog.String("user_id", c.userID.String()),
					slog.String("error", err.Error()),
				)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func (c *Client) handleCommand(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(reply{Type: "error", Message: "invalid message format"})
		return
	}

	switch msg.Type {
	case commandPing:
		c.reply(reply{Type: "pong"})
	case commandSubscribe, commandUnsubscribe:
		boardID, err := id.Parse(msg.BoardID)
		if err != nil {
			c.reply(reply{Type: "error", Message: "board_id is required for " + msg.Type})
			return
		}
		action := "unsubscribed"
		if msg.Type == commandSubscribe {
			c.hub.JoinBoard(c, boardID)
			action = "subscribed"
		} else {
			c.hub.LeaveBoard(c, boardID)
		}
		c.reply(reply{Type: "ack", Action: action, BoardID: boardID.String()})
	default:
		c.reply(reply{Type: "error", Message: "unknown message type: " + msg.Type})
	}
}

func (c *Client) reply(r reply) {
	if data, err := json.Marshal(r); err == nil {
		_ = c.Send(data)
	}
}
