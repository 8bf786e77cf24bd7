package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"werewolf-client/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Delay before redialing after the connection drops
	redialDelay = 3 * time.Second
)

// Subscriber receives pushed game events over a WebSocket. The push channel
// only speeds up convergence; pollers stay authoritative, so every failure
// here is logged and retried, never surfaced.
type Subscriber struct {
	url    string
	gameID string
	dialer *websocket.Dialer
	logger *slog.Logger

	redial time.Duration
}

// NewSubscriber creates a subscriber for the game at the given ws:// URL
func NewSubscriber(rawURL, gameID string, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		url:    rawURL,
		gameID: gameID,
		dialer: websocket.DefaultDialer,
		logger: logger,
		redial: redialDelay,
	}
}

// Run delivers events to out until ctx is cancelled, redialing whenever the
// connection drops.
func (s *Subscriber) Run(ctx context.Context, out chan<- *domain.GameEvent) {
	for {
		if err := s.runOnce(ctx, out); err != nil && ctx.Err() == nil {
			s.logger.Warn("push connection lost", "url", s.url, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.redial):
		}
	}
}

// dialURL appends the game id to the configured URL
func (s *Subscriber) dialURL() (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("game_id", s.gameID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// runOnce holds a single connection open until it fails or ctx is cancelled
func (s *Subscriber) runOnce(ctx context.Context, out chan<- *domain.GameEvent) error {
	target, err := s.dialURL()
	if err != nil {
		return fmt.Errorf("parse push url: %w", err)
	}

	conn, _, err := s.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	c := &connection{conn: conn, done: make(chan struct{})}
	defer c.Close()

	s.logger.Info("push connected", "url", s.url, "gameID", s.gameID)

	if err := c.write(NewClientMessage(MsgSubscribe, &SubscribePayload{GameID: s.gameID})); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	go c.pingLoop()
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	return s.readPump(ctx, c, out)
}

// readPump pumps messages from the WebSocket connection
func (s *Subscriber) readPump(ctx context.Context, c *connection, out chan<- *domain.GameEvent) error {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return err
			}
			return nil
		}

		event, err := s.decode(message)
		if err != nil {
			s.logger.Debug("ignoring push message", "error", err)
			continue
		}
		if event == nil {
			continue
		}

		select {
		case out <- event:
		case <-ctx.Done():
			return nil
		}
	}
}

// decode turns a server message into a game event. Messages that carry no
// event (pong, error) return nil.
func (s *Subscriber) decode(data []byte) (*domain.GameEvent, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	switch msg.Type {
	case MsgStatusChanged:
		var p StatusChangedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", msg.Type, err)
		}
		if p.GameID != "" && p.GameID != s.gameID {
			return nil, nil
		}
		return domain.NewStatusEvent(s.gameID, domain.ParseStatus(p.Status)), nil
	case MsgGameFinished:
		var p GameFinishedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", msg.Type, err)
		}
		if p.GameID != "" && p.GameID != s.gameID {
			return nil, nil
		}
		return domain.NewFinishedEvent(s.gameID, domain.JudgeOutcome(p.Result)), nil
	case MsgError:
		var p ErrorPayload
		_ = json.Unmarshal(msg.Payload, &p)
		s.logger.Warn("push server error", "code", p.Code, "message", p.Message)
		return nil, nil
	case MsgPong:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// connection serializes writes to a websocket connection, as gorilla/websocket
// allows only one concurrent writer.
type connection struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func (c *connection) write(msg *ClientMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// pingLoop keeps the connection alive until it is closed
func (c *connection) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close closes the connection once
func (c *connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}
