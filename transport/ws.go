package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moffa90/go-vscp/protocol"
)

// ws2 message types.
const (
	wsTypeEvent    = "EVENT"
	wsTypeCommand  = "CMD"
	wsTypePositive = "+"
	wsTypeNegative = "-"
)

// wsMessage is one ws2 JSON message.
type wsMessage struct {
	Type    string          `json:"type"`
	Command string          `json:"command,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	Error   string          `json:"error,omitempty"`
	Reason  string          `json:"reason,omitempty"`
	Event   *protocol.Event `json:"event,omitempty"`
}

// WSClient exchanges events with a VSCP websocket server using the ws2
// JSON protocol.
type WSClient struct {
	conn  *websocket.Conn
	cfg   config
	queue *Queue

	writeMu   sync.Mutex
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// DialWS connects to a ws:// or wss:// URL, sending Basic auth when
// credentials are configured.
//
// Example:
//
//	client, err := transport.DialWS(ctx, "ws://localhost:8884/ws2",
//	    transport.WithCredentials("admin", password),
//	)
func DialWS(ctx context.Context, wsURL string, opts ...Option) (*WSClient, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.handshakeTimeout,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: cfg.insecure,
		}
	}

	headers := http.Header{}
	if cfg.username != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.username + ":" + cfg.password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}

	c := &WSClient{
		conn:  conn,
		cfg:   cfg,
		queue: NewQueue(cfg.queueSize, cfg.filter),
	}
	c.wg.Add(1)
	go c.readLoop()
	return c, nil
}

// Send writes ev as an EVENT message.
func (c *WSClient) Send(ctx context.Context, ev *protocol.Event) error {
	return c.write(ctx, &wsMessage{Type: wsTypeEvent, Event: ev})
}

// Command sends a ws2 command such as "OPEN" or "CLOSE". The server's
// reply is logged and not returned.
func (c *WSClient) Command(ctx context.Context, command string, args interface{}) error {
	msg := &wsMessage{Type: wsTypeCommand, Command: command}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("command %s: %w", command, err)
		}
		msg.Args = raw
	}
	return c.write(ctx, msg)
}

func (c *WSClient) write(ctx context.Context, msg *wsMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write %s message: %w", msg.Type, err)
	}
	return nil
}

// Receive returns the next received event.
func (c *WSClient) Receive(ctx context.Context) (*protocol.Event, error) {
	return c.queue.Receive(ctx)
}

// Count returns the number of events waiting in the receive queue.
func (c *WSClient) Count() int {
	return c.queue.Count()
}

// Close sends a close frame, closes the connection and waits for the
// reader to exit.
func (c *WSClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.conn.Close()
		c.wg.Wait()
		c.queue.Close()
	})
	return err
}

func (c *WSClient) readLoop() {
	defer c.wg.Done()
	defer c.queue.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.cfg.logDebug("websocket read", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.cfg.logDebug("dropping message", "error", err)
			continue
		}

		switch msg.Type {
		case wsTypeEvent:
			if msg.Event != nil {
				c.queue.Push(msg.Event)
			}
		case wsTypePositive:
			c.cfg.logDebug("command accepted", "command", msg.Command)
		case wsTypeNegative:
			c.cfg.logError("command failed", "command", msg.Command, "error", msg.Error, "reason", msg.Reason)
		default:
			c.cfg.logDebug("ignoring message", "type", msg.Type)
		}
	}
}
