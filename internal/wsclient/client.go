package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchsync/internal/protocol"
)

var ErrBufferFull = errors.New("send buffer full")

// Config for the client. PongWait bounds the silence tolerated from the server,
// which pings more often than that, so a longer gap means the connection is gone.
type Config struct {
	URL            string
	SendBufferSize int
	WriteWait      time.Duration
	PongWait       time.Duration
	MinBackoff     time.Duration
	MaxBackoff     time.Duration
}

func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		SendBufferSize: 64,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MinBackoff:     500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
	}
}

type HandlerFunc func(ctx context.Context, payload json.RawMessage)

// Client keeps a websocket connection to the relay open, reconnecting with
// exponential backoff until its context is canceled. Frames emitted while
// disconnected are buffered and written after the next connect.
type Client struct {
	cfg       Config
	dialer    *websocket.Dialer
	send      chan []byte
	mu        sync.RWMutex
	handlers  map[string]HandlerFunc
	onConnect []func(context.Context)
	logger    *slog.Logger

	// connect frames are written once at the start of every connection
	connectTypes  []string
	connectFrames map[string][]byte
	live          *liveConn
}

// liveConn holds connect frames set while a connection is up.
type liveConn struct {
	pending [][]byte
	kick    chan struct{}
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:      cfg,
		dialer:   websocket.DefaultDialer,
		send:     make(chan []byte, cfg.SendBufferSize),
		handlers: make(map[string]HandlerFunc),
		logger:   logger,

		connectFrames: make(map[string][]byte),
	}
}

// On registers the handler for an incoming event type, replacing any previous one.
func (c *Client) On(eventType string, handler HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers[eventType] = handler
}

// OnConnect registers fn to run after every successful (re)connect.
func (c *Client) OnConnect(fn func(context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onConnect = append(c.onConnect, fn)
}

func (c *Client) Emit(eventType string, payload any) error {
	data, err := protocol.Encode(eventType, payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", eventType, err)
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// EmitOnConnect sets the frame of eventType written first on every connection,
// replacing the previous one of that type. It is written on the current
// connection too when there is one. Unlike Emit the frame is never buffered,
// so a connection that drops before writing it does not leave a stale copy
// behind for the next one.
func (c *Client) EmitOnConnect(eventType string, payload any) error {
	data, err := protocol.Encode(eventType, payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", eventType, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.connectFrames[eventType]; !ok {
		c.connectTypes = append(c.connectTypes, eventType)
	}
	c.connectFrames[eventType] = data

	if c.live != nil {
		c.live.pending = append(c.live.pending, data)
		select {
		case c.live.kick <- struct{}{}:
		default:
		}
	}

	return nil
}

// Run blocks until ctx is canceled.
func (c *Client) Run(ctx context.Context) error {
	backoff := c.cfg.MinBackoff
	for {
		ws, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
		if err == nil {
			backoff = c.cfg.MinBackoff
			err = c.serve(ctx, ws)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.WarnContext(ctx, "connection lost, reconnecting", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, c.cfg.MaxBackoff)
	}
}

func (c *Client) serve(ctx context.Context, ws *websocket.Conn) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.logger.InfoContext(ctx, "connected", "url", c.cfg.URL)

	live := &liveConn{kick: make(chan struct{}, 1)}
	c.mu.Lock()
	initial := make([][]byte, 0, len(c.connectTypes))
	for _, eventType := range c.connectTypes {
		initial = append(initial, c.connectFrames[eventType])
	}
	c.live = live
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.live = nil
		c.mu.Unlock()
	}()

	errc := make(chan error, 2)
	go func() { errc <- c.writeLoop(connCtx, ws, initial, live) }()
	go func() { errc <- c.readLoop(connCtx, ws) }()

	c.mu.RLock()
	onConnect := c.onConnect
	c.mu.RUnlock()
	for _, fn := range onConnect {
		fn(connCtx)
	}

	err := <-errc
	cancel()
	ws.Close()
	<-errc

	return err
}

func (c *Client) writeLoop(ctx context.Context, ws *websocket.Conn, initial [][]byte, live *liveConn) error {
	for _, data := range initial {
		if err := c.write(ws, data); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteWait))
			return ctx.Err()
		case <-live.kick:
			c.mu.Lock()
			pending := live.pending
			live.pending = nil
			c.mu.Unlock()

			for _, data := range pending {
				if err := c.write(ws, data); err != nil {
					return err
				}
			}
		case data := <-c.send:
			if err := c.write(ws, data); err != nil {
				return err
			}
		}
	}
}

func (c *Client) write(ws *websocket.Conn, data []byte) error {
	ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context, ws *websocket.Conn) error {
	ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	ws.SetPingHandler(func(appData string) error {
		ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		err := ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.cfg.WriteWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read: %w", err)
		}
		ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.WarnContext(ctx, "invalid message", "error", err)
			continue
		}

		c.mu.RLock()
		handler, ok := c.handlers[msg.Type]
		c.mu.RUnlock()
		if !ok {
			c.logger.DebugContext(ctx, "unhandled message", "type", msg.Type)
			continue
		}

		handler(ctx, msg.Payload)
	}
}
