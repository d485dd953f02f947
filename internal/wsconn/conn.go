package wsconn

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrBufferFull = errors.New("send buffer full")
	ErrClosed     = errors.New("connection closed")
)

type Config struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBufferSize int
}

func DefaultConfig() Config {
	return Config{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 4096,
		SendBufferSize: 256,
	}
}

type Conn struct {
	id     string
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	cfg    Config
	logger *slog.Logger
}

func New(id string, ws *websocket.Conn, cfg Config, logger *slog.Logger) *Conn {
	return &Conn{
		id:     id,
		ws:     ws,
		send:   make(chan []byte, cfg.SendBufferSize),
		done:   make(chan struct{}),
		cfg:    cfg,
		logger: logger,
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues data for the write pump without blocking.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close signals the write pump to send a close frame and release the
// websocket, which in turn unblocks the read pump. Safe to call more than once.
func (c *Conn) Close() error {
	c.once.Do(func() {
		close(c.done)
	})
	return nil
}

// ReadPump reads frames until the connection fails or is closed, passing each
// one to handle.
func (c *Conn) ReadPump(ctx context.Context, handle func(ctx context.Context, data []byte)) {
	defer c.Close()

	c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(ctx, "read error", "error", err)
			}
			return
		}

		handle(ctx, data)
	}
}

// WritePump drains the send queue and keeps the connection alive with pings.
// It owns the underlying websocket and closes it on return.
func (c *Conn) WritePump(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteWait))
			return
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.DebugContext(ctx, "write error", "error", err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
