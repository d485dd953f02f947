package wsrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// TypeInvalid is the message type reported for frames that are not a valid envelope.
const TypeInvalid = "invalid"

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrUnknownType    = errors.New("unknown message type")
	ErrInvalidPayload = errors.New("invalid payload")
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// HandlerFunc handles a decoded payload of type T received on conn.
type HandlerFunc[C, T any] func(ctx context.Context, conn C, input T) error

type Middleware[C any] func(next HandlerFunc[C, any]) HandlerFunc[C, any]

type route[C any] struct {
	decode  func(json.RawMessage) (any, error)
	handler HandlerFunc[C, any]
}

// WSRouter dispatches {"type", "payload"} frames to typed handlers.
type WSRouter[C any] struct {
	routes      map[string]route[C]
	middlewares []Middleware[C]
}

func New[C any]() *WSRouter[C] {
	return &WSRouter[C]{routes: make(map[string]route[C])}
}

// Use appends middlewares. The first one registered runs outermost.
func (r *WSRouter[C]) Use(middlewares ...Middleware[C]) {
	r.middlewares = append(r.middlewares, middlewares...)
}

func Handle[C, T any](r *WSRouter[C], messageType string, handler HandlerFunc[C, T]) {
	r.routes[messageType] = route[C]{
		decode: func(raw json.RawMessage) (any, error) {
			var input T
			if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
				return input, nil
			}
			if err := json.Unmarshal(raw, &input); err != nil {
				return nil, err
			}
			return input, nil
		},
		handler: func(ctx context.Context, conn C, input any) error {
			return handler(ctx, conn, input.(T))
		},
	}
}

// ServeMessage decodes a single frame and runs the matching handler. The
// middleware chain wraps decoding too, so rejected frames pass through it with
// the raw payload as input and TypeInvalid in ctx when the envelope is broken.
func (r *WSRouter[C]) ServeMessage(ctx context.Context, conn C, data []byte) error {
	var msg message
	envelopeErr := json.Unmarshal(data, &msg)

	messageType := msg.Type
	if envelopeErr != nil {
		messageType = TypeInvalid
	}

	var handler HandlerFunc[C, any] = func(ctx context.Context, conn C, _ any) error {
		if envelopeErr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMessage, envelopeErr)
		}

		rt, ok := r.routes[msg.Type]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
		}

		input, err := rt.decode(msg.Payload)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}

		return rt.handler(ctx, conn, input)
	}
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	return handler(context.WithValue(ctx, messageTypeKey, messageType), conn, msg.Payload)
}
