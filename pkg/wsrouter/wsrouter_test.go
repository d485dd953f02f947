package wsrouter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id string
}

type pointInput struct {
	X int `json:"x"`
}

func TestServeMessage(t *testing.T) {
	r := New[*fakeConn]()

	var got []any
	Handle(r, "point", func(ctx context.Context, conn *fakeConn, input pointInput) error {
		assert.Equal(t, "point", GetMessageTypeFromCtx(ctx))
		got = append(got, input)
		return nil
	})
	Handle(r, "name", func(_ context.Context, _ *fakeConn, input string) error {
		got = append(got, input)
		return nil
	})
	Handle(r, "fail", func(context.Context, *fakeConn, struct{}) error {
		return errors.New("boom")
	})

	conn := &fakeConn{id: "c1"}
	ctx := context.Background()

	require.NoError(t, r.ServeMessage(ctx, conn, []byte(`{"type":"point","payload":{"x":3}}`)))
	require.NoError(t, r.ServeMessage(ctx, conn, []byte(`{"type":"name","payload":"abc"}`)))
	require.NoError(t, r.ServeMessage(ctx, conn, []byte(`{"type":"point"}`)))
	assert.Equal(t, []any{pointInput{X: 3}, "abc", pointInput{}}, got)

	assert.EqualError(t, r.ServeMessage(ctx, conn, []byte(`{"type":"fail"}`)), "boom")
	assert.ErrorIs(t, r.ServeMessage(ctx, conn, []byte(`not json`)), ErrInvalidMessage)
	assert.ErrorIs(t, r.ServeMessage(ctx, conn, []byte(`{"type":"nope"}`)), ErrUnknownType)
	assert.ErrorIs(t, r.ServeMessage(ctx, conn, []byte(`{"type":"point","payload":"x"}`)), ErrInvalidPayload)
}

func TestMiddlewareOrder(t *testing.T) {
	r := New[*fakeConn]()

	var order []string
	mw := func(name string) Middleware[*fakeConn] {
		return func(next HandlerFunc[*fakeConn, any]) HandlerFunc[*fakeConn, any] {
			return func(ctx context.Context, conn *fakeConn, input any) error {
				order = append(order, name)
				return next(ctx, conn, input)
			}
		}
	}
	r.Use(mw("outer"), mw("inner"))
	Handle(r, "ping", func(context.Context, *fakeConn, struct{}) error {
		order = append(order, "handler")
		return nil
	})

	require.NoError(t, r.ServeMessage(context.Background(), &fakeConn{}, []byte(`{"type":"ping"}`)))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestMiddlewareSeesRejectedFrames(t *testing.T) {
	r := New[*fakeConn]()

	type seen struct {
		messageType string
		err         error
	}
	var got []seen
	r.Use(func(next HandlerFunc[*fakeConn, any]) HandlerFunc[*fakeConn, any] {
		return func(ctx context.Context, conn *fakeConn, input any) error {
			err := next(ctx, conn, input)
			got = append(got, seen{messageType: GetMessageTypeFromCtx(ctx), err: err})
			return err
		}
	})
	Handle(r, "point", func(context.Context, *fakeConn, pointInput) error { return nil })

	ctx := context.Background()
	conn := &fakeConn{}
	r.ServeMessage(ctx, conn, []byte(`not json`))
	r.ServeMessage(ctx, conn, []byte(`{"type":"nope"}`))
	r.ServeMessage(ctx, conn, []byte(`{"type":"point","payload":"x"}`))
	r.ServeMessage(ctx, conn, []byte(`{"type":"point","payload":{"x":1}}`))

	require.Len(t, got, 4)
	assert.Equal(t, TypeInvalid, got[0].messageType)
	assert.ErrorIs(t, got[0].err, ErrInvalidMessage)
	assert.Equal(t, "nope", got[1].messageType)
	assert.ErrorIs(t, got[1].err, ErrUnknownType)
	assert.Equal(t, "point", got[2].messageType)
	assert.ErrorIs(t, got[2].err, ErrInvalidPayload)
	assert.Equal(t, "point", got[3].messageType)
	assert.NoError(t, got[3].err)
}
