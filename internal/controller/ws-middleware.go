package controller

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/sharetube/watchsync/internal/wsconn"
	"github.com/sharetube/watchsync/pkg/ctxlogger"
	"github.com/sharetube/watchsync/pkg/wsrouter"
)

func (c *controller) wsRequestIdMw() wsrouter.Middleware[*wsconn.Conn] {
	return func(next wsrouter.HandlerFunc[*wsconn.Conn, any]) wsrouter.HandlerFunc[*wsconn.Conn, any] {
		return func(ctx context.Context, conn *wsconn.Conn, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_request_id", c.generateTimeBasedId()))
			return next(ctx, conn, payload)
		}
	}
}

func (c *controller) loggerWSMw() wsrouter.Middleware[*wsconn.Conn] {
	return func(next wsrouter.HandlerFunc[*wsconn.Conn, any]) wsrouter.HandlerFunc[*wsconn.Conn, any] {
		return func(ctx context.Context, conn *wsconn.Conn, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.InfoContext(ctx, "websocket message received", "payload", payload)

			start := time.Now()

			err := next(ctx, conn, payload)

			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)
			c.logger.InfoContext(ctx, "websocket message handled",
				"processing_time_us", time.Since(start).Microseconds(),
				"alloc", memStats.Alloc/1024,
				"sys", memStats.Sys/1024,
				"goroutines", runtime.NumGoroutine(),
			)

			return err
		}
	}
}

func (c *controller) metricsWSMw() wsrouter.Middleware[*wsconn.Conn] {
	return func(next wsrouter.HandlerFunc[*wsconn.Conn, any]) wsrouter.HandlerFunc[*wsconn.Conn, any] {
		return func(ctx context.Context, conn *wsconn.Conn, payload any) error {
			err := next(ctx, conn, payload)

			// unknown types come from clients and would grow the label set
			messageType := wsrouter.GetMessageTypeFromCtx(ctx)
			if errors.Is(err, wsrouter.ErrUnknownType) {
				messageType = "unknown"
			}
			c.metrics.ObserveMessage(messageType, err)

			return err
		}
	}
}
