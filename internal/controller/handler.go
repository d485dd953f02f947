package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/sharetube/watchsync/internal/protocol"
	"github.com/sharetube/watchsync/internal/wsconn"
	"github.com/sharetube/watchsync/pkg/ctxlogger"
)

func (c *controller) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	connId := uuid.NewString()
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("conn_id", connId))
	conn := wsconn.New(connId, ws, c.connConfig, c.logger)

	if err := c.relayService.Connect(ctx, conn); err != nil {
		c.logger.WarnContext(ctx, "failed to connect", "error", err)
		ws.Close()
		return
	}
	defer c.disconnect(ctx, connId)

	go conn.WritePump(ctx)
	conn.ReadPump(ctx, func(ctx context.Context, data []byte) {
		if err := c.wsmux.ServeMessage(ctx, conn, data); err != nil {
			c.logger.InfoContext(ctx, "failed to handle message", "error", err)
			c.writeError(ctx, conn, err)
		}
	})
}

func (c *controller) disconnect(ctx context.Context, connId string) {
	if err := c.relayService.Disconnect(ctx, connId); err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect", "error", err)
	}
}

// writeError reports a rejected message to its sender only.
func (c *controller) writeError(ctx context.Context, conn *wsconn.Conn, err error) {
	data, encodeErr := protocol.Encode(protocol.EventError, c.errorPayload(err))
	if encodeErr != nil {
		c.logger.ErrorContext(ctx, "failed to encode error", "error", encodeErr)
		return
	}

	if err := conn.Send(data); err != nil {
		c.logger.DebugContext(ctx, "failed to send error", "error", err)
	}
}

func (c *controller) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.relayService.GetStats(r.Context())
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to get stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, &protocol.Error{Message: "failed to get stats"})
		return
	}

	if err := writeJSON(w, http.StatusOK, stats); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write stats", "error", err)
	}
}
