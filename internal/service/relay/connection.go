package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/watchsync/internal/repository/connection"
)

func (s *service) Connect(ctx context.Context, conn connection.Conn) error {
	if err := s.connRepo.Add(conn); err != nil {
		return fmt.Errorf("failed to add connection: %w", err)
	}

	s.logger.InfoContext(ctx, "connected", "conn_id", conn.ID())
	return nil
}

// Disconnect drops every room membership of the connection. Room states are
// left untouched and nothing is broadcast.
func (s *service) Disconnect(ctx context.Context, connId string) error {
	rooms, err := s.connRepo.Remove(connId)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return ErrConnNotFound
		}
		return fmt.Errorf("failed to remove connection: %w", err)
	}

	s.logger.InfoContext(ctx, "disconnected", "conn_id", connId, "rooms", rooms)
	return nil
}

// Shutdown closes every open connection.
func (s *service) Shutdown(ctx context.Context) {
	conns := s.connRepo.GetAll()
	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			s.logger.DebugContext(ctx, "failed to close connection", "conn_id", conn.ID(), "error", err)
		}
	}

	s.logger.InfoContext(ctx, "connections closed", "count", len(conns))
}
