package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sharetube/watchsync/internal/repository/connection"
	"github.com/sharetube/watchsync/internal/repository/room"
)

var ErrConnNotFound = errors.New("connection not found")

type iRoomRepo interface {
	SetState(context.Context, *room.SetStateParams) error
	GetState(context.Context, string) (room.State, error)
	Count(context.Context) (int, error)
}

// iEvicter is implemented by registries that cannot expire entries on their own.
type iEvicter interface {
	EvictExpired(context.Context, time.Time) (int, error)
}

type iConnRepo interface {
	Add(connection.Conn) error
	Join(connId, roomId string) error
	Remove(connId string) ([]string, error)
	GetConn(connId string) (connection.Conn, error)
	GetRoomConns(roomId, excludeId string) []connection.Conn
	GetAll() []connection.Conn
	Stats() (rooms, conns int)
}

type Config struct {
	// RoomTTL is how long a room state is kept without updates. Zero keeps it
	// for the life of the process.
	RoomTTL time.Duration
}

type service struct {
	roomRepo iRoomRepo
	connRepo iConnRepo
	roomTTL  time.Duration
	logger   *slog.Logger
	now      func() time.Time
	// dispatch serializes join and state change handling so that registry
	// writes and broadcasts are observed in the same order.
	dispatch sync.Mutex
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	return &service{
		roomRepo: roomRepo,
		connRepo: connRepo,
		roomTTL:  cfg.RoomTTL,
		logger:   logger,
		now:      time.Now,
	}
}
