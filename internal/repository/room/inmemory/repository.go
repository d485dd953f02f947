package inmemory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sharetube/watchsync/internal/repository/room"
)

type repo struct {
	states map[string]room.State
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		states: make(map[string]room.State),
		logger: logger,
	}
}

func (r *repo) SetState(ctx context.Context, params *room.SetStateParams) error {
	funcName := "room.inmemory.SetState"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[params.RoomId] = room.State{
		VideoId:     params.State.VideoId,
		PlayerState: int(params.State.PlayerState),
		CurrentTime: params.State.CurrentTime,
		UpdatedAt:   params.UpdatedAt.UnixMilli(),
	}

	r.logger.DebugContext(ctx, funcName, "room_id", params.RoomId, "result", "OK")
	return nil
}

func (r *repo) GetState(ctx context.Context, roomId string) (room.State, error) {
	funcName := "room.inmemory.GetState"
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[roomId]
	if !ok {
		r.logger.DebugContext(ctx, funcName, "room_id", roomId, "error", room.ErrStateNotFound)
		return room.State{}, room.ErrStateNotFound
	}

	return state, nil
}

func (r *repo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.states), nil
}

// EvictExpired removes states last updated before the given time.
func (r *repo) EvictExpired(ctx context.Context, before time.Time) (int, error) {
	funcName := "room.inmemory.EvictExpired"
	r.mu.Lock()
	defer r.mu.Unlock()

	threshold := before.UnixMilli()
	evicted := 0
	for roomId, state := range r.states {
		if state.UpdatedAt < threshold {
			delete(r.states, roomId)
			evicted++
		}
	}

	if evicted > 0 {
		r.logger.InfoContext(ctx, funcName, "evicted", evicted, "remaining", len(r.states))
	}
	return evicted, nil
}
