package redis

import (
	"context"
	"fmt"

	"github.com/sharetube/watchsync/internal/repository/room"
)

const stateKeyPrefix = "room:"

func (r repo) getStateKey(roomId string) string {
	return stateKeyPrefix + roomId + ":state"
}

func (r repo) SetState(ctx context.Context, params *room.SetStateParams) error {
	funcName := "room.redis.SetState"
	stateKey := r.getStateKey(params.RoomId)

	pipe := r.rc.TxPipeline()
	pipe.Del(ctx, stateKey)
	pipe.HSet(ctx, stateKey, room.State{
		VideoId:     params.State.VideoId,
		PlayerState: int(params.State.PlayerState),
		CurrentTime: params.State.CurrentTime,
		UpdatedAt:   params.UpdatedAt.UnixMilli(),
	})
	if r.expireDuration > 0 {
		pipe.Expire(ctx, stateKey, r.expireDuration)
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set state: %w", err)
	}

	r.logger.DebugContext(ctx, funcName, "room_id", params.RoomId, "result", "OK")
	return nil
}

func (r repo) GetState(ctx context.Context, roomId string) (room.State, error) {
	funcName := "room.redis.GetState"
	cmd := r.rc.HGetAll(ctx, r.getStateKey(roomId))
	if err := cmd.Err(); err != nil {
		return room.State{}, fmt.Errorf("failed to get state: %w", err)
	}

	if len(cmd.Val()) == 0 {
		r.logger.DebugContext(ctx, funcName, "room_id", roomId, "error", room.ErrStateNotFound)
		return room.State{}, room.ErrStateNotFound
	}

	var state room.State
	if err := cmd.Scan(&state); err != nil {
		return room.State{}, fmt.Errorf("failed to scan state: %w", err)
	}

	return state, nil
}

func (r repo) Count(ctx context.Context) (int, error) {
	count := 0
	iter := r.rc.Scan(ctx, 0, stateKeyPrefix+"*:state", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count states: %w", err)
	}

	return count, nil
}
