package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchsync/internal/domain"
	"github.com/sharetube/watchsync/internal/repository/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, expire time.Duration) (*repo, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, expire, slog.Default()), s
}

func TestGetStateAbsent(t *testing.T) {
	r, _ := newTestRepo(t, 0)

	_, err := r.GetState(context.Background(), "abc")
	assert.ErrorIs(t, err, room.ErrStateNotFound)
}

func TestSetStateOverwrites(t *testing.T) {
	r, _ := newTestRepo(t, 0)
	ctx := context.Background()

	first := domain.PlaybackState{VideoId: "xyz", PlayerState: domain.PlayerStatePlaying, CurrentTime: 0}
	last := domain.PlaybackState{VideoId: "xyz", PlayerState: domain.PlayerStatePaused, CurrentTime: 42.5}

	for _, s := range []domain.PlaybackState{first, last} {
		require.NoError(t, r.SetState(ctx, &room.SetStateParams{
			RoomId:    "r1",
			State:     s,
			UpdatedAt: time.Now(),
		}))
	}

	state, err := r.GetState(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, last, state.PlaybackState())
	assert.NotZero(t, state.UpdatedAt)
}

func TestSetStateUnstarted(t *testing.T) {
	r, _ := newTestRepo(t, 0)
	ctx := context.Background()

	want := domain.PlaybackState{VideoId: "abc", PlayerState: domain.PlayerStateUnstarted, CurrentTime: 1.5}
	require.NoError(t, r.SetState(ctx, &room.SetStateParams{RoomId: "r2", State: want, UpdatedAt: time.Now()}))

	state, err := r.GetState(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, want, state.PlaybackState())
}

func TestSetStateExpires(t *testing.T) {
	r, s := newTestRepo(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, r.SetState(ctx, &room.SetStateParams{
		RoomId:    "r1",
		State:     domain.PlaybackState{VideoId: "xyz"},
		UpdatedAt: time.Now(),
	}))
	assert.Equal(t, time.Minute, s.TTL(r.getStateKey("r1")))

	s.FastForward(2 * time.Minute)

	_, err := r.GetState(ctx, "r1")
	assert.ErrorIs(t, err, room.ErrStateNotFound)
}

func TestCount(t *testing.T) {
	r, _ := newTestRepo(t, 0)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.SetState(ctx, &room.SetStateParams{
			RoomId:    id,
			State:     domain.PlaybackState{VideoId: id},
			UpdatedAt: time.Now(),
		}))
	}

	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
