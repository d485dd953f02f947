package inmemory

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/sharetube/watchsync/internal/domain"
	"github.com/sharetube/watchsync/internal/repository/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStateAbsent(t *testing.T) {
	r := NewRepo(slog.Default())

	_, err := r.GetState(context.Background(), "abc")
	assert.ErrorIs(t, err, room.ErrStateNotFound)
}

func TestSetStateLastWriteWins(t *testing.T) {
	r := NewRepo(slog.Default())
	ctx := context.Background()

	updates := []domain.PlaybackState{
		{VideoId: "xyz", PlayerState: domain.PlayerStatePlaying, CurrentTime: 0},
		{VideoId: "xyz", PlayerState: domain.PlayerStatePaused, CurrentTime: 12.25},
		{VideoId: "qwe", PlayerState: domain.PlayerStateBuffering, CurrentTime: 3},
	}
	for _, u := range updates {
		require.NoError(t, r.SetState(ctx, &room.SetStateParams{
			RoomId:    "r1",
			State:     u,
			UpdatedAt: time.Now(),
		}))
	}

	state, err := r.GetState(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, updates[len(updates)-1], state.PlaybackState())

	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEvictExpired(t *testing.T) {
	r := NewRepo(slog.Default())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, r.SetState(ctx, &room.SetStateParams{
		RoomId:    "old",
		State:     domain.PlaybackState{VideoId: "a"},
		UpdatedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, r.SetState(ctx, &room.SetStateParams{
		RoomId:    "fresh",
		State:     domain.PlaybackState{VideoId: "b"},
		UpdatedAt: now,
	}))

	evicted, err := r.EvictExpired(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)

	_, err = r.GetState(ctx, "old")
	assert.ErrorIs(t, err, room.ErrStateNotFound)

	state, err := r.GetState(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "b", state.VideoId)
}
