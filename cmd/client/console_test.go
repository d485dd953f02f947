package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/sharetube/watchsync/internal/agent"
	"github.com/sharetube/watchsync/internal/domain"
	"github.com/sharetube/watchsync/internal/protocol"
	"github.com/sharetube/watchsync/internal/simplayer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	states []protocol.VideoStateChange
}

func (r *recorder) Emit(eventType string, payload any) error {
	if eventType != protocol.EventVideoStateChange {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var v protocol.VideoStateChange
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.states = append(r.states, v)
	return nil
}

func runConsole(t *testing.T, input string) (*recorder, *simplayer.Player, string) {
	t.Helper()
	ctx := context.Background()
	rec := &recorder{}
	a := agent.New(rec, slog.Default())
	require.NoError(t, a.Join(ctx, "r1"))

	p := simplayer.New()
	p.OnStateChange(func(s domain.PlayerState) {
		a.HandlePlayerStateChange(ctx, s)
	})
	a.AttachPlayer(ctx, p)

	var out bytes.Buffer
	require.NoError(t, newConsole(strings.NewReader(input), &out, a, p, "http://localhost:5173/?room=r1").run(ctx))
	return rec, p, out.String()
}

func TestConsoleSession(t *testing.T) {
	rec, p, out := runConsole(t, strings.Join([]string{
		"url https://youtu.be/dQw4w9WgXcQ",
		"pause",
		"seek 42.5",
		"link",
		"quit",
		"play",
	}, "\n"))

	assert.Equal(t, domain.PlayerStatePaused, p.Status())
	assert.Contains(t, out, "http://localhost:5173/?room=r1")

	require.Len(t, rec.states, 3)
	assert.Equal(t, protocol.VideoStateChange{
		RoomId:      "r1",
		VideoId:     "dQw4w9WgXcQ",
		PlayerState: domain.PlayerStatePlaying,
		CurrentTime: 0,
	}, rec.states[0])
	assert.Equal(t, domain.PlayerStatePaused, rec.states[1].PlayerState)
	assert.Equal(t, domain.PlayerStatePaused, rec.states[2].PlayerState)
	assert.Equal(t, 42.5, rec.states[2].CurrentTime)
}

func TestConsoleRejectsBadInput(t *testing.T) {
	rec, _, out := runConsole(t, "url https://example.com\nseek -1\nseek\nbogus\n")

	assert.Empty(t, rec.states)
	assert.Contains(t, out, agent.ErrInvalidVideoURL.Error())
	assert.Contains(t, out, `invalid position "-1"`)
	assert.Contains(t, out, "usage: seek <seconds>")
	assert.Contains(t, out, usage)
}
