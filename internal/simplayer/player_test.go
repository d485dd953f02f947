package simplayer

import (
	"testing"
	"time"

	"github.com/sharetube/watchsync/internal/domain"
	"github.com/stretchr/testify/assert"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func newTestPlayer() (*Player, *clock, *[]domain.PlayerState) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	p := New()
	p.now = c.now

	var changes []domain.PlayerState
	p.OnStateChange(func(s domain.PlayerState) {
		changes = append(changes, s)
	})
	return p, c, &changes
}

func TestPlayWithoutVideo(t *testing.T) {
	p, _, changes := newTestPlayer()

	p.Play()

	assert.Equal(t, domain.PlayerStateUnstarted, p.Status())
	assert.Empty(t, *changes)
}

func TestPlaybackClock(t *testing.T) {
	p, c, changes := newTestPlayer()

	p.Load("xyz")
	p.Seek(10)
	p.Play()
	c.t = c.t.Add(5 * time.Second)
	assert.InDelta(t, 15, p.CurrentTime(), 0.001)

	p.Pause()
	c.t = c.t.Add(time.Minute)
	assert.InDelta(t, 15, p.CurrentTime(), 0.001)

	assert.Equal(t, []domain.PlayerState{
		domain.PlayerStateUnstarted,
		domain.PlayerStatePlaying,
		domain.PlayerStatePaused,
	}, *changes)
}

func TestRepeatedStatusIsSilent(t *testing.T) {
	p, _, changes := newTestPlayer()

	p.Load("xyz")
	p.Play()
	p.Play()
	p.Seek(30)

	assert.Equal(t, []domain.PlayerState{domain.PlayerStateUnstarted, domain.PlayerStatePlaying}, *changes)
}

func TestLoadResetsPosition(t *testing.T) {
	p, c, _ := newTestPlayer()

	p.Load("one")
	p.Play()
	c.t = c.t.Add(time.Minute)
	p.Load("two")

	assert.Equal(t, "two", p.VideoID())
	assert.Equal(t, domain.PlayerStateUnstarted, p.Status())
	assert.Zero(t, p.CurrentTime())
}
