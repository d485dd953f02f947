package simplayer

import (
	"sync"
	"time"

	"github.com/sharetube/watchsync/internal/domain"
)

// Player is an in-process stand-in for an embedded video player. It reports
// status changes through the OnStateChange callback the way an embedded
// player does: synchronously, after the status has changed. Seeking does not
// produce a callback.
type Player struct {
	mu        sync.Mutex
	videoId   string
	status    domain.PlayerState
	position  float64
	startedAt time.Time
	now       func() time.Time
	onChange  func(domain.PlayerState)
}

func New() *Player {
	return &Player{
		status: domain.PlayerStateUnstarted,
		now:    time.Now,
	}
}

func (p *Player) OnStateChange(fn func(domain.PlayerState)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.onChange = fn
}

func (p *Player) VideoID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.videoId
}

func (p *Player) Status() domain.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.status
}

func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.currentTime()
}

func (p *Player) currentTime() float64 {
	if p.status == domain.PlayerStatePlaying {
		return p.position + p.now().Sub(p.startedAt).Seconds()
	}
	return p.position
}

func (p *Player) Load(videoId string) {
	p.mu.Lock()
	p.videoId = videoId
	p.position = 0
	p.startedAt = p.now()
	p.mu.Unlock()

	p.setStatus(domain.PlayerStateUnstarted)
}

func (p *Player) Seek(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.position = max(seconds, 0)
	p.startedAt = p.now()
}

func (p *Player) Play() {
	if p.VideoID() == "" {
		return
	}
	p.setStatus(domain.PlayerStatePlaying)
}

func (p *Player) Pause() {
	if p.VideoID() == "" {
		return
	}
	p.setStatus(domain.PlayerStatePaused)
}

// End reports the video as finished.
func (p *Player) End() {
	p.setStatus(domain.PlayerStateEnded)
}

func (p *Player) setStatus(status domain.PlayerState) {
	p.mu.Lock()
	if p.status == status && status != domain.PlayerStateUnstarted {
		p.mu.Unlock()
		return
	}
	p.position = p.currentTime()
	p.startedAt = p.now()
	p.status = status
	onChange := p.onChange
	p.mu.Unlock()

	if onChange != nil {
		onChange(status)
	}
}
