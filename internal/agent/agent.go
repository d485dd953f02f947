package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sharetube/watchsync/internal/domain"
	"github.com/sharetube/watchsync/internal/protocol"
	"github.com/sharetube/watchsync/pkg/ytvideoid"
)

var (
	ErrNotJoined       = errors.New("not joined to a room")
	ErrNoPlayer        = errors.New("player is not attached")
	ErrEmptyRoomID     = errors.New("room id is empty")
	ErrInvalidVideoURL = errors.New("invalid video url")
)

// Player is the embedded video player driven by the agent. Status changes are
// reported back through HandlePlayerStateChange.
type Player interface {
	VideoID() string
	Status() domain.PlayerState
	CurrentTime() float64
	Load(videoId string)
	Seek(seconds float64)
	Play()
	Pause()
}

type Emitter interface {
	Emit(eventType string, payload any) error
}

type State int

const (
	StateIdle State = iota
	StateJoined
	StateSyncing
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoined:
		return "joined"
	case StateSyncing:
		return "syncing"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Agent keeps a local player in step with a room. Remote states are applied
// to the player, genuine local changes are emitted to the relay and the
// callbacks caused by the agent's own player actions are swallowed.
//
// mu is never held while calling into the player, so players may invoke
// HandlePlayerStateChange synchronously from Play, Pause or Load.
type Agent struct {
	emitter Emitter
	logger  *slog.Logger

	mu     sync.Mutex
	roomId string
	player Player
	// pending is the last remote state received before a player was attached.
	pending *domain.PlaybackState
	// expected holds the statuses the agent's own player actions will report,
	// in order.
	expected []domain.PlayerState
}

func New(emitter Emitter, logger *slog.Logger) *Agent {
	return &Agent{
		emitter: emitter,
		logger:  logger,
	}
}

func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.roomId == "":
		return StateIdle
	case a.player == nil:
		return StateJoined
	case len(a.expected) > 0:
		return StateSyncing
	default:
		return StateActive
	}
}

func (a *Agent) RoomID() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.roomId
}

// Join emits join-room for roomId. Membership lives on the server connection,
// so the emitter has to repeat the frame on every reconnect.
func (a *Agent) Join(ctx context.Context, roomId string) error {
	if roomId == "" {
		return ErrEmptyRoomID
	}

	a.mu.Lock()
	a.roomId = roomId
	a.mu.Unlock()

	if err := a.emitter.Emit(protocol.EventJoinRoom, roomId); err != nil {
		return fmt.Errorf("failed to emit join: %w", err)
	}

	a.logger.InfoContext(ctx, "joining room", "room_id", roomId)
	return nil
}

// AttachPlayer hands the player to the agent and applies the last remote
// state received while there was none.
func (a *Agent) AttachPlayer(ctx context.Context, p Player) {
	a.mu.Lock()
	a.player = p
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	if pending != nil {
		a.apply(ctx, p, *pending)
	}
}

// HandleVideoState applies a state received from the room.
func (a *Agent) HandleVideoState(ctx context.Context, state domain.PlaybackState) {
	a.mu.Lock()
	p := a.player
	if p == nil {
		a.pending = &state
		a.mu.Unlock()
		a.logger.DebugContext(ctx, "no player yet, state deferred", "video_id", state.VideoId)
		return
	}
	a.mu.Unlock()

	a.apply(ctx, p, state)
}

type action func()

func (a *Agent) apply(ctx context.Context, p Player, state domain.PlaybackState) {
	var (
		expected []domain.PlayerState
		actions  []action
	)

	status := p.Status()
	if p.VideoID() != state.VideoId {
		expected = append(expected, domain.PlayerStateUnstarted)
		actions = append(actions, func() { p.Load(state.VideoId) })
		status = domain.PlayerStateUnstarted
	}

	switch state.PlayerState {
	case domain.PlayerStatePlaying:
		actions = append(actions, func() { p.Seek(state.CurrentTime) })
		if status != domain.PlayerStatePlaying {
			expected = append(expected, domain.PlayerStatePlaying)
			actions = append(actions, p.Play)
		}
	case domain.PlayerStatePaused:
		actions = append(actions, func() { p.Seek(state.CurrentTime) })
		if status != domain.PlayerStatePaused {
			expected = append(expected, domain.PlayerStatePaused)
			actions = append(actions, p.Pause)
		}
	}

	a.mu.Lock()
	a.expected = append(a.expected, expected...)
	a.mu.Unlock()

	for _, act := range actions {
		act()
	}

	a.logger.DebugContext(ctx, "remote state applied",
		"video_id", state.VideoId,
		"player_state", state.PlayerState,
		"current_time", state.CurrentTime,
	)
}

// ChangeVideoURL loads the video behind a watch URL locally and announces it
// to the room as playing from the start.
func (a *Agent) ChangeVideoURL(ctx context.Context, rawURL string) error {
	videoId, ok := ytvideoid.Extract(rawURL)
	if !ok {
		return ErrInvalidVideoURL
	}

	a.mu.Lock()
	roomId, p := a.roomId, a.player
	if roomId == "" {
		a.mu.Unlock()
		return ErrNotJoined
	}
	if p == nil {
		a.mu.Unlock()
		return ErrNoPlayer
	}
	a.expected = append(a.expected, domain.PlayerStateUnstarted, domain.PlayerStatePlaying)
	a.mu.Unlock()

	p.Load(videoId)
	p.Play()

	return a.emitState(ctx, roomId, domain.PlaybackState{
		VideoId:     videoId,
		PlayerState: domain.PlayerStatePlaying,
		CurrentTime: 0,
	})
}

// HandlePlayerStateChange is the player's status callback.
func (a *Agent) HandlePlayerStateChange(ctx context.Context, status domain.PlayerState) error {
	a.mu.Lock()
	suppressed := a.consumeExpected(status)
	roomId, p := a.roomId, a.player
	a.mu.Unlock()

	if suppressed {
		a.logger.DebugContext(ctx, "own player change suppressed", "player_state", status)
		return nil
	}
	if roomId == "" {
		return ErrNotJoined
	}
	if p == nil {
		return ErrNoPlayer
	}

	return a.emitState(ctx, roomId, domain.PlaybackState{
		VideoId:     p.VideoID(),
		PlayerState: status,
		CurrentTime: p.CurrentTime(),
	})
}

// consumeExpected reports whether status was caused by the agent itself.
// Queued transitional statuses may be skipped on the way to a match; any
// unexpected non-transitional status clears the queue.
func (a *Agent) consumeExpected(status domain.PlayerState) bool {
	for i, exp := range a.expected {
		if exp == status {
			a.expected = a.expected[i+1:]
			return true
		}
		if !exp.IsTransitional() {
			break
		}
	}

	if len(a.expected) > 0 && status.IsTransitional() {
		return true
	}

	a.expected = nil
	return false
}

func (a *Agent) emitState(ctx context.Context, roomId string, state domain.PlaybackState) error {
	if err := a.emitter.Emit(protocol.EventVideoStateChange, &protocol.VideoStateChange{
		RoomId:      roomId,
		VideoId:     state.VideoId,
		PlayerState: state.PlayerState,
		CurrentTime: state.CurrentTime,
	}); err != nil {
		return fmt.Errorf("failed to emit video state: %w", err)
	}

	a.logger.DebugContext(ctx, "local state emitted", "video_id", state.VideoId, "player_state", state.PlayerState)
	return nil
}
