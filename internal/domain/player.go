package domain

import "strconv"

// PlayerState mirrors the YouTube IFrame player state codes.
type PlayerState int

const (
	PlayerStateUnstarted PlayerState = -1
	PlayerStateEnded     PlayerState = 0
	PlayerStatePlaying   PlayerState = 1
	PlayerStatePaused    PlayerState = 2
	PlayerStateBuffering PlayerState = 3
)

func (s PlayerState) String() string {
	switch s {
	case PlayerStateUnstarted:
		return "UNSTARTED"
	case PlayerStateEnded:
		return "ENDED"
	case PlayerStatePlaying:
		return "PLAYING"
	case PlayerStatePaused:
		return "PAUSED"
	case PlayerStateBuffering:
		return "BUFFERING"
	default:
		return "PlayerState(" + strconv.Itoa(int(s)) + ")"
	}
}

func (s PlayerState) IsValid() bool {
	return s >= PlayerStateUnstarted && s <= PlayerStateBuffering
}

// IsTransitional reports whether the player passes through s on its way to a
// settled state.
func (s PlayerState) IsTransitional() bool {
	return s == PlayerStateUnstarted || s == PlayerStateBuffering
}

type PlaybackState struct {
	VideoId     string      `json:"videoId"`
	PlayerState PlayerState `json:"playerState"`
	CurrentTime float64     `json:"currentTime"`
}
