package room

import (
	"time"

	"github.com/sharetube/watchsync/internal/domain"
)

type State struct {
	VideoId     string  `redis:"video_id"`
	PlayerState int     `redis:"player_state"`
	CurrentTime float64 `redis:"current_time"`
	UpdatedAt   int64   `redis:"updated_at"`
}

func (s State) PlaybackState() domain.PlaybackState {
	return domain.PlaybackState{
		VideoId:     s.VideoId,
		PlayerState: domain.PlayerState(s.PlayerState),
		CurrentTime: s.CurrentTime,
	}
}

type SetStateParams struct {
	RoomId    string
	State     domain.PlaybackState
	UpdatedAt time.Time
}
