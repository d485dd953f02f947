package protocol

import (
	"encoding/json"

	"github.com/sharetube/watchsync/internal/domain"
)

const (
	EventJoinRoom         = "join-room"
	EventVideoStateChange = "video-state-change"
	EventVideoState       = "video-state"
	EventError            = "error"
)

// Message is the envelope of every websocket frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type VideoStateChange struct {
	RoomId      string             `json:"roomId"`
	VideoId     string             `json:"videoId"`
	PlayerState domain.PlayerState `json:"playerState"`
	CurrentTime float64            `json:"currentTime"`
}

func (v VideoStateChange) PlaybackState() domain.PlaybackState {
	return domain.PlaybackState{
		VideoId:     v.VideoId,
		PlayerState: v.PlayerState,
		CurrentTime: v.CurrentTime,
	}
}

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Error struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func Encode(eventType string, payload any) ([]byte, error) {
	return json.Marshal(&Output{
		Type:    eventType,
		Payload: payload,
	})
}
