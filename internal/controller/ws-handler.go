package controller

import (
	"context"
	"fmt"

	"github.com/sharetube/watchsync/internal/domain"
	"github.com/sharetube/watchsync/internal/service/relay"
	"github.com/sharetube/watchsync/internal/wsconn"
)

type JoinRoomInput struct {
	RoomId string `json:"roomId" validate:"required,max=64"`
}

// handleJoinRoom takes the room id as a bare JSON string payload.
func (c *controller) handleJoinRoom(ctx context.Context, conn *wsconn.Conn, roomId string) error {
	input := JoinRoomInput{RoomId: roomId}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return &validationError{errors: validationErrors}
	}

	joinRoomResp, err := c.relayService.JoinRoom(ctx, &relay.JoinRoomParams{
		RoomId: input.RoomId,
		ConnId: conn.ID(),
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	c.logger.InfoContext(ctx, "joined room", "room_id", input.RoomId, "replayed", joinRoomResp.State != nil)
	return nil
}

// Pointer fields tell a missing value apart from ENDED or a zero position.
type VideoStateChangeInput struct {
	RoomId      string   `json:"roomId" validate:"required,max=64"`
	VideoId     string   `json:"videoId" validate:"required,max=64"`
	PlayerState *int     `json:"playerState" validate:"required,oneof=-1 0 1 2 3"`
	CurrentTime *float64 `json:"currentTime" validate:"required,gte=0"`
}

func (c *controller) handleVideoStateChange(ctx context.Context, conn *wsconn.Conn, input VideoStateChangeInput) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return &validationError{errors: validationErrors}
	}

	updateResp, err := c.relayService.UpdateVideoState(ctx, &relay.UpdateVideoStateParams{
		RoomId: input.RoomId,
		State: domain.PlaybackState{
			VideoId:     input.VideoId,
			PlayerState: domain.PlayerState(*input.PlayerState),
			CurrentTime: *input.CurrentTime,
		},
		SenderId: conn.ID(),
	})
	if err != nil {
		return fmt.Errorf("failed to update video state: %w", err)
	}

	c.logger.DebugContext(ctx, "video state relayed", "room_id", input.RoomId, "recipients", updateResp.Recipients)
	return nil
}
