package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/watchsync/internal/domain"
	"github.com/sharetube/watchsync/internal/protocol"
	"github.com/sharetube/watchsync/internal/repository/connection"
	"github.com/sharetube/watchsync/internal/repository/room"
)

type JoinRoomParams struct {
	RoomId string
	ConnId string
}

type JoinRoomResponse struct {
	// State is nil when the room has not received any update yet.
	State *domain.PlaybackState
}

// JoinRoom subscribes the connection to the room and replays the cached state
// to that connection only.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	if err := s.connRepo.Join(params.ConnId, params.RoomId); err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return JoinRoomResponse{}, ErrConnNotFound
		}
		return JoinRoomResponse{}, fmt.Errorf("failed to join room: %w", err)
	}

	state, err := s.roomRepo.GetState(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrStateNotFound) {
			return JoinRoomResponse{}, nil
		}
		return JoinRoomResponse{}, fmt.Errorf("failed to get state: %w", err)
	}

	conn, err := s.connRepo.GetConn(params.ConnId)
	if err != nil {
		return JoinRoomResponse{}, ErrConnNotFound
	}

	playbackState := state.PlaybackState()
	data, err := protocol.Encode(protocol.EventVideoState, &playbackState)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to encode state: %w", err)
	}

	s.send(ctx, conn, data)

	return JoinRoomResponse{State: &playbackState}, nil
}

type UpdateVideoStateParams struct {
	RoomId   string
	State    domain.PlaybackState
	SenderId string
}

type UpdateVideoStateResponse struct {
	Recipients int
}

// UpdateVideoState stores the state for the room and broadcasts it to every
// member except the sender. The sender does not have to be a member.
func (s *service) UpdateVideoState(ctx context.Context, params *UpdateVideoStateParams) (UpdateVideoStateResponse, error) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	if err := s.roomRepo.SetState(ctx, &room.SetStateParams{
		RoomId:    params.RoomId,
		State:     params.State,
		UpdatedAt: s.now(),
	}); err != nil {
		return UpdateVideoStateResponse{}, fmt.Errorf("failed to set state: %w", err)
	}

	data, err := protocol.Encode(protocol.EventVideoState, &params.State)
	if err != nil {
		return UpdateVideoStateResponse{}, fmt.Errorf("failed to encode state: %w", err)
	}

	conns := s.connRepo.GetRoomConns(params.RoomId, params.SenderId)
	for _, conn := range conns {
		s.send(ctx, conn, data)
	}

	return UpdateVideoStateResponse{Recipients: len(conns)}, nil
}

// send never blocks; a connection that cannot accept the frame is closed.
func (s *service) send(ctx context.Context, conn connection.Conn, data []byte) {
	if err := conn.Send(data); err != nil {
		s.logger.WarnContext(ctx, "failed to send, closing connection", "conn_id", conn.ID(), "error", err)
		conn.Close()
	}
}
