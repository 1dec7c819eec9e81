package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/repository/room"
)

// checkIfHost resolves the room and verifies that senderId is its host.
func (s *service) checkIfHost(ctx context.Context, roomId, senderId string) (room.Room, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return room.Room{}, ErrRoomNotFound
		}

		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	if rm.HostId != senderId {
		return room.Room{}, ErrUnauthorized
	}

	return rm, nil
}

// checkIfMember resolves the room and verifies that senderId has joined it.
func (s *service) checkIfMember(ctx context.Context, roomId, senderId string) (room.Room, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return room.Room{}, ErrRoomNotFound
		}

		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	isMember, err := s.roomRepo.IsMember(ctx, roomId, senderId)
	if err != nil {
		return room.Room{}, fmt.Errorf("failed to check if member exists: %w", err)
	}
	if !isMember {
		return room.Room{}, ErrUnauthorized
	}

	return rm, nil
}

// getConnsByRoomId returns the connections of every online member of the
// room. Members without a live connection are skipped.
func (s *service) getConnsByRoomId(ctx context.Context, roomId string) ([]*websocket.Conn, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	conns := make([]*websocket.Conn, 0, len(memberIds))
	for _, userId := range memberIds {
		conn, err := s.connRepo.GetConn(roomId, userId)
		if err != nil {
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

// broadcast writes msg to every online member of the room. Send failures
// are logged and skipped so one dead connection cannot block the others.
func (s *service) broadcast(ctx context.Context, roomId string, msg *Output) {
	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get conns for broadcast", "room_id", roomId, "error", err)
		return
	}

	for _, conn := range conns {
		if err := s.sender.Send(conn, msg); err != nil {
			s.logger.InfoContext(ctx, "failed to send to conn", "room_id", roomId, "error", err)
		}
	}
}

func (s *service) broadcastPlayback(ctx context.Context, roomId string, playback *Playback) {
	s.broadcast(ctx, roomId, &Output{
		Type:    "PLAYBACK_UPDATED",
		Payload: map[string]any{"playback": playback},
	})
}

func (s *service) nowMilli() int64 {
	return s.clock.Now().UnixMilli()
}

// stamp returns now, floored at prev so the host timestamp never goes
// backwards even if the wall clock does.
func (s *service) stamp(prev int64) int64 {
	now := s.nowMilli()
	if now < prev {
		return prev
	}

	return now
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}
