package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/repository/room"
)

type ConnectMemberParams struct {
	Conn   *websocket.Conn
	UserId string
	RoomId string
}

// ConnectMember binds a websocket connection to a joined member and marks
// them online. A reconnecting host resumes the authoritative clock when
// playback was left running by their disconnect.
func (s *service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	rm, err := s.checkIfMember(ctx, params.RoomId, params.UserId)
	if err != nil {
		return err
	}

	if err := s.connRepo.Add(params.Conn, params.RoomId, params.UserId); err != nil {
		return fmt.Errorf("failed to add connection: %w", err)
	}

	if err := s.roomRepo.UpdateMemberIsOnline(ctx, params.RoomId, params.UserId, true); err != nil {
		return fmt.Errorf("failed to update member is online: %w", err)
	}

	if rm.HostId == params.UserId && rm.Status == room.StatusLive {
		playback, err := s.roomRepo.GetPlayback(ctx, params.RoomId)
		if err != nil {
			return fmt.Errorf("failed to get playback: %w", err)
		}
		if playback.IsPlaying {
			s.startHeartbeat(params.RoomId)
		}
	}

	return nil
}

type DisconnectMemberResponse struct {
	UserId string
	RoomId string
}

// DisconnectMember drops the connection binding and marks the member
// offline. When the departing member is the room's host the heartbeat
// runner is stopped and playback freezes at the last broadcast snapshot
// for everyone. There is no host failover.
func (s *service) DisconnectMember(ctx context.Context, conn *websocket.Conn) (DisconnectMemberResponse, error) {
	roomId, userId, err := s.connRepo.GetMember(conn)
	if err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to get member by conn: %w", err)
	}

	if err := s.connRepo.RemoveByConn(conn); err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to remove connection: %w", err)
	}

	s.sender.Forget(conn)

	if err := s.roomRepo.UpdateMemberIsOnline(ctx, roomId, userId, false); err != nil {
		s.logger.InfoContext(ctx, "failed to update member is online", "room_id", roomId, "user_id", userId, "error", err)
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err == nil && rm.HostId == userId {
		s.stopHeartbeat(roomId)
		s.logger.InfoContext(ctx, "host disconnected, playback frozen", "room_id", roomId)
	}

	s.broadcast(ctx, roomId, &Output{
		Type: "MEMBER_DISCONNECTED",
		Payload: map[string]any{
			"disconnected_user_id": userId,
		},
	})

	return DisconnectMemberResponse{
		UserId: userId,
		RoomId: roomId,
	}, nil
}

// GetMembers lists the room's members in join order.
func (s *service) GetMembers(ctx context.Context, roomId string) ([]Member, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	members := make([]Member, 0, len(memberIds))
	for _, userId := range memberIds {
		member, err := s.roomRepo.GetMember(ctx, roomId, userId)
		if err != nil {
			if err == room.ErrMemberNotFound {
				continue
			}

			return nil, fmt.Errorf("failed to get member: %w", err)
		}

		members = append(members, Member{
			UserId:   userId,
			Username: member.Username,
			IsHost:   member.IsHost,
			IsOnline: member.IsOnline,
		})
	}

	return members, nil
}
