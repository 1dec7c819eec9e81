package room

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/watchparty/server/internal/repository/room"
	"github.com/watchparty/server/pkg/countdown"
)

const inviteCodeLength = 8

type CreateRoomParams struct {
	Title    string
	StartAt  time.Time
	HostId   string
	Username string
}

type CreateRoomResponse struct {
	RoomId     string
	InviteCode string
	AuthToken  string
}

// CreateRoom creates a room in waiting status together with its playback
// state (paused at zero, no duration until content is selected) and an
// invite code. Under the scheduled start policy the room is armed to go
// live at StartAt.
func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	if strings.TrimSpace(params.Title) == "" || params.HostId == "" {
		return CreateRoomResponse{}, ErrInvalidInput
	}
	if !params.StartAt.After(s.clock.Now()) {
		return CreateRoomResponse{}, ErrInvalidInput
	}

	roomId := uuid.NewString()
	inviteCode := s.generator.GenerateRandomString(inviteCodeLength)
	now := s.nowMilli()

	if err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{
		Title:      params.Title,
		HostId:     params.HostId,
		StartAt:    params.StartAt.UnixMilli(),
		Status:     room.StatusWaiting,
		InviteCode: inviteCode,
		CreatedAt:  now,
		RoomId:     roomId,
	}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	if err := s.roomRepo.SetMember(ctx, &room.SetMemberParams{
		Username: params.Username,
		IsHost:   true,
		IsOnline: false,
		JoinedAt: now,
		UserId:   params.HostId,
		RoomId:   roomId,
	}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set member: %w", err)
	}

	if err := s.roomRepo.SetPlayback(ctx, &room.SetPlaybackParams{
		IsPlaying:             false,
		PositionSeconds:       0,
		DurationSeconds:       0,
		DriftThresholdSeconds: s.driftThresholdSeconds,
		HostTimestamp:         now,
		RoomId:                roomId,
	}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set playback: %w", err)
	}

	if err := s.roomRepo.SetInviteCode(ctx, inviteCode, roomId); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set invite code: %w", err)
	}

	if s.startPolicy == StartPolicyScheduled {
		s.scheduleAutoStart(roomId, params.StartAt)
	}

	authToken, err := s.generateJWT(roomId, params.HostId)
	if err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to generate auth token: %w", err)
	}

	s.logger.InfoContext(ctx, "room created", "room_id", roomId, "host_id", params.HostId)

	return CreateRoomResponse{
		RoomId:     roomId,
		InviteCode: inviteCode,
		AuthToken:  authToken,
	}, nil
}

type JoinRoomParams struct {
	RoomId   string
	UserId   string
	Username string
}

type JoinRoomResponse struct {
	Room          Room
	JoinedMember  Member
	UserRole      string
	AuthToken     string
	AlreadyJoined bool
}

// JoinRoom adds the user to the room's member set. Joining a room the user
// is already a member of is a no-op that still returns a fresh snapshot
// and token.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if params.UserId == "" {
		return JoinRoomResponse{}, ErrInvalidInput
	}

	// The limit check and the membership write must be one atomic step,
	// and the MEMBER_JOINED broadcast must stay ordered with other
	// mutations of the room.
	lock := s.roomLock(params.RoomId)
	lock.Lock()
	defer lock.Unlock()

	rm, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return JoinRoomResponse{}, ErrRoomNotFound
		}

		return JoinRoomResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	if rm.Status == room.StatusEnded {
		return JoinRoomResponse{}, ErrRoomEnded
	}

	alreadyJoined, err := s.roomRepo.IsMember(ctx, params.RoomId, params.UserId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to check if member exists: %w", err)
	}

	if !alreadyJoined {
		memberIds, err := s.roomRepo.GetMemberIds(ctx, params.RoomId)
		if err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to get member ids: %w", err)
		}
		if len(memberIds) >= s.membersLimit {
			return JoinRoomResponse{}, ErrMembersLimitReached
		}

		if err := s.roomRepo.SetMember(ctx, &room.SetMemberParams{
			Username: params.Username,
			IsHost:   false,
			IsOnline: false,
			JoinedAt: s.nowMilli(),
			UserId:   params.UserId,
			RoomId:   params.RoomId,
		}); err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to set member: %w", err)
		}
	}

	member, err := s.roomRepo.GetMember(ctx, params.RoomId, params.UserId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get member: %w", err)
	}

	snapshot, err := s.getRoomSnapshot(ctx, params.RoomId, rm)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	userRole := "member"
	if member.IsHost {
		userRole = "host"
	}

	authToken, err := s.generateJWT(params.RoomId, params.UserId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to generate auth token: %w", err)
	}

	joinedMember := Member{
		UserId:   params.UserId,
		Username: member.Username,
		IsHost:   member.IsHost,
		IsOnline: member.IsOnline,
	}

	if !alreadyJoined {
		s.broadcast(ctx, params.RoomId, &Output{
			Type: "MEMBER_JOINED",
			Payload: map[string]any{
				"member":  joinedMember,
				"members": snapshot.Members,
			},
		})
	}

	return JoinRoomResponse{
		Room:          snapshot,
		JoinedMember:  joinedMember,
		UserRole:      userRole,
		AuthToken:     authToken,
		AlreadyJoined: alreadyJoined,
	}, nil
}

// GetRoom returns a full snapshot of the room.
func (s *service) GetRoom(ctx context.Context, roomId string) (Room, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return Room{}, ErrRoomNotFound
		}

		return Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	return s.getRoomSnapshot(ctx, roomId, rm)
}

// ResolveInvite maps an invite code to its room id.
func (s *service) ResolveInvite(ctx context.Context, inviteCode string) (string, error) {
	roomId, err := s.roomRepo.GetRoomIdByInviteCode(ctx, inviteCode)
	if err != nil {
		if err == room.ErrInviteNotFound {
			return "", ErrRoomNotFound
		}

		return "", fmt.Errorf("failed to resolve invite: %w", err)
	}

	return roomId, nil
}

type SelectContentParams struct {
	ContentId string
	SenderId  string
	RoomId    string
}

// SelectContent fixes the room's content choice and copies its duration
// onto the playback state. Only the host may select, and only while the
// room is waiting.
func (s *service) SelectContent(ctx context.Context, params *SelectContentParams) error {
	lock := s.roomLock(params.RoomId)
	lock.Lock()
	defer lock.Unlock()

	rm, err := s.checkIfHost(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return err
	}

	if rm.Status == room.StatusEnded {
		return ErrRoomEnded
	}
	if rm.Status != room.StatusWaiting {
		return ErrInvalidTransition
	}

	content, err := s.roomRepo.GetContent(ctx, params.RoomId, params.ContentId)
	if err != nil {
		if err == room.ErrContentNotFound {
			return ErrInvalidInput
		}

		return fmt.Errorf("failed to get content: %w", err)
	}

	if err := s.roomRepo.UpdateRoomSelectedContent(ctx, params.RoomId, params.ContentId); err != nil {
		return fmt.Errorf("failed to update selected content: %w", err)
	}

	if err := s.roomRepo.UpdatePlaybackDuration(ctx, params.RoomId, content.DurationSeconds); err != nil {
		return fmt.Errorf("failed to update playback duration: %w", err)
	}

	s.broadcastRoomUpdated(ctx, params.RoomId)

	return nil
}

type TransitionToLiveParams struct {
	SenderId string
	RoomId   string
}

// TransitionToLive flips the room from waiting to live. Playback stays
// paused at position zero until the host explicitly starts it. Under the
// scheduled start policy a manual start is rejected until the countdown
// has reached zero.
func (s *service) TransitionToLive(ctx context.Context, params *TransitionToLiveParams) error {
	lock := s.roomLock(params.RoomId)
	lock.Lock()
	defer lock.Unlock()

	rm, err := s.checkIfHost(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return err
	}

	if rm.Status == room.StatusEnded {
		return ErrRoomEnded
	}
	if rm.Status != room.StatusWaiting {
		return ErrInvalidTransition
	}
	if rm.SelectedContentId == "" {
		return ErrNoContentSelected
	}

	if s.startPolicy == StartPolicyScheduled && !countdown.CanGoLive(time.UnixMilli(rm.StartAt), s.clock.Now()) {
		return ErrInvalidTransition
	}

	if err := s.roomRepo.UpdateRoomStatus(ctx, params.RoomId, room.StatusLive); err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}

	s.cancelAutoStart(params.RoomId)
	s.logger.InfoContext(ctx, "room live", "room_id", params.RoomId)
	s.broadcastRoomUpdated(ctx, params.RoomId)

	return nil
}

type EndRoomParams struct {
	SenderId string
	RoomId   string
}

// EndRoom moves the room to its terminal status. The playback state is
// frozen: any further mutation fails with ErrRoomEnded.
func (s *service) EndRoom(ctx context.Context, params *EndRoomParams) error {
	lock := s.roomLock(params.RoomId)
	lock.Lock()
	defer lock.Unlock()

	rm, err := s.checkIfHost(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return err
	}

	if rm.Status == room.StatusEnded {
		return ErrRoomEnded
	}

	if err := s.roomRepo.UpdateRoomStatus(ctx, params.RoomId, room.StatusEnded); err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}

	s.stopHeartbeat(params.RoomId)
	s.cancelAutoStart(params.RoomId)
	s.forgetRoomLock(params.RoomId)
	s.logger.InfoContext(ctx, "room ended", "room_id", params.RoomId)
	s.broadcastRoomUpdated(ctx, params.RoomId)

	return nil
}

// TimeToStart reports the remaining countdown for a waiting room and
// whether the scheduled start instant has been reached.
func (s *service) TimeToStart(ctx context.Context, roomId string) (time.Duration, bool, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return 0, false, ErrRoomNotFound
		}

		return 0, false, fmt.Errorf("failed to get room: %w", err)
	}

	startAt := time.UnixMilli(rm.StartAt)
	remaining := countdown.TimeToStart(startAt, s.clock.Now())

	return remaining, countdown.CanGoLive(startAt, s.clock.Now()), nil
}

func (s *service) getRoomSnapshot(ctx context.Context, roomId string, rm room.Room) (Room, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return Room{}, fmt.Errorf("failed to get member ids: %w", err)
	}

	members := make([]Member, 0, len(memberIds))
	for _, userId := range memberIds {
		member, err := s.roomRepo.GetMember(ctx, roomId, userId)
		if err != nil {
			return Room{}, fmt.Errorf("failed to get member: %w", err)
		}

		members = append(members, Member{
			UserId:   userId,
			Username: member.Username,
			IsHost:   member.IsHost,
			IsOnline: member.IsOnline,
		})
	}

	contents, err := s.getContents(ctx, roomId)
	if err != nil {
		return Room{}, err
	}

	playback, err := s.getPlayback(ctx, roomId)
	if err != nil {
		return Room{}, err
	}

	return Room{
		RoomId:            roomId,
		Title:             rm.Title,
		HostId:            rm.HostId,
		StartAt:           rm.StartAt,
		Status:            rm.Status,
		SelectedContentId: rm.SelectedContentId,
		InviteCode:        rm.InviteCode,
		Members:           members,
		Contents:          contents,
		Playback:          playback,
	}, nil
}

func (s *service) broadcastRoomUpdated(ctx context.Context, roomId string) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get room for broadcast", "room_id", roomId, "error", err)
		return
	}

	snapshot, err := s.getRoomSnapshot(ctx, roomId, rm)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get room snapshot for broadcast", "room_id", roomId, "error", err)
		return
	}

	s.broadcast(ctx, roomId, &Output{
		Type:    "ROOM_UPDATED",
		Payload: map[string]any{"room": snapshot},
	})
}
