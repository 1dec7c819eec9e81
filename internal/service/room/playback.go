package room

import (
	"context"
	"fmt"
	"math"

	"github.com/watchparty/server/internal/repository/room"
)

type SetPlayingParams struct {
	IsPlaying bool
	SenderId  string
	RoomId    string
}

// SetPlaying flips the play/pause flag and stamps the host timestamp. The
// position is deliberately left untouched: it advances only through
// extrapolation on clients and through heartbeat writes here.
func (s *service) SetPlaying(ctx context.Context, params *SetPlayingParams) (Playback, error) {
	lock := s.roomLock(params.RoomId)
	lock.Lock()
	defer lock.Unlock()

	playback, err := s.checkPlaybackMutable(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return Playback{}, err
	}

	hostTimestamp := s.stamp(playback.HostTimestamp)
	if err := s.roomRepo.UpdatePlaybackState(ctx, &room.UpdatePlaybackStateParams{
		IsPlaying:       params.IsPlaying,
		PositionSeconds: playback.PositionSeconds,
		HostTimestamp:   hostTimestamp,
		RoomId:          params.RoomId,
	}); err != nil {
		return Playback{}, fmt.Errorf("failed to update playback state: %w", err)
	}

	snapshot := Playback{
		RoomId:                params.RoomId,
		IsPlaying:             params.IsPlaying,
		PositionSeconds:       playback.PositionSeconds,
		DurationSeconds:       playback.DurationSeconds,
		DriftThresholdSeconds: playback.DriftThresholdSeconds,
		HostTimestamp:         hostTimestamp,
	}
	s.broadcastPlayback(ctx, params.RoomId, &snapshot)

	if params.IsPlaying {
		s.startHeartbeat(params.RoomId)
	} else {
		s.stopHeartbeat(params.RoomId)
	}

	return snapshot, nil
}

type SeekParams struct {
	TargetSeconds float64
	SenderId      string
	RoomId        string
}

// Seek sets the position to the target clamped into [0, duration] and
// stamps the host timestamp. Out of range targets are not an error: a
// host must never be able to desync the room.
func (s *service) Seek(ctx context.Context, params *SeekParams) (Playback, error) {
	if math.IsNaN(params.TargetSeconds) || math.IsInf(params.TargetSeconds, 0) {
		return Playback{}, ErrInvalidInput
	}

	lock := s.roomLock(params.RoomId)
	lock.Lock()
	defer lock.Unlock()

	playback, err := s.checkPlaybackMutable(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return Playback{}, err
	}

	position := clamp(params.TargetSeconds, 0, playback.DurationSeconds)
	hostTimestamp := s.stamp(playback.HostTimestamp)
	if err := s.roomRepo.UpdatePlaybackState(ctx, &room.UpdatePlaybackStateParams{
		IsPlaying:       playback.IsPlaying,
		PositionSeconds: position,
		HostTimestamp:   hostTimestamp,
		RoomId:          params.RoomId,
	}); err != nil {
		return Playback{}, fmt.Errorf("failed to update playback state: %w", err)
	}

	snapshot := Playback{
		RoomId:                params.RoomId,
		IsPlaying:             playback.IsPlaying,
		PositionSeconds:       position,
		DurationSeconds:       playback.DurationSeconds,
		DriftThresholdSeconds: playback.DriftThresholdSeconds,
		HostTimestamp:         hostTimestamp,
	}
	s.broadcastPlayback(ctx, params.RoomId, &snapshot)

	return snapshot, nil
}

// Heartbeat advances the position of a playing room by the wall clock time
// elapsed since the last authoritative write, bounding how stale a
// client's last snapshot can become. When the position reaches the
// duration the playing flag is dropped and one terminal snapshot is
// broadcast; later heartbeats are no-ops.
func (s *service) Heartbeat(ctx context.Context, roomId string) (Playback, error) {
	lock := s.roomLock(roomId)
	lock.Lock()
	defer lock.Unlock()

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return Playback{}, ErrRoomNotFound
		}

		return Playback{}, fmt.Errorf("failed to get room: %w", err)
	}
	if rm.Status == room.StatusEnded {
		return Playback{}, ErrRoomEnded
	}

	playback, err := s.roomRepo.GetPlayback(ctx, roomId)
	if err != nil {
		return Playback{}, fmt.Errorf("failed to get playback: %w", err)
	}

	snapshot := Playback{
		RoomId:                roomId,
		IsPlaying:             playback.IsPlaying,
		PositionSeconds:       playback.PositionSeconds,
		DurationSeconds:       playback.DurationSeconds,
		DriftThresholdSeconds: playback.DriftThresholdSeconds,
		HostTimestamp:         playback.HostTimestamp,
	}
	if !playback.IsPlaying {
		return snapshot, nil
	}

	hostTimestamp := s.stamp(playback.HostTimestamp)
	elapsed := float64(hostTimestamp-playback.HostTimestamp) / 1000
	position := clamp(playback.PositionSeconds+elapsed, 0, playback.DurationSeconds)

	// End of content: drop the playing flag exactly once.
	isPlaying := position < playback.DurationSeconds

	if err := s.roomRepo.UpdatePlaybackState(ctx, &room.UpdatePlaybackStateParams{
		IsPlaying:       isPlaying,
		PositionSeconds: position,
		HostTimestamp:   hostTimestamp,
		RoomId:          roomId,
	}); err != nil {
		return Playback{}, fmt.Errorf("failed to update playback state: %w", err)
	}

	snapshot.IsPlaying = isPlaying
	snapshot.PositionSeconds = position
	snapshot.HostTimestamp = hostTimestamp
	s.broadcastPlayback(ctx, roomId, &snapshot)

	if !isPlaying {
		s.stopHeartbeat(roomId)
	}

	return snapshot, nil
}

// GetPlayback returns the current playback snapshot.
func (s *service) GetPlayback(ctx context.Context, roomId string) (Playback, error) {
	lock := s.roomLock(roomId)
	lock.Lock()
	defer lock.Unlock()

	return s.getPlayback(ctx, roomId)
}

func (s *service) getPlayback(ctx context.Context, roomId string) (Playback, error) {
	playback, err := s.roomRepo.GetPlayback(ctx, roomId)
	if err != nil {
		if err == room.ErrPlaybackNotFound {
			return Playback{}, ErrRoomNotFound
		}

		return Playback{}, fmt.Errorf("failed to get playback: %w", err)
	}

	return Playback{
		RoomId:                roomId,
		IsPlaying:             playback.IsPlaying,
		PositionSeconds:       playback.PositionSeconds,
		DurationSeconds:       playback.DurationSeconds,
		DriftThresholdSeconds: playback.DriftThresholdSeconds,
		HostTimestamp:         playback.HostTimestamp,
	}, nil
}

// checkPlaybackMutable authorizes a host playback mutation: the sender
// must be the host, the room must be live, and the state must not be
// frozen by an ended room.
func (s *service) checkPlaybackMutable(ctx context.Context, roomId, senderId string) (room.Playback, error) {
	rm, err := s.checkIfHost(ctx, roomId, senderId)
	if err != nil {
		return room.Playback{}, err
	}

	if rm.Status == room.StatusEnded {
		return room.Playback{}, ErrRoomEnded
	}
	if rm.Status != room.StatusLive {
		return room.Playback{}, ErrInvalidTransition
	}

	playback, err := s.roomRepo.GetPlayback(ctx, roomId)
	if err != nil {
		return room.Playback{}, fmt.Errorf("failed to get playback: %w", err)
	}

	return playback, nil
}
