package redis

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/repository/room"
)

func (r repo) getPlaybackKey(roomId string) string {
	return "room:" + roomId + ":playback"
}

func (r repo) SetPlayback(ctx context.Context, params *room.SetPlaybackParams) error {
	pipe := r.rc.TxPipeline()

	playback := room.Playback{
		IsPlaying:             params.IsPlaying,
		PositionSeconds:       params.PositionSeconds,
		DurationSeconds:       params.DurationSeconds,
		DriftThresholdSeconds: params.DriftThresholdSeconds,
		HostTimestamp:         params.HostTimestamp,
	}
	playbackKey := r.getPlaybackKey(params.RoomId)
	pipe.HSet(ctx, playbackKey, playback)
	pipe.Expire(ctx, playbackKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set playback: %w", err)
	}

	return nil
}

func (r repo) GetPlayback(ctx context.Context, roomId string) (room.Playback, error) {
	playbackKey := r.getPlaybackKey(roomId)
	cmd := r.rc.Exists(ctx, playbackKey)
	if err := cmd.Err(); err != nil {
		return room.Playback{}, fmt.Errorf("failed to check if playback exists: %w", err)
	}

	if cmd.Val() == 0 {
		return room.Playback{}, room.ErrPlaybackNotFound
	}

	var playback room.Playback
	if err := r.rc.HGetAll(ctx, playbackKey).Scan(&playback); err != nil {
		return room.Playback{}, fmt.Errorf("failed to get playback: %w", err)
	}

	r.rc.Expire(ctx, playbackKey, r.expireDuration)

	return playback, nil
}

func (r repo) UpdatePlaybackState(ctx context.Context, params *room.UpdatePlaybackStateParams) error {
	playbackKey := r.getPlaybackKey(params.RoomId)
	cmd := r.rc.Exists(ctx, playbackKey)
	if err := cmd.Err(); err != nil {
		return err
	}

	if cmd.Val() == 0 {
		return room.ErrPlaybackNotFound
	}

	if err := r.rc.HSet(ctx, playbackKey,
		"is_playing", params.IsPlaying,
		"position_seconds", params.PositionSeconds,
		"host_timestamp", params.HostTimestamp,
	).Err(); err != nil {
		return err
	}

	r.rc.Expire(ctx, playbackKey, r.expireDuration)

	return nil
}

func (r repo) UpdatePlaybackDuration(ctx context.Context, roomId string, durationSeconds float64) error {
	playbackKey := r.getPlaybackKey(roomId)
	cmd := r.rc.Exists(ctx, playbackKey)
	if err := cmd.Err(); err != nil {
		return err
	}

	if cmd.Val() == 0 {
		return room.ErrPlaybackNotFound
	}

	if err := r.rc.HSet(ctx, playbackKey, "duration_seconds", durationSeconds).Err(); err != nil {
		return err
	}

	r.rc.Expire(ctx, playbackKey, r.expireDuration)

	return nil
}
