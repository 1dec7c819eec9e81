package room

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPlaying(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, sender := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	connectTestMember(t, s, roomId, hostId)
	makeRoomLive(t, s, roomId, hostId, 5400)

	playback, err := s.SetPlaying(ctx, &SetPlayingParams{
		IsPlaying: true,
		SenderId:  hostId,
		RoomId:    roomId,
	})
	require.NoError(t, err)
	assert.True(t, playback.IsPlaying)
	assert.Zero(t, playback.PositionSeconds)
	assert.Equal(t, clock.Now().UnixMilli(), playback.HostTimestamp)
	assert.Len(t, sender.byType("PLAYBACK_UPDATED"), 1)

	// pausing leaves the position untouched
	playback, err = s.SetPlaying(ctx, &SetPlayingParams{
		IsPlaying: false,
		SenderId:  hostId,
		RoomId:    roomId,
	})
	require.NoError(t, err)
	assert.False(t, playback.IsPlaying)
	assert.Zero(t, playback.PositionSeconds)
	assert.Len(t, sender.byType("PLAYBACK_UPDATED"), 2)
}

func TestSetPlayingNotHost(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, sender := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	connectTestMember(t, s, roomId, hostId)
	makeRoomLive(t, s, roomId, hostId, 5400)
	userId := joinTestMember(t, s, roomId, "bob")

	broadcastsBefore := len(sender.byType("PLAYBACK_UPDATED"))

	_, err := s.SetPlaying(ctx, &SetPlayingParams{
		IsPlaying: true,
		SenderId:  userId,
		RoomId:    roomId,
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// the rejected input must leave the state untouched and emit nothing
	playback, err := s.GetPlayback(ctx, roomId)
	require.NoError(t, err)
	assert.False(t, playback.IsPlaying)
	assert.Len(t, sender.byType("PLAYBACK_UPDATED"), broadcastsBefore)
}

func TestSetPlayingBeforeLive(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)

	_, err := s.SetPlaying(ctx, &SetPlayingParams{
		IsPlaying: true,
		SenderId:  hostId,
		RoomId:    roomId,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSeekClamped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	makeRoomLive(t, s, roomId, hostId, 5400)

	playback, err := s.Seek(ctx, &SeekParams{
		TargetSeconds: 6000,
		SenderId:      hostId,
		RoomId:        roomId,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(5400), playback.PositionSeconds)

	playback, err = s.Seek(ctx, &SeekParams{
		TargetSeconds: -10,
		SenderId:      hostId,
		RoomId:        roomId,
	})
	require.NoError(t, err)
	assert.Zero(t, playback.PositionSeconds)
}

func TestSeekNonFinite(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	makeRoomLive(t, s, roomId, hostId, 5400)

	for _, target := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := s.Seek(ctx, &SeekParams{
			TargetSeconds: target,
			SenderId:      hostId,
			RoomId:        roomId,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestHostTimestampNonDecreasing(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	makeRoomLive(t, s, roomId, hostId, 5400)

	var prev int64
	for i := 0; i < 5; i++ {
		playback, err := s.Seek(ctx, &SeekParams{
			TargetSeconds: float64(i * 10),
			SenderId:      hostId,
			RoomId:        roomId,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, playback.HostTimestamp, prev)
		prev = playback.HostTimestamp

		clock.Advance(time.Second)
	}
}

func TestHeartbeatAdvancesPosition(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	makeRoomLive(t, s, roomId, hostId, 5400)

	_, err := s.SetPlaying(ctx, &SetPlayingParams{
		IsPlaying: true,
		SenderId:  hostId,
		RoomId:    roomId,
	})
	require.NoError(t, err)

	clock.Advance(5 * time.Second)

	playback, err := s.Heartbeat(ctx, roomId)
	require.NoError(t, err)
	assert.True(t, playback.IsPlaying)
	assert.Equal(t, float64(5), playback.PositionSeconds)
	assert.Equal(t, clock.Now().UnixMilli(), playback.HostTimestamp)
}

func TestHeartbeatPausedIsNoOp(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, sender := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	connectTestMember(t, s, roomId, hostId)
	makeRoomLive(t, s, roomId, hostId, 5400)

	broadcastsBefore := len(sender.byType("PLAYBACK_UPDATED"))
	clock.Advance(5 * time.Second)

	playback, err := s.Heartbeat(ctx, roomId)
	require.NoError(t, err)
	assert.False(t, playback.IsPlaying)
	assert.Zero(t, playback.PositionSeconds)
	assert.Len(t, sender.byType("PLAYBACK_UPDATED"), broadcastsBefore)
}

func TestHeartbeatEndOfContent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, sender := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	connectTestMember(t, s, roomId, hostId)
	makeRoomLive(t, s, roomId, hostId, 10)

	_, err := s.SetPlaying(ctx, &SetPlayingParams{
		IsPlaying: true,
		SenderId:  hostId,
		RoomId:    roomId,
	})
	require.NoError(t, err)

	broadcastsBefore := len(sender.byType("PLAYBACK_UPDATED"))
	clock.Advance(15 * time.Second)

	// the position clamps to the duration and the playing flag drops
	playback, err := s.Heartbeat(ctx, roomId)
	require.NoError(t, err)
	assert.False(t, playback.IsPlaying)
	assert.Equal(t, float64(10), playback.PositionSeconds)
	assert.Len(t, sender.byType("PLAYBACK_UPDATED"), broadcastsBefore+1)

	// later heartbeats emit nothing, the terminal snapshot is broadcast once
	clock.Advance(5 * time.Second)
	playback, err = s.Heartbeat(ctx, roomId)
	require.NoError(t, err)
	assert.False(t, playback.IsPlaying)
	assert.Equal(t, float64(10), playback.PositionSeconds)
	assert.Len(t, sender.byType("PLAYBACK_UPDATED"), broadcastsBefore+1)
}

func TestHeartbeatRunner(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	makeRoomLive(t, s, roomId, hostId, 5400)

	_, err := s.SetPlaying(ctx, &SetPlayingParams{
		IsPlaying: true,
		SenderId:  hostId,
		RoomId:    roomId,
	})
	require.NoError(t, err)

	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)

	require.Eventually(t, func() bool {
		playback, err := s.GetPlayback(ctx, roomId)
		return err == nil && playback.PositionSeconds == 5
	}, time.Second, 10*time.Millisecond)
}

func TestHeartbeatRoomEnded(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	makeRoomLive(t, s, roomId, hostId, 5400)
	require.NoError(t, s.EndRoom(ctx, &EndRoomParams{SenderId: hostId, RoomId: roomId}))

	_, err := s.Heartbeat(ctx, roomId)
	assert.ErrorIs(t, err, ErrRoomEnded)
}
