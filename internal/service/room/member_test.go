package room

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectMember(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	connectTestMember(t, s, roomId, hostId)

	members, err := s.GetMembers(ctx, roomId)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.True(t, members[0].IsOnline)
}

func TestConnectMemberNotJoined(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, _ := createTestRoom(t, s, clock)

	err := s.ConnectMember(ctx, &ConnectMemberParams{
		Conn:   &websocket.Conn{},
		UserId: uuid.NewString(),
		RoomId: roomId,
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDisconnectMember(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, sender := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	connectTestMember(t, s, roomId, hostId)
	userId := joinTestMember(t, s, roomId, "bob")
	conn := connectTestMember(t, s, roomId, userId)

	resp, err := s.DisconnectMember(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, userId, resp.UserId)
	assert.Equal(t, roomId, resp.RoomId)

	members, err := s.GetMembers(ctx, roomId)
	require.NoError(t, err)
	for _, member := range members {
		if member.UserId == userId {
			assert.False(t, member.IsOnline)
		}
	}

	assert.Len(t, sender.byType("MEMBER_DISCONNECTED"), 1)
}

// The host's disconnect stops the heartbeat runner so playback freezes at
// the last broadcast snapshot. There is no host failover.
func TestHostDisconnectFreezesPlayback(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	hostConn := connectTestMember(t, s, roomId, hostId)
	makeRoomLive(t, s, roomId, hostId, 5400)

	_, err := s.SetPlaying(ctx, &SetPlayingParams{
		IsPlaying: true,
		SenderId:  hostId,
		RoomId:    roomId,
	})
	require.NoError(t, err)

	_, err = s.DisconnectMember(ctx, hostConn)
	require.NoError(t, err)

	s.mu.Lock()
	_, running := s.heartbeats[roomId]
	s.mu.Unlock()
	assert.False(t, running)

	// the state itself is untouched, only the authoritative clock stops
	playback, err := s.GetPlayback(ctx, roomId)
	require.NoError(t, err)
	assert.True(t, playback.IsPlaying)
}

// A host reconnecting to a live room with playback still flagged as
// playing gets the heartbeat runner back without an explicit play.
func TestHostReconnectResumesHeartbeat(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _ := newTestService(t, clock, testConfig())
	ctx := context.Background()

	roomId, hostId := createTestRoom(t, s, clock)
	hostConn := connectTestMember(t, s, roomId, hostId)
	makeRoomLive(t, s, roomId, hostId, 5400)

	_, err := s.SetPlaying(ctx, &SetPlayingParams{
		IsPlaying: true,
		SenderId:  hostId,
		RoomId:    roomId,
	})
	require.NoError(t, err)

	_, err = s.DisconnectMember(ctx, hostConn)
	require.NoError(t, err)

	s.mu.Lock()
	_, running := s.heartbeats[roomId]
	s.mu.Unlock()
	require.False(t, running)

	connectTestMember(t, s, roomId, hostId)

	s.mu.Lock()
	_, running = s.heartbeats[roomId]
	s.mu.Unlock()
	assert.True(t, running)

	// the resumed runner advances the position again
	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool {
		playback, err := s.GetPlayback(ctx, roomId)
		return err == nil && playback.PositionSeconds > 0
	}, time.Second, 10*time.Millisecond)
}
