package room

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/watchparty/server/internal/repository/connection/inmemory"
	redisrepo "github.com/watchparty/server/internal/repository/room/redis"
)

// recordingSender captures every message the service would write to a
// connection, one entry per (conn, message) pair.
type recordingSender struct {
	mu      sync.Mutex
	outputs []Output
}

func (r *recordingSender) Send(conn *websocket.Conn, msg any) error {
	output, ok := msg.(*Output)
	if !ok {
		return fmt.Errorf("unexpected message type %T", msg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.outputs = append(r.outputs, *output)

	return nil
}

func (r *recordingSender) Forget(conn *websocket.Conn) {}

func (r *recordingSender) byType(messageType string) []Output {
	r.mu.Lock()
	defer r.mu.Unlock()

	outputs := make([]Output, 0)
	for _, output := range r.outputs {
		if output.Type == messageType {
			outputs = append(outputs, output)
		}
	}

	return outputs
}

func testConfig() *Config {
	return &Config{
		Secret:                "test-secret",
		MembersLimit:          9,
		ContentLimit:          25,
		MessagesLimit:         200,
		HeartbeatInterval:     5 * time.Second,
		DriftThresholdSeconds: 2,
		MessageRateLimit:      2 * time.Second,
		StartPolicy:           StartPolicyManual,
	}
}

func newTestService(t *testing.T, clock clockwork.Clock, cfg *Config) (*service, *recordingSender) {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	sender := &recordingSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewService(redisrepo.NewRepo(rc, time.Hour), inmemory.NewRepo(), sender, clock, logger, cfg)
	t.Cleanup(s.Close)

	return s, sender
}

func createTestRoom(t *testing.T, s *service, clock clockwork.Clock) (string, string) {
	t.Helper()

	hostId := uuid.NewString()
	resp, err := s.CreateRoom(context.Background(), &CreateRoomParams{
		Title:    "movie night",
		StartAt:  clock.Now().Add(time.Hour),
		HostId:   hostId,
		Username: "alice",
	})
	require.NoError(t, err)

	return resp.RoomId, hostId
}

func joinTestMember(t *testing.T, s *service, roomId, username string) string {
	t.Helper()

	userId := uuid.NewString()
	_, err := s.JoinRoom(context.Background(), &JoinRoomParams{
		RoomId:   roomId,
		UserId:   userId,
		Username: username,
	})
	require.NoError(t, err)

	return userId
}

func addTestContent(t *testing.T, s *service, roomId, senderId string, durationSeconds float64) string {
	t.Helper()

	resp, err := s.AddContent(context.Background(), &AddContentParams{
		Title:           "some movie",
		Kind:            "movie",
		DurationSeconds: durationSeconds,
		SenderId:        senderId,
		RoomId:          roomId,
	})
	require.NoError(t, err)

	return resp.AddedContent.ContentId
}

// makeRoomLive adds content, selects it and transitions the room to live.
func makeRoomLive(t *testing.T, s *service, roomId, hostId string, durationSeconds float64) string {
	t.Helper()

	contentId := addTestContent(t, s, roomId, hostId, durationSeconds)
	require.NoError(t, s.SelectContent(context.Background(), &SelectContentParams{
		ContentId: contentId,
		SenderId:  hostId,
		RoomId:    roomId,
	}))
	require.NoError(t, s.TransitionToLive(context.Background(), &TransitionToLiveParams{
		SenderId: hostId,
		RoomId:   roomId,
	}))

	return contentId
}

func connectTestMember(t *testing.T, s *service, roomId, userId string) *websocket.Conn {
	t.Helper()

	conn := &websocket.Conn{}
	require.NoError(t, s.ConnectMember(context.Background(), &ConnectMemberParams{
		Conn:   conn,
		UserId: userId,
		RoomId: roomId,
	}))

	return conn
}
