package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/watchparty/server/internal/repository/room"
	"github.com/watchparty/server/pkg/randstr"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomEnded           = errors.New("room ended")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrNoContentSelected   = errors.New("no content selected")
	ErrInvalidInput        = errors.New("invalid input")
	ErrMembersLimitReached = errors.New("members limit reached")
	ErrContentLimitReached = errors.New("content limit reached")
	ErrRateLimited         = errors.New("rate limited")
)

type StartPolicy string

const (
	// StartPolicyManual lets the host go live at any time once content is
	// selected.
	StartPolicyManual StartPolicy = "manual"
	// StartPolicyScheduled goes live automatically when the countdown
	// reaches zero; a manual start before that is rejected.
	StartPolicyScheduled StartPolicy = "scheduled"
)

type iRoomRepo interface {
	// room
	SetRoom(context.Context, *room.SetRoomParams) error
	GetRoom(context.Context, string) (room.Room, error)
	IsRoomExists(context.Context, string) (bool, error)
	UpdateRoomStatus(ctx context.Context, roomId string, status string) error
	UpdateRoomSelectedContent(ctx context.Context, roomId string, contentId string) error
	// playback
	SetPlayback(context.Context, *room.SetPlaybackParams) error
	GetPlayback(context.Context, string) (room.Playback, error)
	UpdatePlaybackState(context.Context, *room.UpdatePlaybackStateParams) error
	UpdatePlaybackDuration(ctx context.Context, roomId string, durationSeconds float64) error
	// member
	SetMember(context.Context, *room.SetMemberParams) error
	GetMember(ctx context.Context, roomId, userId string) (room.Member, error)
	IsMember(ctx context.Context, roomId, userId string) (bool, error)
	GetMemberIds(context.Context, string) ([]string, error)
	UpdateMemberIsOnline(ctx context.Context, roomId, userId string, isOnline bool) error
	// content
	SetContent(context.Context, *room.SetContentParams) error
	GetContent(ctx context.Context, roomId, contentId string) (room.Content, error)
	GetContentIds(context.Context, string) ([]string, error)
	SetVote(context.Context, *room.SetVoteParams) error
	GetVotes(context.Context, string) (map[string]string, error)
	// chat
	AddMessage(context.Context, *room.AddMessageParams) error
	GetMessages(context.Context, string) ([]room.Message, error)
	SetLastMessageAt(ctx context.Context, roomId, userId string, at int64) error
	GetLastMessageAt(ctx context.Context, roomId, userId string) (int64, error)
	// expense
	AddExpense(context.Context, *room.AddExpenseParams) error
	GetExpenses(context.Context, string) ([]room.Expense, error)
	// invite
	SetInviteCode(ctx context.Context, inviteCode, roomId string) error
	GetRoomIdByInviteCode(ctx context.Context, inviteCode string) (string, error)
}

type iConnRepo interface {
	Add(conn *websocket.Conn, roomId, userId string) error
	RemoveByConn(conn *websocket.Conn) error
	RemoveByMember(roomId, userId string) error
	GetMember(conn *websocket.Conn) (roomId string, userId string, err error)
	GetConn(roomId, userId string) (*websocket.Conn, error)
}

// iSender writes a single message to a single connection. Injected so
// service tests can record broadcasts without live websockets.
type iSender interface {
	Send(conn *websocket.Conn, msg any) error
	Forget(conn *websocket.Conn)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	Secret                string
	MembersLimit          int
	ContentLimit          int
	MessagesLimit         int
	HeartbeatInterval     time.Duration
	DriftThresholdSeconds float64
	MessageRateLimit      time.Duration
	StartPolicy           StartPolicy
}

type service struct {
	roomRepo  iRoomRepo
	connRepo  iConnRepo
	sender    iSender
	generator iGenerator
	clock     clockwork.Clock
	logger    *slog.Logger

	secret                string
	membersLimit          int
	contentLimit          int
	messagesLimit         int
	heartbeatInterval     time.Duration
	driftThresholdSeconds float64
	messageRateLimit      time.Duration
	startPolicy           StartPolicy

	mu         sync.Mutex
	roomLocks  map[string]*sync.Mutex
	heartbeats map[string]context.CancelFunc
	autoStarts map[string]context.CancelFunc
	closed     bool
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, sender iSender, clock clockwork.Clock, logger *slog.Logger, cfg *Config) *service {
	s := service{
		roomRepo: roomRepo,
		connRepo: connRepo,
		sender:   sender,
		clock:    clock,
		logger:   logger,

		secret:                cfg.Secret,
		startPolicy:           cfg.StartPolicy,
		membersLimit:          cfg.MembersLimit,
		contentLimit:          cfg.ContentLimit,
		messagesLimit:         cfg.MessagesLimit,
		heartbeatInterval:     cfg.HeartbeatInterval,
		driftThresholdSeconds: cfg.DriftThresholdSeconds,
		messageRateLimit:      cfg.MessageRateLimit,

		roomLocks:  make(map[string]*sync.Mutex),
		heartbeats: make(map[string]context.CancelFunc),
		autoStarts: make(map[string]context.CancelFunc),
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}

// Close cancels every heartbeat runner and auto-start timer. The service
// must not be used afterwards.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for roomId, cancel := range s.heartbeats {
		cancel()
		delete(s.heartbeats, roomId)
	}
	for roomId, cancel := range s.autoStarts {
		cancel()
		delete(s.autoStarts, roomId)
	}
}

// roomLock returns the mutex serializing state mutation and broadcast for
// one room. Mutations in different rooms never contend.
func (s *service) roomLock(roomId string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.roomLocks[roomId]
	if !ok {
		lock = &sync.Mutex{}
		s.roomLocks[roomId] = lock
	}

	return lock
}

// forgetRoomLock drops the room's mutex entry once the room is ended, so
// the map does not grow for the process lifetime. A racing mutation that
// still holds the old mutex is harmless: it observes the ended status and
// refuses to write.
func (s *service) forgetRoomLock(roomId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.roomLocks, roomId)
}
