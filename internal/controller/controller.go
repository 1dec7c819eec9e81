package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/validator"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	ResolveInvite(ctx context.Context, inviteCode string) (string, error)
	TimeToStart(ctx context.Context, roomId string) (time.Duration, bool, error)

	SelectContent(context.Context, *room.SelectContentParams) error
	TransitionToLive(context.Context, *room.TransitionToLiveParams) error
	EndRoom(context.Context, *room.EndRoomParams) error

	SetPlaying(context.Context, *room.SetPlayingParams) (room.Playback, error)
	Seek(context.Context, *room.SeekParams) (room.Playback, error)

	AddContent(context.Context, *room.AddContentParams) (room.AddContentResponse, error)
	VoteContent(context.Context, *room.VoteContentParams) (room.VoteContentResponse, error)
	SendMessage(context.Context, *room.SendMessageParams) (room.SendMessageResponse, error)
	GetMessages(ctx context.Context, roomId string) ([]room.Message, error)
	AddExpense(context.Context, *room.AddExpenseParams) (room.AddExpenseResponse, error)
	GetExpenses(ctx context.Context, roomId string) ([]room.Expense, error)
	Balances(ctx context.Context, roomId string) (room.BalancesResponse, error)

	ConnectMember(context.Context, *room.ConnectMemberParams) error
	DisconnectMember(ctx context.Context, conn *websocket.Conn) (room.DisconnectMemberResponse, error)
	ParseAuthToken(tokenString string) (*room.Claims, error)
}

// iSender is the single writer for a connection. Every frame, broadcasts
// and error frames alike, must go through it: the heartbeat runner writes
// to the same connections from its own goroutine.
type iSender interface {
	Send(conn *websocket.Conn, msg any) error
}

type controller struct {
	roomService iRoomService
	sender      iSender
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
}

func NewController(roomService iRoomService, sender iSender, logger *slog.Logger) *controller {
	return &controller{
		roomService: roomService,
		sender:      sender,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
}
