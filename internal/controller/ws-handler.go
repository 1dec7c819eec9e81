package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/ctxlogger"
	"github.com/watchparty/server/pkg/wsrouter"
)

// joinRoomWS authenticates the member token, upgrades the connection and
// serves room inputs until the client disconnects.
func (c controller) joinRoomWS(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	claims, err := c.roomService.ParseAuthToken(r.URL.Query().Get("token"))
	if err != nil || claims.RoomId != roomId {
		c.writeError(w, r, room.ErrUnauthorized)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}

	ctx := contextWithIdentity(r.Context(), claims.RoomId, claims.UserId)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", claims.RoomId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("user_id", claims.UserId))

	if err := c.roomService.ConnectMember(ctx, &room.ConnectMemberParams{
		Conn:   conn,
		UserId: claims.UserId,
		RoomId: claims.RoomId,
	}); err != nil {
		c.writeWSError(ctx, conn, err)
		conn.Close()
		return
	}

	router := c.wsRouter()
	if err := router.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(ctx, "connection closed", "error", err)
	}

	if _, err := c.roomService.DisconnectMember(ctx, conn); err != nil {
		c.logger.ErrorContext(ctx, "failed to disconnect member", "error", err)
	}
	conn.Close()
}

func (c controller) wsRouter() *wsrouter.WSRouter {
	router := wsrouter.New(c.writeWSError)

	router.Handle("PLAY", c.handlePlay)
	router.Handle("PAUSE", c.handlePause)
	router.Handle("SEEK", c.handleSeek)
	router.Handle("ADD_CONTENT", c.handleAddContent)
	router.Handle("VOTE_CONTENT", c.handleVoteContent)
	router.Handle("SELECT_CONTENT", c.handleSelectContent)
	router.Handle("GO_LIVE", c.handleGoLive)
	router.Handle("END_ROOM", c.handleEndRoom)
	router.Handle("SEND_MESSAGE", c.handleSendMessage)
	router.Handle("ADD_EXPENSE", c.handleAddExpense)
	router.Handle("ALIVE", c.handleAlive)

	return router
}

func (c controller) handlePlay(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	_, err := c.roomService.SetPlaying(ctx, &room.SetPlayingParams{
		IsPlaying: true,
		SenderId:  getUserIdFromCtx(ctx),
		RoomId:    getRoomIdFromCtx(ctx),
	})
	return err
}

func (c controller) handlePause(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	_, err := c.roomService.SetPlaying(ctx, &room.SetPlayingParams{
		IsPlaying: false,
		SenderId:  getUserIdFromCtx(ctx),
		RoomId:    getRoomIdFromCtx(ctx),
	})
	return err
}

func (c controller) handleSeek(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input struct {
		TargetSeconds float64 `json:"target_seconds"`
	}
	if err := json.Unmarshal(payload, &input); err != nil {
		return room.ErrInvalidInput
	}

	_, err := c.roomService.Seek(ctx, &room.SeekParams{
		TargetSeconds: input.TargetSeconds,
		SenderId:      getUserIdFromCtx(ctx),
		RoomId:        getRoomIdFromCtx(ctx),
	})
	return err
}

func (c controller) handleAddContent(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input struct {
		Title           string  `json:"title"`
		Kind            string  `json:"kind"`
		DurationSeconds float64 `json:"duration_seconds"`
	}
	if err := json.Unmarshal(payload, &input); err != nil {
		return room.ErrInvalidInput
	}

	_, err := c.roomService.AddContent(ctx, &room.AddContentParams{
		Title:           input.Title,
		Kind:            input.Kind,
		DurationSeconds: input.DurationSeconds,
		SenderId:        getUserIdFromCtx(ctx),
		RoomId:          getRoomIdFromCtx(ctx),
	})
	return err
}

func (c controller) handleVoteContent(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input struct {
		ContentId string `json:"content_id"`
	}
	if err := json.Unmarshal(payload, &input); err != nil {
		return room.ErrInvalidInput
	}

	_, err := c.roomService.VoteContent(ctx, &room.VoteContentParams{
		ContentId: input.ContentId,
		SenderId:  getUserIdFromCtx(ctx),
		RoomId:    getRoomIdFromCtx(ctx),
	})
	return err
}

func (c controller) handleSelectContent(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input struct {
		ContentId string `json:"content_id"`
	}
	if err := json.Unmarshal(payload, &input); err != nil {
		return room.ErrInvalidInput
	}

	return c.roomService.SelectContent(ctx, &room.SelectContentParams{
		ContentId: input.ContentId,
		SenderId:  getUserIdFromCtx(ctx),
		RoomId:    getRoomIdFromCtx(ctx),
	})
}

func (c controller) handleGoLive(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	return c.roomService.TransitionToLive(ctx, &room.TransitionToLiveParams{
		SenderId: getUserIdFromCtx(ctx),
		RoomId:   getRoomIdFromCtx(ctx),
	})
}

func (c controller) handleEndRoom(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	return c.roomService.EndRoom(ctx, &room.EndRoomParams{
		SenderId: getUserIdFromCtx(ctx),
		RoomId:   getRoomIdFromCtx(ctx),
	})
}

func (c controller) handleSendMessage(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input struct {
		Text string `json:"text"`
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(payload, &input); err != nil {
		return room.ErrInvalidInput
	}

	_, err := c.roomService.SendMessage(ctx, &room.SendMessageParams{
		Text:     input.Text,
		Kind:     input.Kind,
		SenderId: getUserIdFromCtx(ctx),
		RoomId:   getRoomIdFromCtx(ctx),
	})
	return err
}

func (c controller) handleAddExpense(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input struct {
		Amount float64 `json:"amount"`
		Note   string  `json:"note"`
		Weight int     `json:"weight"`
	}
	if err := json.Unmarshal(payload, &input); err != nil {
		return room.ErrInvalidInput
	}
	if input.Weight == 0 {
		input.Weight = 1
	}

	_, err := c.roomService.AddExpense(ctx, &room.AddExpenseParams{
		Amount:   input.Amount,
		Note:     input.Note,
		Weight:   input.Weight,
		SenderId: getUserIdFromCtx(ctx),
		RoomId:   getRoomIdFromCtx(ctx),
	})
	return err
}

// handleAlive is a client keepalive, nothing to do.
func (c controller) handleAlive(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	return nil
}
