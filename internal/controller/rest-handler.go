package controller

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/countdown"
	"github.com/watchparty/server/pkg/rest"
)

type createRoomRequest struct {
	Title    string `json:"title" validate:"required,max=128"`
	Username string `json:"username" validate:"required,max=64"`
	StartAt  int64  `json:"start_at" validate:"required"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		c.writeError(w, r, room.ErrInvalidInput)
		return
	}
	if errs, ok := c.validate.Validate(req); !ok {
		c.writeValidationErrors(w, r, errs)
		return
	}

	hostId := uuid.NewString()
	resp, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		Title:    req.Title,
		StartAt:  time.UnixMilli(req.StartAt),
		HostId:   hostId,
		Username: req.Username,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{
		"room_id":     resp.RoomId,
		"invite_code": resp.InviteCode,
		"user_id":     hostId,
		"auth_token":  resp.AuthToken,
	})
}

type joinRoomRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	// UserId lets a returning member rejoin under their existing identity.
	UserId string `json:"user_id,omitempty" validate:"omitempty,uuid"`
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		c.writeError(w, r, room.ErrInvalidInput)
		return
	}
	if errs, ok := c.validate.Validate(req); !ok {
		c.writeValidationErrors(w, r, errs)
		return
	}

	userId := req.UserId
	if userId == "" {
		userId = uuid.NewString()
	}

	resp, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		RoomId:   chi.URLParam(r, "room-id"),
		UserId:   userId,
		Username: req.Username,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{
		"room":           resp.Room,
		"user_id":        userId,
		"user_role":      resp.UserRole,
		"auth_token":     resp.AuthToken,
		"already_joined": resp.AlreadyJoined,
	})
}

func (c controller) resolveInvite(w http.ResponseWriter, r *http.Request) {
	roomId, err := c.roomService.ResolveInvite(r.Context(), chi.URLParam(r, "invite-code"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"room_id": roomId})
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	snapshot, err := c.roomService.GetRoom(r.Context(), roomId)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	envelope := rest.Envelope{"room": snapshot}
	if snapshot.Status == "waiting" {
		remaining, canGoLive, err := c.roomService.TimeToStart(r.Context(), roomId)
		if err != nil {
			c.writeError(w, r, err)
			return
		}

		envelope["countdown"] = rest.Envelope{
			"time_to_start": countdown.Format(remaining),
			"can_go_live":   canGoLive,
		}
	}

	rest.WriteJSON(w, http.StatusOK, envelope)
}

// getMessages hydrates the retained chat history for a late joiner.
func (c controller) getMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := c.roomService.GetMessages(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"messages": messages})
}

func (c controller) getExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := c.roomService.GetExpenses(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"expenses": expenses})
}

func (c controller) getBalances(w http.ResponseWriter, r *http.Request) {
	resp, err := c.roomService.Balances(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, resp)
}
