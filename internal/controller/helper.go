package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/rest"
	"github.com/watchparty/server/pkg/validator"
	"github.com/watchparty/server/pkg/wsrouter"
)

func (c controller) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapServiceError(err)
	if status == http.StatusInternalServerError {
		c.logger.ErrorContext(r.Context(), "internal error", "error", err)
	}

	if err := rest.WriteJSON(w, status, rest.Envelope{"error": code}); err != nil {
		c.logger.ErrorContext(r.Context(), "failed to write error response", "error", err)
	}
}

func (c controller) writeValidationErrors(w http.ResponseWriter, r *http.Request, errs []validator.ValidationError) {
	if err := rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{
		"error":  "VALIDATION_ERROR",
		"fields": errs,
	}); err != nil {
		c.logger.ErrorContext(r.Context(), "failed to write error response", "error", err)
	}
}

// writeWSError sends an ERROR frame to the connection. Handler errors never
// terminate the connection, only read failures do.
func (c controller) writeWSError(ctx context.Context, conn *websocket.Conn, err error) error {
	_, code := mapServiceError(err)
	if code == "INTERNAL_ERROR" {
		c.logger.ErrorContext(ctx, "internal error", "error", err, "message_type", wsrouter.GetMessageTypeFromCtx(ctx))
	}

	output := room.Output{
		Type: "ERROR",
		Payload: map[string]any{
			"code":         code,
			"message_type": wsrouter.GetMessageTypeFromCtx(ctx),
		},
	}
	if err := c.sender.Send(conn, &output); err != nil {
		c.logger.InfoContext(ctx, "failed to write error frame", "error", err)
	}

	return nil
}

func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return http.StatusNotFound, "ROOM_NOT_FOUND"
	case errors.Is(err, room.ErrRoomEnded):
		return http.StatusGone, "ROOM_ENDED"
	case errors.Is(err, room.ErrUnauthorized):
		return http.StatusForbidden, "UNAUTHORIZED"
	case errors.Is(err, room.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, room.ErrNoContentSelected):
		return http.StatusConflict, "NO_CONTENT_SELECTED"
	case errors.Is(err, room.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, room.ErrMembersLimitReached):
		return http.StatusConflict, "MEMBERS_LIMIT_REACHED"
	case errors.Is(err, room.ErrContentLimitReached):
		return http.StatusConflict, "CONTENT_LIMIT_REACHED"
	case errors.Is(err, room.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
