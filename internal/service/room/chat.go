package room

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/watchparty/server/internal/repository/room"
)

const maxMessageLength = 500

var messageKinds = map[string]bool{
	"text":  true,
	"emoji": true,
}

type SendMessageParams struct {
	Text     string
	Kind     string
	SenderId string
	RoomId   string
}

type SendMessageResponse struct {
	Message Message
}

// SendMessage appends a chat message to the room history and broadcasts
// it. Sends are rate limited per member.
func (s *service) SendMessage(ctx context.Context, params *SendMessageParams) (SendMessageResponse, error) {
	text := strings.TrimSpace(params.Text)
	if text == "" || len(text) > maxMessageLength || !messageKinds[params.Kind] {
		return SendMessageResponse{}, ErrInvalidInput
	}

	rm, err := s.checkIfMember(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return SendMessageResponse{}, err
	}
	if rm.Status == room.StatusEnded {
		return SendMessageResponse{}, ErrRoomEnded
	}

	lastAt, err := s.roomRepo.GetLastMessageAt(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return SendMessageResponse{}, fmt.Errorf("failed to get last message at: %w", err)
	}

	now := s.nowMilli()
	if lastAt > 0 && now-lastAt < s.messageRateLimit.Milliseconds() {
		return SendMessageResponse{}, ErrRateLimited
	}

	message := room.Message{
		Id:        uuid.NewString(),
		UserId:    params.SenderId,
		Text:      text,
		Kind:      params.Kind,
		CreatedAt: now,
	}
	if err := s.roomRepo.AddMessage(ctx, &room.AddMessageParams{
		Message: message,
		Limit:   int64(s.messagesLimit),
		RoomId:  params.RoomId,
	}); err != nil {
		return SendMessageResponse{}, fmt.Errorf("failed to add message: %w", err)
	}

	if err := s.roomRepo.SetLastMessageAt(ctx, params.RoomId, params.SenderId, now); err != nil {
		return SendMessageResponse{}, fmt.Errorf("failed to set last message at: %w", err)
	}

	sent := Message{
		Id:        message.Id,
		UserId:    message.UserId,
		Text:      message.Text,
		Kind:      message.Kind,
		CreatedAt: message.CreatedAt,
	}

	s.broadcast(ctx, params.RoomId, &Output{
		Type: "MESSAGE_SENT",
		Payload: map[string]any{
			"message": sent,
		},
	})

	return SendMessageResponse{Message: sent}, nil
}

// GetMessages returns the retained chat history, oldest first.
func (s *service) GetMessages(ctx context.Context, roomId string) ([]Message, error) {
	if _, err := s.roomRepo.GetRoom(ctx, roomId); err != nil {
		if err == room.ErrRoomNotFound {
			return nil, ErrRoomNotFound
		}

		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	stored, err := s.roomRepo.GetMessages(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	messages := make([]Message, 0, len(stored))
	for _, message := range stored {
		messages = append(messages, Message{
			Id:        message.Id,
			UserId:    message.UserId,
			Text:      message.Text,
			Kind:      message.Kind,
			CreatedAt: message.CreatedAt,
		})
	}

	return messages, nil
}
