package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/watchparty/server/internal/repository/room"
)

func (r repo) getMessagesKey(roomId string) string {
	return "room:" + roomId + ":messages"
}

func (r repo) getLastMessageKey(roomId string) string {
	return "room:" + roomId + ":last_message_at"
}

func (r repo) AddMessage(ctx context.Context, params *room.AddMessageParams) error {
	data, err := json.Marshal(params.Message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := r.rc.TxPipeline()

	messagesKey := r.getMessagesKey(params.RoomId)
	pipe.RPush(ctx, messagesKey, data)
	pipe.LTrim(ctx, messagesKey, -params.Limit, -1)
	pipe.Expire(ctx, messagesKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}

	return nil
}

func (r repo) GetMessages(ctx context.Context, roomId string) ([]room.Message, error) {
	messagesKey := r.getMessagesKey(roomId)
	raw, err := r.rc.LRange(ctx, messagesKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	r.rc.Expire(ctx, messagesKey, r.expireDuration)

	messages := make([]room.Message, 0, len(raw))
	for _, item := range raw {
		var message room.Message
		if err := json.Unmarshal([]byte(item), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}

		messages = append(messages, message)
	}

	return messages, nil
}

func (r repo) SetLastMessageAt(ctx context.Context, roomId, userId string, at int64) error {
	lastMessageKey := r.getLastMessageKey(roomId)
	if err := r.rc.HSet(ctx, lastMessageKey, userId, at).Err(); err != nil {
		return fmt.Errorf("failed to set last message at: %w", err)
	}

	r.rc.Expire(ctx, lastMessageKey, r.expireDuration)

	return nil
}

// GetLastMessageAt returns the unix millisecond instant of the member's
// last message, or zero when the member has not sent one.
func (r repo) GetLastMessageAt(ctx context.Context, roomId, userId string) (int64, error) {
	lastMessageKey := r.getLastMessageKey(roomId)
	at, err := r.rc.HGet(ctx, lastMessageKey, userId).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to get last message at: %w", err)
	}

	return at, nil
}
