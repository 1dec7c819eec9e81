package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/watchparty/server/internal/repository/room"
)

func (r repo) getInviteKey(inviteCode string) string {
	return "invite:" + inviteCode
}

func (r repo) SetInviteCode(ctx context.Context, inviteCode, roomId string) error {
	if err := r.rc.Set(ctx, r.getInviteKey(inviteCode), roomId, r.expireDuration).Err(); err != nil {
		return fmt.Errorf("failed to set invite code: %w", err)
	}

	return nil
}

func (r repo) GetRoomIdByInviteCode(ctx context.Context, inviteCode string) (string, error) {
	roomId, err := r.rc.Get(ctx, r.getInviteKey(inviteCode)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", room.ErrInviteNotFound
		}

		return "", fmt.Errorf("failed to get room id by invite code: %w", err)
	}

	return roomId, nil
}
