package redis

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/repository/room"
)

func (r repo) getMemberKey(roomId, userId string) string {
	return "room:" + roomId + ":member:" + userId
}

func (r repo) getMemberListKey(roomId string) string {
	return "room:" + roomId + ":memberlist"
}

func (r repo) SetMember(ctx context.Context, params *room.SetMemberParams) error {
	pipe := r.rc.TxPipeline()

	member := room.Member{
		Username: params.Username,
		IsHost:   params.IsHost,
		IsOnline: params.IsOnline,
		JoinedAt: params.JoinedAt,
	}
	memberKey := r.getMemberKey(params.RoomId, params.UserId)
	pipe.HSet(ctx, memberKey, member)
	pipe.Expire(ctx, memberKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set member: %w", err)
	}

	memberListKey := r.getMemberListKey(params.RoomId)
	if err := r.addWithIncrement(ctx, r.rc, memberListKey, params.UserId); err != nil {
		return fmt.Errorf("failed to add member to list: %w", err)
	}

	r.rc.Expire(ctx, memberListKey, r.expireDuration)

	return nil
}

func (r repo) GetMember(ctx context.Context, roomId, userId string) (room.Member, error) {
	memberKey := r.getMemberKey(roomId, userId)
	cmd := r.rc.Exists(ctx, memberKey)
	if err := cmd.Err(); err != nil {
		return room.Member{}, fmt.Errorf("failed to check if member exists: %w", err)
	}

	if cmd.Val() == 0 {
		return room.Member{}, room.ErrMemberNotFound
	}

	var member room.Member
	if err := r.rc.HGetAll(ctx, memberKey).Scan(&member); err != nil {
		return room.Member{}, fmt.Errorf("failed to get member: %w", err)
	}

	r.rc.Expire(ctx, memberKey, r.expireDuration)

	return member, nil
}

func (r repo) IsMember(ctx context.Context, roomId, userId string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.getMemberKey(roomId, userId)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if member exists: %w", err)
	}

	return res > 0, nil
}

func (r repo) GetMemberIds(ctx context.Context, roomId string) ([]string, error) {
	memberListKey := r.getMemberListKey(roomId)
	memberIds, err := r.rc.ZRange(ctx, memberListKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	r.rc.Expire(ctx, memberListKey, r.expireDuration)

	return memberIds, nil
}

func (r repo) UpdateMemberIsOnline(ctx context.Context, roomId, userId string, isOnline bool) error {
	memberKey := r.getMemberKey(roomId, userId)
	cmd := r.rc.Exists(ctx, memberKey)
	if err := cmd.Err(); err != nil {
		return err
	}

	if cmd.Val() == 0 {
		return room.ErrMemberNotFound
	}

	if err := r.rc.HSet(ctx, memberKey, "is_online", isOnline).Err(); err != nil {
		return err
	}

	r.rc.Expire(ctx, memberKey, r.expireDuration)

	return nil
}
