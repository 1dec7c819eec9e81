package redis

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/repository/room"
)

func (r repo) getContentKey(roomId, contentId string) string {
	return "room:" + roomId + ":content:" + contentId
}

func (r repo) getContentListKey(roomId string) string {
	return "room:" + roomId + ":contentlist"
}

func (r repo) getVotesKey(roomId string) string {
	return "room:" + roomId + ":votes"
}

func (r repo) SetContent(ctx context.Context, params *room.SetContentParams) error {
	pipe := r.rc.TxPipeline()

	content := room.Content{
		Title:           params.Title,
		Kind:            params.Kind,
		DurationSeconds: params.DurationSeconds,
		AddedById:       params.AddedById,
	}
	contentKey := r.getContentKey(params.RoomId, params.ContentId)
	pipe.HSet(ctx, contentKey, content)
	pipe.Expire(ctx, contentKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set content: %w", err)
	}

	contentListKey := r.getContentListKey(params.RoomId)
	if err := r.addWithIncrement(ctx, r.rc, contentListKey, params.ContentId); err != nil {
		return fmt.Errorf("failed to add content to list: %w", err)
	}

	r.rc.Expire(ctx, contentListKey, r.expireDuration)

	return nil
}

func (r repo) GetContent(ctx context.Context, roomId, contentId string) (room.Content, error) {
	contentKey := r.getContentKey(roomId, contentId)
	cmd := r.rc.Exists(ctx, contentKey)
	if err := cmd.Err(); err != nil {
		return room.Content{}, fmt.Errorf("failed to check if content exists: %w", err)
	}

	if cmd.Val() == 0 {
		return room.Content{}, room.ErrContentNotFound
	}

	var content room.Content
	if err := r.rc.HGetAll(ctx, contentKey).Scan(&content); err != nil {
		return room.Content{}, fmt.Errorf("failed to get content: %w", err)
	}

	r.rc.Expire(ctx, contentKey, r.expireDuration)

	return content, nil
}

func (r repo) GetContentIds(ctx context.Context, roomId string) ([]string, error) {
	contentListKey := r.getContentListKey(roomId)
	contentIds, err := r.rc.ZRange(ctx, contentListKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get content ids: %w", err)
	}

	r.rc.Expire(ctx, contentListKey, r.expireDuration)

	return contentIds, nil
}

func (r repo) SetVote(ctx context.Context, params *room.SetVoteParams) error {
	votesKey := r.getVotesKey(params.RoomId)
	if err := r.rc.HSet(ctx, votesKey, params.UserId, params.ContentId).Err(); err != nil {
		return fmt.Errorf("failed to set vote: %w", err)
	}

	r.rc.Expire(ctx, votesKey, r.expireDuration)

	return nil
}

// GetVotes returns the user id to content id vote mapping for the room.
func (r repo) GetVotes(ctx context.Context, roomId string) (map[string]string, error) {
	votesKey := r.getVotesKey(roomId)
	votes, err := r.rc.HGetAll(ctx, votesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get votes: %w", err)
	}

	r.rc.Expire(ctx, votesKey, r.expireDuration)

	return votes, nil
}
