package room

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/watchparty/server/internal/repository/room"
)

var contentKinds = map[string]bool{
	"movie":  true,
	"series": true,
	"sports": true,
}

type AddContentParams struct {
	Title           string
	Kind            string
	DurationSeconds float64
	SenderId        string
	RoomId          string
}

type AddContentResponse struct {
	AddedContent Content
	Contents     []Content
}

// AddContent proposes a content option for the room's vote. Any member may
// add options while the room is waiting.
func (s *service) AddContent(ctx context.Context, params *AddContentParams) (AddContentResponse, error) {
	if strings.TrimSpace(params.Title) == "" || !contentKinds[params.Kind] || params.DurationSeconds <= 0 {
		return AddContentResponse{}, ErrInvalidInput
	}

	rm, err := s.checkIfMember(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return AddContentResponse{}, err
	}

	if rm.Status == room.StatusEnded {
		return AddContentResponse{}, ErrRoomEnded
	}
	if rm.Status != room.StatusWaiting {
		return AddContentResponse{}, ErrInvalidTransition
	}

	contentIds, err := s.roomRepo.GetContentIds(ctx, params.RoomId)
	if err != nil {
		return AddContentResponse{}, fmt.Errorf("failed to get content ids: %w", err)
	}
	if len(contentIds) >= s.contentLimit {
		return AddContentResponse{}, ErrContentLimitReached
	}

	contentId := uuid.NewString()
	if err := s.roomRepo.SetContent(ctx, &room.SetContentParams{
		Title:           params.Title,
		Kind:            params.Kind,
		DurationSeconds: params.DurationSeconds,
		AddedById:       params.SenderId,
		ContentId:       contentId,
		RoomId:          params.RoomId,
	}); err != nil {
		return AddContentResponse{}, fmt.Errorf("failed to set content: %w", err)
	}

	contents, err := s.getContents(ctx, params.RoomId)
	if err != nil {
		return AddContentResponse{}, err
	}

	var addedContent Content
	for _, content := range contents {
		if content.ContentId == contentId {
			addedContent = content
			break
		}
	}

	s.broadcast(ctx, params.RoomId, &Output{
		Type: "CONTENT_ADDED",
		Payload: map[string]any{
			"added_content": addedContent,
			"contents":      contents,
		},
	})

	return AddContentResponse{
		AddedContent: addedContent,
		Contents:     contents,
	}, nil
}

type VoteContentParams struct {
	ContentId string
	SenderId  string
	RoomId    string
}

type VoteContentResponse struct {
	Contents []Content
}

// VoteContent records the member's vote for a content option. A member has
// one vote; voting again replaces it.
func (s *service) VoteContent(ctx context.Context, params *VoteContentParams) (VoteContentResponse, error) {
	rm, err := s.checkIfMember(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return VoteContentResponse{}, err
	}

	if rm.Status == room.StatusEnded {
		return VoteContentResponse{}, ErrRoomEnded
	}
	if rm.Status != room.StatusWaiting {
		return VoteContentResponse{}, ErrInvalidTransition
	}

	if _, err := s.roomRepo.GetContent(ctx, params.RoomId, params.ContentId); err != nil {
		if err == room.ErrContentNotFound {
			return VoteContentResponse{}, ErrInvalidInput
		}

		return VoteContentResponse{}, fmt.Errorf("failed to get content: %w", err)
	}

	if err := s.roomRepo.SetVote(ctx, &room.SetVoteParams{
		UserId:    params.SenderId,
		ContentId: params.ContentId,
		RoomId:    params.RoomId,
	}); err != nil {
		return VoteContentResponse{}, fmt.Errorf("failed to set vote: %w", err)
	}

	contents, err := s.getContents(ctx, params.RoomId)
	if err != nil {
		return VoteContentResponse{}, err
	}

	s.broadcast(ctx, params.RoomId, &Output{
		Type: "VOTES_UPDATED",
		Payload: map[string]any{
			"contents": contents,
		},
	})

	return VoteContentResponse{Contents: contents}, nil
}

// GetContents lists the room's content options in insertion order with
// their vote counts.
func (s *service) GetContents(ctx context.Context, roomId string) ([]Content, error) {
	if _, err := s.roomRepo.GetRoom(ctx, roomId); err != nil {
		if err == room.ErrRoomNotFound {
			return nil, ErrRoomNotFound
		}

		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return s.getContents(ctx, roomId)
}

func (s *service) getContents(ctx context.Context, roomId string) ([]Content, error) {
	contentIds, err := s.roomRepo.GetContentIds(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get content ids: %w", err)
	}

	votes, err := s.roomRepo.GetVotes(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get votes: %w", err)
	}

	tally := make(map[string]int, len(contentIds))
	for _, contentId := range votes {
		tally[contentId]++
	}

	contents := make([]Content, 0, len(contentIds))
	for _, contentId := range contentIds {
		content, err := s.roomRepo.GetContent(ctx, roomId, contentId)
		if err != nil {
			return nil, fmt.Errorf("failed to get content: %w", err)
		}

		contents = append(contents, Content{
			ContentId:       contentId,
			Title:           content.Title,
			Kind:            content.Kind,
			DurationSeconds: content.DurationSeconds,
			AddedById:       content.AddedById,
			Votes:           tally[contentId],
		})
	}

	return contents, nil
}
