package room

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlaybackNotFound = errors.New("playback not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrContentNotFound  = errors.New("content not found")
	ErrInviteNotFound   = errors.New("invite not found")
)
