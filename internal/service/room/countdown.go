package room

import (
	"context"
	"fmt"
	"time"

	"github.com/watchparty/server/internal/repository/room"
	"github.com/watchparty/server/pkg/countdown"
)

// scheduleAutoStart arms a one-shot timer that moves the room from waiting
// to live when the countdown reaches zero. Used only under the scheduled
// start policy.
func (s *service) scheduleAutoStart(roomId string, startAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if _, ok := s.autoStarts[roomId]; ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.autoStarts[roomId] = cancel

	// Re-derive the remaining time on every tick instead of arming one long
	// timer, so a suspended or descheduled process cannot overshoot the
	// start instant.
	watcher := countdown.NewWatcher(startAt, time.Second, s.clock)
	go func() {
		watcher.Run(ctx, func(remaining time.Duration) {
			s.logger.DebugContext(ctx, "countdown", "room_id", roomId, "remaining", countdown.Format(remaining))
		})
		if ctx.Err() != nil {
			return
		}

		if err := s.autoStart(ctx, roomId); err != nil {
			s.logger.InfoContext(ctx, "auto start skipped", "room_id", roomId, "error", err)
		}
		s.cancelAutoStart(roomId)
	}()
}

// cancelAutoStart disarms the room's auto-start timer, if any.
func (s *service) cancelAutoStart(roomId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.autoStarts[roomId]; ok {
		cancel()
		delete(s.autoStarts, roomId)
	}
}

func (s *service) autoStart(ctx context.Context, roomId string) error {
	lock := s.roomLock(roomId)
	lock.Lock()
	defer lock.Unlock()

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return ErrRoomNotFound
		}

		return fmt.Errorf("failed to get room: %w", err)
	}

	if rm.Status != room.StatusWaiting {
		return nil
	}
	// Without content there is nothing to play; the room stays in waiting
	// until the host selects content and starts manually.
	if rm.SelectedContentId == "" {
		return ErrNoContentSelected
	}

	if err := s.roomRepo.UpdateRoomStatus(ctx, roomId, room.StatusLive); err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}

	s.logger.InfoContext(ctx, "room live on schedule", "room_id", roomId)
	s.broadcastRoomUpdated(ctx, roomId)

	return nil
}
