package room

import "context"

// startHeartbeat launches the periodic heartbeat runner for a room. It is
// idempotent: a room has at most one runner.
func (s *service) startHeartbeat(roomId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if _, ok := s.heartbeats[roomId]; ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.heartbeats[roomId] = cancel

	go s.runHeartbeat(ctx, roomId)
}

// stopHeartbeat cancels the room's heartbeat runner, if any.
func (s *service) stopHeartbeat(roomId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.heartbeats[roomId]; ok {
		cancel()
		delete(s.heartbeats, roomId)
	}
}

func (s *service) runHeartbeat(ctx context.Context, roomId string) {
	ticker := s.clock.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := s.Heartbeat(ctx, roomId); err != nil {
				s.logger.InfoContext(ctx, "heartbeat stopped", "room_id", roomId, "error", err)
				s.stopHeartbeat(roomId)
				return
			}
		}
	}
}
