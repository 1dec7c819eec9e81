package wssender

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Sender serializes writes per connection: gorilla/websocket connections
// do not support concurrent writers, and both the request path and the
// heartbeat runner write to the same members.
type Sender struct {
	mu    sync.Mutex
	locks map[*websocket.Conn]*sync.Mutex
}

func NewSender() *Sender {
	return &Sender{
		locks: make(map[*websocket.Conn]*sync.Mutex),
	}
}

func (s *Sender) Send(conn *websocket.Conn, msg any) error {
	lock := s.lockFor(conn)
	lock.Lock()
	defer lock.Unlock()

	return conn.WriteJSON(msg)
}

// Forget releases the per-connection lock after the connection closes.
func (s *Sender) Forget(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, conn)
}

func (s *Sender) lockFor(conn *websocket.Conn) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[conn]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[conn] = lock
	}

	return lock
}
