package inmemory

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/repository/connection"
)

type memberKey struct {
	roomId string
	userId string
}

type repo struct {
	connList map[*websocket.Conn]memberKey
	idList   map[memberKey]*websocket.Conn
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[*websocket.Conn]memberKey),
		idList:   make(map[memberKey]*websocket.Conn),
	}
}

func (r *repo) Add(conn *websocket.Conn, roomId, userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memberKey{roomId: roomId, userId: userId}
	if _, ok := r.idList[key]; ok {
		return connection.ErrAlreadyExists
	}
	if _, ok := r.connList[conn]; ok {
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = key
	r.idList[key] = conn

	return nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.connList[conn]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, key)

	return nil
}

func (r *repo) RemoveByMember(roomId, userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memberKey{roomId: roomId, userId: userId}
	conn, ok := r.idList[key]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, key)

	return nil
}

func (r *repo) GetMember(conn *websocket.Conn) (roomId string, userId string, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.connList[conn]
	if !ok {
		return "", "", connection.ErrNotFound
	}

	return key.roomId, key.userId, nil
}

func (r *repo) GetConn(roomId, userId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[memberKey{roomId: roomId, userId: userId}]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}
