package inmemory

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/sharetube/watchsync/internal/repository/connection"
	"golang.org/x/exp/maps"
)

type repo struct {
	conns map[string]connection.Conn
	// room id -> conn id -> conn
	rooms map[string]map[string]connection.Conn
	// conn id -> joined room ids
	memberships map[string]map[string]struct{}
	mu          sync.RWMutex
	logger      *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		conns:       make(map[string]connection.Conn),
		rooms:       make(map[string]map[string]connection.Conn),
		memberships: make(map[string]map[string]struct{}),
		logger:      logger,
	}
}

func (r *repo) Add(conn connection.Conn) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.ID()]; ok {
		r.logger.Info(funcName, "conn_id", conn.ID(), "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.conns[conn.ID()] = conn
	r.memberships[conn.ID()] = make(map[string]struct{})

	r.logger.Debug(funcName, "conn_id", conn.ID(), "result", "OK")
	return nil
}

// Join adds the connection to the room group. Membership is additive.
func (r *repo) Join(connId, roomId string) error {
	funcName := "connection.inmemory.Join"
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connId]
	if !ok {
		r.logger.Info(funcName, "conn_id", connId, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	members, ok := r.rooms[roomId]
	if !ok {
		members = make(map[string]connection.Conn)
		r.rooms[roomId] = members
	}
	members[connId] = conn
	r.memberships[connId][roomId] = struct{}{}

	r.logger.Debug(funcName, "conn_id", connId, "room_id", roomId, "members", len(members))
	return nil
}

// Remove drops the connection and its membership in every room. Rooms left
// without members are discarded.
func (r *repo) Remove(connId string) ([]string, error) {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connId]; !ok {
		r.logger.Info(funcName, "conn_id", connId, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	roomIds := maps.Keys(r.memberships[connId])
	sort.Strings(roomIds)
	for _, roomId := range roomIds {
		members := r.rooms[roomId]
		delete(members, connId)
		if len(members) == 0 {
			delete(r.rooms, roomId)
		}
	}

	delete(r.memberships, connId)
	delete(r.conns, connId)

	r.logger.Debug(funcName, "conn_id", connId, "rooms", roomIds)
	return roomIds, nil
}

func (r *repo) GetConn(connId string) (connection.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

// GetRoomConns returns the members of the room, excluding excludeId.
func (r *repo) GetRoomConns(roomId, excludeId string) []connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomId]
	conns := make([]connection.Conn, 0, len(members))
	for id, conn := range members {
		if id == excludeId {
			continue
		}
		conns = append(conns, conn)
	}

	return conns
}

func (r *repo) GetAll() []connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Values(r.conns)
}

func (r *repo) Stats() (rooms, conns int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms), len(r.conns)
}
