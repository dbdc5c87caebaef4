package memory

import (
	"sync"

	"quiz-arena-service/internal/arena"
)

// RoomStore is the in-memory implementation of arena.RoomStore. The map is the
// only process-wide mutable room state; entries leave it on explicit teardown.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*arena.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*arena.Room)}
}

// GetOrCreate resolves creation races to first-writer-wins: a later create for
// the same code resumes instead of replacing.
func (s *RoomStore) GetOrCreate(code, hostConnID string) (*arena.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[code]; ok {
		return room, true
	}
	room := arena.NewRoom(code, hostConnID)
	s.rooms[code] = room
	return room, false
}

func (s *RoomStore) Get(code string) (*arena.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}
