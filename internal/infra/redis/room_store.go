package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-arena-service/internal/arena"
)

// RoomStore is a Redis-aware implementation of arena.RoomStore.
// Notes:
//   - Room state itself stays in a local in-process map so the per-room mutex
//     keeps its single-writer guarantee.
//   - Redis marks room liveness, which lets sibling instances (and ops tooling)
//     see which codes are taken.
//   - True multi-instance rooms would additionally need per-code routing so a
//     room's traffic lands on one instance.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	rooms  map[string]*arena.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*arena.Room),
	}
}

func (s *RoomStore) GetOrCreate(code, hostConnID string) (*arena.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[code]; ok {
		return room, true
	}
	room := arena.NewRoom(code, hostConnID)
	s.rooms[code] = room
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(code), "1", s.ttl).Err()
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
	if _, ok := s.rooms[code]; !ok {
		return
	}
	delete(s.rooms, code)
	_ = s.client.Del(context.Background(), s.key(code)).Err()
}

func (s *RoomStore) key(code string) string {
	return "arena:room:" + code
}
