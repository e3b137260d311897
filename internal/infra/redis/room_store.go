package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-duel-service/internal/app"
)

// RoomStore is a Redis-aware implementation of app.RoomStore. Rooms live in a
// local map; Redis carries a TTL'd liveness key per room code.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	rooms  map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Room),
	}
}

func (s *RoomStore) PutIfAbsent(room *app.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Code()]; ok {
		return false
	}
	s.rooms[room.Code()] = room
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(room.Code()), "1", s.ttl).Err()
	return true
}

func (s *RoomStore) Get(code string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	_ = s.client.Del(context.Background(), s.key(code)).Err()
}

func (s *RoomStore) SweepIdle(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for code, room := range s.rooms {
		if room.LastActive().Before(cutoff) {
			delete(s.rooms, code)
			_ = s.client.Del(context.Background(), s.key(code)).Err()
			removed++
		}
	}
	return removed
}

func (s *RoomStore) key(code string) string {
	return "duel:room:" + code
}
