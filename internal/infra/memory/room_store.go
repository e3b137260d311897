package memory

import (
	"sync"
	"time"

	"quiz-duel-service/internal/app"
)

// RoomStore is an in-memory implementation of app.RoomStore.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*app.Room),
	}
}

// PutIfAbsent stores the room unless its code is already in use, so two
// concurrent creates can never claim the same code.
func (s *RoomStore) PutIfAbsent(room *app.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Code()]; ok {
		return false
	}
	s.rooms[room.Code()] = room
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
}

// SweepIdle evicts rooms whose last activity is older than maxAge.
func (s *RoomStore) SweepIdle(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for code, room := range s.rooms {
		if room.LastActive().Before(cutoff) {
			delete(s.rooms, code)
			removed++
		}
	}
	return removed
}
