package memory

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"quiz-duel-service/internal/domain"
)

type userRecord struct {
	id           string
	username     string
	passwordHash []byte
}

// UserStore is an in-memory implementation of app.CredentialStore and
// app.UserDirectory. Passwords are bcrypt-hashed like the postgres store.
type UserStore struct {
	mu     sync.RWMutex
	nextID int64
	byName map[string]*userRecord
	byID   map[string]*userRecord
}

func NewUserStore() *UserStore {
	return &UserStore{
		byName: make(map[string]*userRecord),
		byID:   make(map[string]*userRecord),
	}
}

func (s *UserStore) Create(_ context.Context, username, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[username]; ok {
		return "", domain.ErrUsernameTaken
	}
	s.nextID++
	record := &userRecord{
		id:           strconv.FormatInt(s.nextID, 10),
		username:     username,
		passwordHash: hash,
	}
	s.byName[username] = record
	s.byID[record.id] = record
	return record.id, nil
}

func (s *UserStore) Verify(_ context.Context, username, password string) (string, error) {
	s.mu.RLock()
	record, ok := s.byName[username]
	s.mu.RUnlock()
	if !ok {
		return "", domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(record.passwordHash, []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}
	return record.id, nil
}

func (s *UserStore) Username(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.byID[userID]
	if !ok {
		return "", domain.ErrUserNotFound
	}
	return record.username, nil
}
