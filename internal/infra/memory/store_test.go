package memory

import (
	"context"
	"testing"
	"time"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/domain"
)

func startSession(t *testing.T, store app.SessionStore) string {
	t.Helper()
	bank := NewQuestionBank()
	themeID := bank.AddTheme("Sciences")
	bank.AddQuestion(domain.Question{ThemeID: themeID, Type: domain.OpenEnded, Prompt: "p", Answer: "a"})
	service := app.NewGameService(store, bank, nil)
	started, err := service.Start(context.Background(), themeID, "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return started.SessionID
}

func TestSessionStoreSweepIdle(t *testing.T) {
	store := NewSessionStore()
	id := startSession(t, store)

	if removed := store.SweepIdle(time.Hour); removed != 0 {
		t.Fatalf("expected fresh session kept, removed %d", removed)
	}
	// A cutoff in the future evicts everything.
	if removed := store.SweepIdle(-time.Second); removed != 1 {
		t.Fatalf("expected 1 session swept, got %d", removed)
	}
	if _, ok := store.Get(id); ok {
		t.Fatalf("expected session gone after sweep")
	}
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore()
	id := startSession(t, store)

	if _, ok := store.Get(id); !ok {
		t.Fatalf("expected session present")
	}
	store.Delete(id)
	if _, ok := store.Get(id); ok {
		t.Fatalf("expected session deleted")
	}
}

func TestRoomStoreSweepIdle(t *testing.T) {
	store := NewRoomStore()
	bank := NewQuestionBank()
	themeID := bank.AddTheme("Sciences")
	bank.AddQuestion(domain.Question{ThemeID: themeID, Type: domain.OpenEnded, Prompt: "p", Answer: "a"})
	users := NewUserStore()
	duels := app.NewDuelService(store, bank, users)

	code, err := duels.CreateRoom(context.Background(), themeID, "u1")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	if removed := store.SweepIdle(time.Hour); removed != 0 {
		t.Fatalf("expected fresh room kept, removed %d", removed)
	}
	if removed := store.SweepIdle(-time.Second); removed != 1 {
		t.Fatalf("expected 1 room swept, got %d", removed)
	}
	if _, ok := store.Get(code); ok {
		t.Fatalf("expected room gone after sweep")
	}
}

func TestRoomStorePutIfAbsent(t *testing.T) {
	store := NewRoomStore()
	bank := NewQuestionBank()
	themeID := bank.AddTheme("Sciences")
	users := NewUserStore()
	duels := app.NewDuelService(store, bank, users)

	code, err := duels.CreateRoom(context.Background(), themeID, "u1")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	room, ok := store.Get(code)
	if !ok {
		t.Fatalf("expected room stored")
	}
	if store.PutIfAbsent(room) {
		t.Fatalf("expected duplicate code rejected")
	}
}
