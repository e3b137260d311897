package app_test

import (
	"context"
	"errors"
	"testing"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/domain"
	"quiz-duel-service/internal/infra/memory"
)

func newDuelFixture(t *testing.T) (*app.DuelService, int64, *memory.UserStore) {
	t.Helper()
	bank, themeID := seededBank(t, 2, 2, 2)
	users := memory.NewUserStore()
	return app.NewDuelService(memory.NewRoomStore(), bank, users), themeID, users
}

func createUsers(t *testing.T, users *memory.UserStore, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, err := users.Create(context.Background(), name, "secret")
		if err != nil {
			t.Fatalf("create user %s: %v", name, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestCreateRoomIssuesFourDigitCode(t *testing.T) {
	ctx := context.Background()
	duels, themeID, users := newDuelFixture(t)
	ids := createUsers(t, users, "host")

	code, err := duels.CreateRoom(ctx, themeID, ids[0])
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if len(code) != 4 || code[0] == '0' {
		t.Fatalf("expected 4-digit code, got %q", code)
	}

	roster, err := duels.ListPlayers(ctx, code, ids[0])
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(roster.Players) != 1 || !roster.Players[0].Host || !roster.IsHost {
		t.Fatalf("expected creator as host, got %+v", roster)
	}
	if roster.Started {
		t.Fatalf("expected a waiting room")
	}
}

func TestJoinRoomCapacity(t *testing.T) {
	ctx := context.Background()
	duels, themeID, users := newDuelFixture(t)
	ids := createUsers(t, users, "host", "p2", "p3", "p4", "p5", "p6", "p7")

	code, err := duels.CreateRoom(ctx, themeID, ids[0])
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	for _, id := range ids[1:6] {
		if err := duels.JoinRoom(ctx, code, id); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	if err := duels.JoinRoom(ctx, code, ids[6]); !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull for seventh player, got %v", err)
	}

	roster, err := duels.ListPlayers(ctx, code, ids[1])
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(roster.Players) != 6 {
		t.Fatalf("expected 6 players, got %d", len(roster.Players))
	}
	if roster.IsHost {
		t.Fatalf("expected non-host requester")
	}
}

func TestJoinRoomRejoinIsNoOp(t *testing.T) {
	ctx := context.Background()
	duels, themeID, users := newDuelFixture(t)
	ids := createUsers(t, users, "host", "p2")

	code, err := duels.CreateRoom(ctx, themeID, ids[0])
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := duels.JoinRoom(ctx, code, ids[1]); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := duels.JoinRoom(ctx, code, ids[1]); err != nil {
		t.Fatalf("expected rejoin to succeed, got %v", err)
	}

	roster, err := duels.ListPlayers(ctx, code, ids[0])
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(roster.Players) != 2 {
		t.Fatalf("expected rejoin not to duplicate membership, got %d players", len(roster.Players))
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	duels, _, _ := newDuelFixture(t)
	if err := duels.JoinRoom(context.Background(), "0000", "u1"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestStartDuelLifecycle(t *testing.T) {
	ctx := context.Background()
	duels, themeID, users := newDuelFixture(t)
	ids := createUsers(t, users, "host", "p2", "late")

	code, err := duels.CreateRoom(ctx, themeID, ids[0])
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	// A lone host cannot start.
	if _, err := duels.StartDuel(ctx, code, ids[0]); !errors.Is(err, domain.ErrNotEnoughPlayers) {
		t.Fatalf("expected ErrNotEnoughPlayers, got %v", err)
	}

	if err := duels.JoinRoom(ctx, code, ids[1]); err != nil {
		t.Fatalf("join: %v", err)
	}

	// Only the host starts the duel.
	if _, err := duels.StartDuel(ctx, code, ids[1]); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}

	started, err := duels.StartDuel(ctx, code, ids[0])
	if err != nil {
		t.Fatalf("start duel: %v", err)
	}
	if started.TotalQuestions != 6 {
		t.Fatalf("expected 6 shared questions, got %d", started.TotalQuestions)
	}
	if started.Question.Prompt == "" {
		t.Fatalf("expected a first question")
	}

	roster, err := duels.ListPlayers(ctx, code, ids[1])
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if !roster.Started {
		t.Fatalf("expected the roster to report a running duel")
	}

	// A running duel is neither restartable nor joinable.
	if _, err := duels.StartDuel(ctx, code, ids[0]); !errors.Is(err, domain.ErrRoomStarted) {
		t.Fatalf("expected ErrRoomStarted, got %v", err)
	}
	if err := duels.JoinRoom(ctx, code, ids[2]); !errors.Is(err, domain.ErrRoomNotJoinable) {
		t.Fatalf("expected ErrRoomNotJoinable, got %v", err)
	}
}

func TestListPlayersSkipsDeletedAccounts(t *testing.T) {
	ctx := context.Background()
	bank, themeID := seededBank(t, 1, 0, 0)
	users := memory.NewUserStore()
	duels := app.NewDuelService(memory.NewRoomStore(), bank, users)

	ids := createUsers(t, users, "host")
	code, err := duels.CreateRoom(ctx, themeID, ids[0])
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	// A member whose account no longer resolves is dropped from the roster
	// but keeps its membership slot.
	if err := duels.JoinRoom(ctx, code, "ghost"); err != nil {
		t.Fatalf("join: %v", err)
	}

	roster, err := duels.ListPlayers(ctx, code, ids[0])
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(roster.Players) != 1 || roster.Players[0].Username != "host" {
		t.Fatalf("expected ghost member hidden, got %+v", roster.Players)
	}
}

func TestCreateRoomCodesAreUnique(t *testing.T) {
	ctx := context.Background()
	duels, themeID, users := newDuelFixture(t)
	ids := createUsers(t, users, "host")

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := duels.CreateRoom(ctx, themeID, ids[0])
		if err != nil {
			t.Fatalf("create room %d: %v", i, err)
		}
		if seen[code] {
			t.Fatalf("duplicate room code %s", code)
		}
		seen[code] = true
	}
}
