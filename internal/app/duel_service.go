package app

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"quiz-duel-service/internal/domain"
)

const (
	// roomCapacity is the fixed member cap per duel room.
	roomCapacity = 6
	// minDuelPlayers is the minimum membership required to start a duel.
	minDuelPlayers = 2
	// codeAttempts bounds the collision retry loop over the 4-digit code space.
	codeAttempts = 100
)

// RoomStore holds active duel rooms keyed by room code.
type RoomStore interface {
	// PutIfAbsent stores the room unless its code is already taken.
	PutIfAbsent(room *Room) bool
	Get(code string) (*Room, bool)
	Delete(code string)
	// SweepIdle drops rooms idle for longer than maxAge and reports how many
	// were removed.
	SweepIdle(maxAge time.Duration) int
}

// DuelService owns multiplayer room lifecycle. Rooms are observed by polling;
// there is no push channel.
type DuelService struct {
	rooms     RoomStore
	questions QuestionRepository
	users     UserDirectory

	now func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewDuelService(rooms RoomStore, questions QuestionRepository, users UserDirectory) *DuelService {
	return &DuelService{
		rooms:     rooms,
		questions: questions,
		users:     users,
		now:       time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRoom opens a waiting room hosted by hostID and returns its code. Codes
// are drawn from the 4-digit space and retried until one is free among the
// currently active rooms.
func (d *DuelService) CreateRoom(ctx context.Context, themeID int64, hostID string) (string, error) {
	now := d.now()
	for attempt := 0; attempt < codeAttempts; attempt++ {
		d.mu.Lock()
		code := strconv.Itoa(1000 + d.rnd.Intn(9000))
		seed := d.rnd.Int63()
		d.mu.Unlock()

		room := &Room{
			code:      code,
			themeID:   themeID,
			players:   []string{hostID},
			status:    domain.RoomWaiting,
			scores:    make(map[string]int),
			createdAt: now,
			touched:   now,
			now:       d.now,
			rnd:       rand.New(rand.NewSource(seed)),
		}
		if d.rooms.PutIfAbsent(room) {
			return code, nil
		}
	}
	return "", fmt.Errorf("duel: no free room code after %d attempts", codeAttempts)
}

// JoinRoom adds userID to a waiting room. Rejoining an existing member is a
// no-op success.
func (d *DuelService) JoinRoom(ctx context.Context, code, userID string) error {
	room, ok := d.rooms.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	return room.join(userID)
}

// Roster is the polled view of a room's membership.
type Roster struct {
	Players []domain.PlayerInfo
	IsHost  bool
	Started bool
}

// ListPlayers returns the room membership with host flags, plus whether the
// requester is the host and whether the duel has started.
func (d *DuelService) ListPlayers(ctx context.Context, code, requesterID string) (Roster, error) {
	room, ok := d.rooms.Get(code)
	if !ok {
		return Roster{}, domain.ErrRoomNotFound
	}

	members, status := room.membersSnapshot()
	roster := Roster{
		Players: make([]domain.PlayerInfo, 0, len(members)),
		Started: status == domain.RoomPlaying,
	}
	for i, id := range members {
		name, err := d.users.Username(ctx, id)
		if err != nil {
			// Skip members whose account disappeared; the room itself stays valid.
			continue
		}
		roster.Players = append(roster.Players, domain.PlayerInfo{
			UserID:   id,
			Username: name,
			Host:     i == 0,
		})
	}
	if len(members) > 0 {
		roster.IsHost = requesterID == members[0]
	}
	return roster, nil
}

// StartedDuel describes a duel that just transitioned to playing.
type StartedDuel struct {
	Question       domain.QuestionView
	TotalQuestions int
}

// StartDuel transitions the room to playing and deals its shared question
// batch. Only the host may start, at least two members must be present, and a
// room that is already playing is not restarted.
func (d *DuelService) StartDuel(ctx context.Context, code, requesterID string) (StartedDuel, error) {
	room, ok := d.rooms.Get(code)
	if !ok {
		return StartedDuel{}, domain.ErrRoomNotFound
	}
	return room.start(ctx, requesterID, func(ctx context.Context) ([]domain.Question, error) {
		batch, err := d.questions.SelectBatch(ctx, room.themeID)
		if err != nil {
			return nil, fmt.Errorf("select batch: %w", err)
		}
		return dedupeByPrompt(batch.Flatten()), nil
	})
}

// Room is one multiplayer duel room. The first member is always the host.
// All mutation is serialized through the room's mutex; start holds it across
// the deal so two concurrent starts cannot both transition the room.
type Room struct {
	code      string
	themeID   int64
	createdAt time.Time
	now       func() time.Time
	rnd       *rand.Rand

	mu        sync.Mutex
	players   []string
	status    domain.RoomStatus
	questions []domain.Question
	scores    map[string]int
	touched   time.Time
}

// Code returns the room code.
func (r *Room) Code() string { return r.code }

// ThemeID returns the theme the room plays.
func (r *Room) ThemeID() int64 { return r.themeID }

// LastActive returns the time of the most recent membership or state change.
func (r *Room) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touched
}

// Status returns the current lifecycle state.
func (r *Room) Status() domain.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Room) join(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != domain.RoomWaiting {
		return domain.ErrRoomNotJoinable
	}
	if len(r.players) >= roomCapacity {
		return domain.ErrRoomFull
	}
	for _, id := range r.players {
		if id == userID {
			return nil
		}
	}
	r.players = append(r.players, userID)
	r.touched = r.now()
	return nil
}

func (r *Room) membersSnapshot() ([]string, domain.RoomStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := make([]string, len(r.players))
	copy(members, r.players)
	return members, r.status
}

func (r *Room) start(ctx context.Context, requesterID string, deal func(ctx context.Context) ([]domain.Question, error)) (StartedDuel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.players[0] {
		return StartedDuel{}, domain.ErrNotHost
	}
	if r.status == domain.RoomPlaying {
		return StartedDuel{}, domain.ErrRoomStarted
	}
	if len(r.players) < minDuelPlayers {
		return StartedDuel{}, domain.ErrNotEnoughPlayers
	}

	questions, err := deal(ctx)
	if err != nil {
		return StartedDuel{}, err
	}
	if len(questions) == 0 {
		return StartedDuel{}, domain.ErrNoQuestions
	}
	r.rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	r.status = domain.RoomPlaying
	r.questions = questions
	for _, id := range r.players {
		r.scores[id] = 0
	}
	r.touched = r.now()

	return StartedDuel{
		Question:       viewQuestion(questions[0], r.rnd),
		TotalQuestions: len(questions),
	}, nil
}
