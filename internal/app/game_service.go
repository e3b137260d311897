package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"quiz-duel-service/internal/domain"
)

// QuestionRepository deals question batches for a theme. Implementations must
// bump usage counters atomically with the read so repeated games spread wear
// across the pool.
type QuestionRepository interface {
	SelectBatch(ctx context.Context, themeID int64) (domain.Batch, error)
}

// SessionStore holds active single-player sessions keyed by session ID.
type SessionStore interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
	// SweepIdle drops sessions idle for longer than maxAge and reports how
	// many were removed. Eviction policy lives outside the game core.
	SweepIdle(maxAge time.Duration) int
}

// ScoreArchive persists finished runs for the leaderboard.
type ScoreArchive interface {
	RecordScore(ctx context.Context, userID string, themeID int64, score int, totalTime float64) error
	// TopScores returns ranked rows for a theme, or across all themes when
	// themeID <= 0.
	TopScores(ctx context.Context, themeID int64, limit int) ([]domain.ScoreRow, error)
}

// ThemeCatalog lists the available question categories.
type ThemeCatalog interface {
	ListThemes(ctx context.Context) ([]domain.Theme, error)
}

// CredentialStore verifies and registers user accounts.
type CredentialStore interface {
	// Create registers a username and returns the new user ID, or
	// domain.ErrUsernameTaken.
	Create(ctx context.Context, username, password string) (string, error)
	// Verify checks a username/password pair and returns the user ID, or
	// domain.ErrInvalidCredentials.
	Verify(ctx context.Context, username, password string) (string, error)
}

// UserDirectory resolves user IDs to display names.
type UserDirectory interface {
	Username(ctx context.Context, userID string) (string, error)
}

// GameService owns the lifecycle of single-player runs.
type GameService struct {
	sessions  SessionStore
	questions QuestionRepository
	scores    ScoreArchive

	now func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGameService(sessions SessionStore, questions QuestionRepository, scores ScoreArchive) *GameService {
	return &GameService{
		sessions:  sessions,
		questions: questions,
		scores:    scores,
		now:       time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// StartedGame describes a freshly dealt session.
type StartedGame struct {
	SessionID      string
	Question       domain.QuestionView
	TotalQuestions int
}

// Start deals a batch for the theme and opens a new session owned by userID.
func (g *GameService) Start(ctx context.Context, themeID int64, userID string) (StartedGame, error) {
	batch, err := g.questions.SelectBatch(ctx, themeID)
	if err != nil {
		return StartedGame{}, fmt.Errorf("select batch: %w", err)
	}

	questions := dedupeByPrompt(batch.Flatten())
	if len(questions) == 0 {
		return StartedGame{}, domain.ErrNoQuestions
	}

	now := g.now()
	g.mu.Lock()
	g.rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	seed := g.rnd.Int63()
	g.mu.Unlock()

	session := &Session{
		id:        fmt.Sprintf("game_%d_%s", now.Unix(), userID),
		userID:    userID,
		themeID:   themeID,
		questions: questions,
		startedAt: now,
		touched:   now,
		now:       g.now,
		rnd:       rand.New(rand.NewSource(seed)),
	}
	g.sessions.Put(session)

	return StartedGame{
		SessionID:      session.id,
		Question:       viewQuestion(questions[0], session.rnd),
		TotalQuestions: len(questions),
	}, nil
}

// SubmitResult describes the outcome of one answer submission.
type SubmitResult struct {
	Correct       bool
	CorrectAnswer string
	Points        int
	Score         int
	TimeTaken     float64
	NextQuestion  *domain.QuestionView
	Finished      bool
	TotalTime     float64
}

// SubmitAnswer evaluates answer against the session's current question,
// appends a history record and advances the cursor. A nil answer counts as a
// timeout; a nil secondsTaken defaults to the full answer window. When the
// submission finishes the run, the final score is archived.
func (g *GameService) SubmitAnswer(ctx context.Context, sessionID string, answer *string, secondsTaken *float64) (SubmitResult, error) {
	session, ok := g.sessions.Get(sessionID)
	if !ok {
		return SubmitResult{}, domain.ErrSessionNotFound
	}

	seconds := answerWindow
	if secondsTaken != nil {
		seconds = *secondsTaken
	}

	result, err := session.submit(answer, seconds)
	if err != nil {
		return SubmitResult{}, err
	}

	if result.Finished && g.scores != nil {
		// Best-effort: an archive failure must not fail the submission.
		_ = g.scores.RecordScore(ctx, session.userID, session.themeID, result.Score, result.TotalTime)
	}
	return result, nil
}

// History returns a copy of the session's answer log.
func (g *GameService) History(sessionID string) ([]domain.AnswerRecord, error) {
	session, ok := g.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.historySnapshot(), nil
}

// Session is one in-progress single-player run. All mutation goes through its
// mutex; two concurrent submissions on the same session serialize.
type Session struct {
	id        string
	userID    string
	themeID   int64
	questions []domain.Question
	startedAt time.Time
	now       func() time.Time
	rnd       *rand.Rand

	mu      sync.Mutex
	index   int
	score   int
	history []domain.AnswerRecord
	touched time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the owning user.
func (s *Session) UserID() string { return s.userID }

// LastActive returns the time of the most recent submission, or the start
// time for an untouched session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Finished reports whether the cursor has passed the last question.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index >= len(s.questions)
}

func (s *Session) submit(answer *string, seconds float64) (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.questions) {
		return SubmitResult{}, domain.ErrSessionFinished
	}

	current := s.questions[s.index]
	correct, points := evaluateAnswer(answer, current.Answer, current.Points(), seconds)
	if correct {
		s.score += points
	}
	s.history = append(s.history, domain.AnswerRecord{
		Prompt:        current.Prompt,
		UserAnswer:    answer,
		CorrectAnswer: current.Answer,
		Correct:       correct,
		Points:        points,
		TimeTaken:     seconds,
	})
	s.index++
	now := s.now()
	s.touched = now

	result := SubmitResult{
		Correct:       correct,
		CorrectAnswer: current.Answer,
		Points:        points,
		Score:         s.score,
		TimeTaken:     seconds,
		Finished:      s.index == len(s.questions),
	}
	if result.Finished {
		result.TotalTime = now.Sub(s.startedAt).Seconds()
	} else {
		next := viewQuestion(s.questions[s.index], s.rnd)
		result.NextQuestion = &next
	}
	return result, nil
}

func (s *Session) historySnapshot() []domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AnswerRecord, len(s.history))
	copy(out, s.history)
	return out
}
