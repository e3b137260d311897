package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"quiz-duel-service/internal/domain"
)

// QuestionBank is an in-memory implementation of app.QuestionRepository and
// app.ThemeCatalog, used for tests and for running without postgres.
type QuestionBank struct {
	mu        sync.Mutex
	now       func() time.Time
	rnd       *rand.Rand
	nextTheme int64
	nextID    int64
	themes    []domain.Theme
	questions []*domain.Question
}

func NewQuestionBank() *QuestionBank {
	return &QuestionBank{
		now: time.Now,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddTheme registers a theme and returns its ID.
func (b *QuestionBank) AddTheme(name string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.themes {
		if t.Name == name {
			return t.ID
		}
	}
	b.nextTheme++
	b.themes = append(b.themes, domain.Theme{ID: b.nextTheme, Name: name})
	return b.nextTheme
}

// AddQuestion stores a question and returns its assigned ID.
func (b *QuestionBank) AddQuestion(q domain.Question) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	q.ID = b.nextID
	b.questions = append(b.questions, &q)
	return q.ID
}

// ListThemes implements app.ThemeCatalog.
func (b *QuestionBank) ListThemes(_ context.Context) ([]domain.Theme, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Theme, len(b.themes))
	copy(out, b.themes)
	return out, nil
}

// SelectBatch picks up to the per-type cap of the theme's least-used
// questions, preferring lower usage counts, then older last-used timestamps,
// with a random tie-break. Selected questions get their usage bumped under
// the same lock, so concurrent selections never lose an increment.
func (b *QuestionBank) SelectBatch(_ context.Context, themeID int64) (domain.Batch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	batch := domain.Batch{}
	for _, qt := range domain.QuestionTypes() {
		selected := b.selectLocked(themeID, qt)
		out := make([]domain.Question, 0, len(selected))
		for _, q := range selected {
			q.UsedCount++
			q.LastUsed = now
			out = append(out, *q)
		}
		switch qt {
		case domain.OpenEnded:
			batch.Open = out
		case domain.FourChoice:
			batch.Four = out
		case domain.BinaryChoice:
			batch.Binary = out
		}
	}
	return batch, nil
}

func (b *QuestionBank) selectLocked(themeID int64, qt domain.QuestionType) []*domain.Question {
	type candidate struct {
		q   *domain.Question
		tie int
	}
	var pool []candidate
	for _, q := range b.questions {
		if q.ThemeID == themeID && q.Type == qt {
			pool = append(pool, candidate{q: q, tie: b.rnd.Int()})
		}
	}
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].q.UsedCount != pool[j].q.UsedCount {
			return pool[i].q.UsedCount < pool[j].q.UsedCount
		}
		if !pool[i].q.LastUsed.Equal(pool[j].q.LastUsed) {
			return pool[i].q.LastUsed.Before(pool[j].q.LastUsed)
		}
		return pool[i].tie < pool[j].tie
	})

	limit := qt.BatchCap()
	if len(pool) > limit {
		pool = pool[:limit]
	}
	out := make([]*domain.Question, 0, len(pool))
	for _, c := range pool {
		out = append(out, c.q)
	}
	return out
}
