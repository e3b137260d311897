package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/domain"
)

type scoreEntry struct {
	userID    string
	themeID   int64
	score     int
	totalTime float64
	playedAt  time.Time
}

// ScoreArchive is an in-memory implementation of app.ScoreArchive. Usernames
// and theme names are resolved at query time, mirroring the SQL joins of the
// postgres archive.
type ScoreArchive struct {
	users  app.UserDirectory
	themes app.ThemeCatalog

	mu      sync.Mutex
	entries []scoreEntry
}

func NewScoreArchive(users app.UserDirectory, themes app.ThemeCatalog) *ScoreArchive {
	return &ScoreArchive{users: users, themes: themes}
}

func (a *ScoreArchive) RecordScore(_ context.Context, userID string, themeID int64, score int, totalTime float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, scoreEntry{
		userID:    userID,
		themeID:   themeID,
		score:     score,
		totalTime: totalTime,
		playedAt:  time.Now(),
	})
	return nil
}

// TopScores ranks by score descending, then faster total time. themeID <= 0
// queries across all themes.
func (a *ScoreArchive) TopScores(ctx context.Context, themeID int64, limit int) ([]domain.ScoreRow, error) {
	a.mu.Lock()
	entries := make([]scoreEntry, 0, len(a.entries))
	for _, e := range a.entries {
		if themeID > 0 && e.themeID != themeID {
			continue
		}
		entries = append(entries, e)
	}
	a.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].totalTime < entries[j].totalTime
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	themeNames := map[int64]string{}
	if a.themes != nil {
		themes, err := a.themes.ListThemes(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range themes {
			themeNames[t.ID] = t.Name
		}
	}

	rows := make([]domain.ScoreRow, 0, len(entries))
	for _, e := range entries {
		name, err := a.users.Username(ctx, e.userID)
		if err != nil {
			continue
		}
		rows = append(rows, domain.ScoreRow{
			Username:  name,
			Theme:     themeNames[e.themeID],
			Score:     e.score,
			TotalTime: e.totalTime,
		})
	}
	return rows, nil
}
