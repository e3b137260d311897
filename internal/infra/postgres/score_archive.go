package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-duel-service/internal/domain"
)

// ScoreArchive persists finished runs and serves the leaderboard.
type ScoreArchive struct {
	pool *pgxpool.Pool
}

func NewScoreArchive(pool *pgxpool.Pool) *ScoreArchive {
	return &ScoreArchive{pool: pool}
}

func (a *ScoreArchive) RecordScore(ctx context.Context, userID string, themeID int64, score int, totalTime float64) error {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return domain.ErrUserNotFound
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO scores (user_id, theme_id, score, total_time) VALUES ($1, $2, $3, $4)`,
		id, themeID, score, totalTime)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

const topScoresThemedStmt = `
SELECT users.username, themes.theme_name, scores.score, scores.total_time
FROM scores
JOIN users ON scores.user_id = users.user_id
JOIN themes ON scores.theme_id = themes.theme_id
WHERE scores.theme_id = $1
ORDER BY scores.score DESC, scores.total_time ASC
LIMIT $2`

const topScoresGlobalStmt = `
SELECT users.username, themes.theme_name, scores.score, scores.total_time
FROM scores
JOIN users ON scores.user_id = users.user_id
JOIN themes ON scores.theme_id = themes.theme_id
ORDER BY scores.score DESC, scores.total_time ASC
LIMIT $1`

// TopScores ranks by score descending, then faster total time. themeID <= 0
// queries across all themes.
func (a *ScoreArchive) TopScores(ctx context.Context, themeID int64, limit int) ([]domain.ScoreRow, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if themeID > 0 {
		rows, err = a.pool.Query(ctx, topScoresThemedStmt, themeID, limit)
	} else {
		rows, err = a.pool.Query(ctx, topScoresGlobalStmt, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("select scores: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoreRow
	for rows.Next() {
		var row domain.ScoreRow
		if err := rows.Scan(&row.Username, &row.Theme, &row.Score, &row.TotalTime); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
