package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-duel-service/internal/domain"
)

// QuestionRepository deals question batches from postgres. Selection and the
// usage-counter update run in one transaction, so two games sharing a theme
// cannot lose increments to each other.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const selectQuestionsStmt = `
SELECT question_id, theme_id, question_type, prompt, correct_answer,
       wrong_answer1, wrong_answer2, wrong_answer3,
       used_count, COALESCE(last_used, to_timestamp(0))
FROM questions
WHERE theme_id = $1 AND question_type = $2
ORDER BY used_count ASC, last_used ASC NULLS FIRST, random()
LIMIT $3`

const bumpUsageStmt = `
UPDATE questions
SET used_count = used_count + 1, last_used = now()
WHERE question_id = ANY($1)`

// SelectBatch implements app.QuestionRepository. An unknown theme yields an
// empty batch rather than an error; the caller decides whether that is fatal.
func (r *QuestionRepository) SelectBatch(ctx context.Context, themeID int64) (domain.Batch, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := domain.Batch{}
	for _, qt := range domain.QuestionTypes() {
		selected, err := selectByType(ctx, tx, themeID, qt)
		if err != nil {
			return domain.Batch{}, err
		}
		if len(selected) > 0 {
			ids := make([]int64, 0, len(selected))
			for _, q := range selected {
				ids = append(ids, q.ID)
			}
			if _, err := tx.Exec(ctx, bumpUsageStmt, ids); err != nil {
				return domain.Batch{}, fmt.Errorf("bump usage: %w", err)
			}
		}
		switch qt {
		case domain.OpenEnded:
			batch.Open = selected
		case domain.FourChoice:
			batch.Four = selected
		case domain.BinaryChoice:
			batch.Binary = selected
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Batch{}, fmt.Errorf("commit: %w", err)
	}
	return batch, nil
}

func selectByType(ctx context.Context, tx pgx.Tx, themeID int64, qt domain.QuestionType) ([]domain.Question, error) {
	rows, err := tx.Query(ctx, selectQuestionsStmt, themeID, string(qt), qt.BatchCap())
	if err != nil {
		return nil, fmt.Errorf("select %s questions: %w", qt, err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var (
			q        domain.Question
			qType    string
			wrong    [3]*string
			lastUsed time.Time
		)
		if err := rows.Scan(&q.ID, &q.ThemeID, &qType, &q.Prompt, &q.Answer,
			&wrong[0], &wrong[1], &wrong[2], &q.UsedCount, &lastUsed); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Type = domain.QuestionType(qType)
		q.LastUsed = lastUsed
		for _, w := range wrong {
			if w != nil {
				q.WrongAnswers = append(q.WrongAnswers, *w)
			}
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
