package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-duel-service/internal/content"
)

// ThemeRow maps the themes table for bun.
type ThemeRow struct {
	bun.BaseModel `bun:"table:themes"`

	ID   int64  `bun:"theme_id,pk,autoincrement"`
	Name string `bun:"theme_name"`
}

// QuestionRow maps the questions table for bun.
type QuestionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID      int64          `bun:"question_id,pk,autoincrement"`
	ThemeID int64          `bun:"theme_id"`
	Type    string         `bun:"question_type"`
	Prompt  string         `bun:"prompt"`
	Answer  string         `bun:"correct_answer"`
	Wrong1  sql.NullString `bun:"wrong_answer1"`
	Wrong2  sql.NullString `bun:"wrong_answer2"`
	Wrong3  sql.NullString `bun:"wrong_answer3"`
}

// SeedContent loads themes and questions into postgres. Themes are upserted
// by name; questions are inserted only for themes that had no rows yet, so
// re-running the seed does not duplicate content.
func SeedContent(ctx context.Context, db *bun.DB, themes []content.Theme) error {
	for _, theme := range themes {
		row := ThemeRow{Name: theme.Name}
		if _, err := db.NewInsert().
			Model(&row).
			On("CONFLICT (theme_name) DO UPDATE SET theme_name = EXCLUDED.theme_name").
			Returning("theme_id").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert theme %q: %w", theme.Name, err)
		}

		count, err := db.NewSelect().
			Model((*QuestionRow)(nil)).
			Where("theme_id = ?", row.ID).
			Count(ctx)
		if err != nil {
			return fmt.Errorf("count questions for %q: %w", theme.Name, err)
		}
		if count > 0 {
			continue
		}

		rows := make([]QuestionRow, 0, len(theme.Questions))
		for _, q := range theme.Questions {
			rows = append(rows, QuestionRow{
				ThemeID: row.ID,
				Type:    q.Type,
				Prompt:  q.Prompt,
				Answer:  q.Answer,
				Wrong1:  nullString(q.Wrong, 0),
				Wrong2:  nullString(q.Wrong, 1),
				Wrong3:  nullString(q.Wrong, 2),
			})
		}
		if len(rows) == 0 {
			continue
		}
		if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions for %q: %w", theme.Name, err)
		}
	}
	return nil
}

func nullString(values []string, i int) sql.NullString {
	if i >= len(values) {
		return sql.NullString{}
	}
	return sql.NullString{String: values[i], Valid: true}
}
