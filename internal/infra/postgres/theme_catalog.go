package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-duel-service/internal/domain"
)

// ThemeCatalog lists question categories from postgres.
type ThemeCatalog struct {
	pool *pgxpool.Pool
}

func NewThemeCatalog(pool *pgxpool.Pool) *ThemeCatalog {
	return &ThemeCatalog{pool: pool}
}

func (c *ThemeCatalog) ListThemes(ctx context.Context) ([]domain.Theme, error) {
	rows, err := c.pool.Query(ctx, `SELECT theme_id, theme_name FROM themes ORDER BY theme_id`)
	if err != nil {
		return nil, fmt.Errorf("select themes: %w", err)
	}
	defer rows.Close()

	var themes []domain.Theme
	for rows.Next() {
		var t domain.Theme
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}
