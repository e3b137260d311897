package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-duel-service/internal/config"
	"quiz-duel-service/internal/content"
	"quiz-duel-service/internal/infra/postgres"
)

// NewSeedCmd loads themes and questions into postgres, either from the
// embedded default set or from a YAML file passed with --file.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load themes and questions into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML question file (defaults to the embedded set)")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	themes, err := loadThemes(file)
	if err != nil {
		return err
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	if err := postgres.SeedContent(ctx, db, themes); err != nil {
		return err
	}

	total := 0
	for _, t := range themes {
		total += len(t.Questions)
	}
	log.Printf("seeded %d themes, %d questions", len(themes), total)
	return nil
}

func loadThemes(file string) ([]content.Theme, error) {
	if file == "" {
		return content.Default()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return content.Parse(data)
}
