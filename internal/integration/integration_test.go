package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/content"
	pgstore "quiz-duel-service/internal/infra/postgres"
	pgmigrations "quiz-duel-service/internal/infra/postgres/migrations"
	infraredis "quiz-duel-service/internal/infra/redis"
)

func TestGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateAndSeed(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	credentials := pgstore.NewCredentialStore(pool)
	questions := pgstore.NewQuestionRepository(pool)
	themes := pgstore.NewThemeCatalog(pool)
	scores := pgstore.NewScoreArchive(pool)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	rooms := infraredis.NewRoomStore(redisClient, 5*time.Minute)

	games := app.NewGameService(sessions, questions, scores)
	duels := app.NewDuelService(rooms, questions, credentials)

	userID, err := credentials.Create(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := credentials.Verify(ctx, "alice", "secret"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	catalog, err := themes.ListThemes(ctx)
	if err != nil {
		t.Fatalf("list themes: %v", err)
	}
	if len(catalog) == 0 {
		t.Fatalf("expected seeded themes")
	}
	themeID := catalog[0].ID

	started, err := games.Start(ctx, themeID, userID)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if started.TotalQuestions == 0 {
		t.Fatalf("expected a dealt batch")
	}

	// Play the whole run as timeouts and check the archived score.
	var finished bool
	for i := 0; i < started.TotalQuestions; i++ {
		result, err := games.SubmitAnswer(ctx, started.SessionID, nil, nil)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		finished = result.Finished
	}
	if !finished {
		t.Fatalf("expected the run to finish")
	}

	rows, err := scores.TopScores(ctx, themeID, 10)
	if err != nil {
		t.Fatalf("top scores: %v", err)
	}
	if len(rows) != 1 || rows[0].Username != "alice" || rows[0].Score != 0 {
		t.Fatalf("expected archived all-timeout run, got %+v", rows)
	}

	// A second deal prefers the questions the first one left untouched.
	second, err := games.Start(ctx, themeID, userID)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if second.TotalQuestions == 0 {
		t.Fatalf("expected a second batch")
	}

	// Duel rooms work over the same stores.
	guestID, err := credentials.Create(ctx, "bob", "secret")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}
	code, err := duels.CreateRoom(ctx, themeID, userID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := duels.JoinRoom(ctx, code, guestID); err != nil {
		t.Fatalf("join room: %v", err)
	}
	duel, err := duels.StartDuel(ctx, code, userID)
	if err != nil {
		t.Fatalf("start duel: %v", err)
	}
	if duel.TotalQuestions == 0 {
		t.Fatalf("expected a duel batch")
	}
}

func migrateAndSeed(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	themes, err := content.Default()
	if err != nil {
		t.Fatalf("default content: %v", err)
	}
	if err := pgstore.SeedContent(ctx, db, themes); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
