package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/config"
	"quiz-duel-service/internal/content"
	"quiz-duel-service/internal/domain"
	"quiz-duel-service/internal/infra/memory"
	pgstore "quiz-duel-service/internal/infra/postgres"
	redisstore "quiz-duel-service/internal/infra/redis"
	transport "quiz-duel-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz-duel server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, time.Hour)
	sessionTTL := config.TTLDuration(cfg.Game.SessionTTL, time.Hour)
	roomTTL := config.TTLDuration(cfg.Duel.RoomTTL, 2*time.Hour)

	var (
		questions app.QuestionRepository
		themes    app.ThemeCatalog
		users     app.CredentialStore
		directory app.UserDirectory
		scores    app.ScoreArchive
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		credentials := pgstore.NewCredentialStore(pool)
		questions = pgstore.NewQuestionRepository(pool)
		themes = memory.NewThemeCache(pgstore.NewThemeCatalog(pool), 10*time.Minute)
		users = credentials
		directory = credentials
		scores = pgstore.NewScoreArchive(pool)
	} else {
		// No database configured: run fully in-memory with the embedded
		// question set, the way the demo and the tests do.
		bank, err := demoBank()
		if err != nil {
			return err
		}
		userStore := memory.NewUserStore()
		questions = bank
		themes = bank
		users = userStore
		directory = userStore
		scores = memory.NewScoreArchive(userStore, bank)
	}

	var sessionStore app.SessionStore
	var roomStore app.RoomStore
	if redisClient != nil {
		sessionStore = redisstore.NewSessionStore(redisClient, redisTTL)
		roomStore = redisstore.NewRoomStore(redisClient, redisTTL)
	} else {
		sessionStore = memory.NewSessionStore()
		roomStore = memory.NewRoomStore()
	}

	games := app.NewGameService(sessionStore, questions, scores)
	duels := app.NewDuelService(roomStore, questions, directory)
	handler := transport.NewHandler(games, duels, users, themes, scores)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	handler.Register(engine)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	sweepDone := make(chan struct{})
	go sweepLoop(sessionStore, roomStore, sessionTTL, roomTTL, sweepDone)

	go func() {
		log.Printf("starting quiz-duel service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}
	close(sweepDone)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sweepLoop periodically evicts idle sessions and rooms. Eviction is a
// service-level policy, not part of the game core.
func sweepLoop(sessions app.SessionStore, rooms app.RoomStore, sessionTTL, roomTTL time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := sessions.SweepIdle(sessionTTL); n > 0 {
				log.Printf("swept %d idle sessions", n)
			}
			if n := rooms.SweepIdle(roomTTL); n > 0 {
				log.Printf("swept %d idle rooms", n)
			}
		case <-done:
			return
		}
	}
}

// demoBank builds an in-memory question bank from the embedded seed set.
func demoBank() (*memory.QuestionBank, error) {
	themes, err := content.Default()
	if err != nil {
		return nil, err
	}

	bank := memory.NewQuestionBank()
	for _, theme := range themes {
		themeID := bank.AddTheme(theme.Name)
		for _, q := range theme.Questions {
			bank.AddQuestion(domain.Question{
				ThemeID:      themeID,
				Type:         domain.QuestionType(q.Type),
				Prompt:       q.Prompt,
				Answer:       q.Answer,
				WrongAnswers: q.Wrong,
			})
		}
	}
	return bank, nil
}
