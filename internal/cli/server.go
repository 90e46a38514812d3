package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizrank-service/internal/app"
	"quizrank-service/internal/config"
	"quizrank-service/internal/domain"
	"quizrank-service/internal/infra/memory"
	"quizrank-service/internal/infra/postgres"
	rediscache "quizrank-service/internal/infra/redis"
	transport "quizrank-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the scoring and leaderboard server",
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

	service, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizrank service on :%s", finalPort)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildService wires the use cases onto Postgres/Redis when configured and
// onto the in-memory adapters otherwise.
func buildService(ctx context.Context, cfg config.Config) (*app.QuizService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	lbCfg := cfg.LeaderboardDefaults()
	tieBreak, err := app.TieBreakByName(lbCfg.TieBreak)
	if err != nil {
		return nil, cleanup, err
	}
	opts := app.Options{
		TieBreak: tieBreak,
		Limits: app.RankingLimits{
			Global:        lbCfg.GlobalLimit,
			Quiz:          lbCfg.QuizLimit,
			Window:        lbCfg.WindowLimit,
			TopPerformers: lbCfg.TopPerformersLimit,
			Scan:          lbCfg.RankingScanLimit,
		},
		RecentDays: lbCfg.RecentDays,
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	var (
		loader       memory.QuizLoader
		participants app.ParticipantResolver
		results      app.ResultStore
		agg          app.Aggregator
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, pool.Close)

		db := openBun(cfg.Postgres.URL)
		closers = append(closers, func() { _ = db.Close() })

		loader = postgres.NewQuizLoader(pool)
		participants = postgres.NewParticipantDirectory(pool)
		results = postgres.NewResultStore(db)
		agg = postgres.NewAggregator(pool)
	} else {
		store := memory.NewResultStore()
		loader = memory.NewStaticQuizLoader(sampleQuizzes())
		participants = memory.NewParticipantDirectory(sampleParticipants()...)
		results = store
		agg = app.NewScanAggregator(store)
		log.Printf("postgres not configured, using in-memory stores with sample data")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	return app.NewQuizService(quizRepo, participants, results, agg, opts), cleanup, nil
}

// sampleQuizzes backs the in-memory mode; the Postgres loader replaces it in production.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:              "quiz-1",
			Title:           "Arithmetic basics",
			DurationMinutes: 5,
			Difficulty:      "easy",
			TotalMarks:      3,
			Active:          true,
			Questions: []domain.Question{
				{ID: "q1", QuizID: "quiz-1", Text: "What is 2 + 2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "22", CorrectOption: domain.OptionB, Marks: 1},
				{ID: "q2", QuizID: "quiz-1", Text: "What is 3 x 3?", OptionA: "6", OptionB: "33", OptionC: "9", OptionD: "12", CorrectOption: domain.OptionC, Marks: 2},
			},
		},
	}
}

func sampleParticipants() []domain.Participant {
	return []domain.Participant{
		{ID: "u1", Username: "alice", DisplayName: "Alice"},
		{ID: "u2", Username: "bob", DisplayName: "Bob"},
	}
}
