package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"quizrank-service/internal/config"
	"quizrank-service/internal/domain"
	"quizrank-service/internal/infra/postgres"
	rediscache "quizrank-service/internal/infra/redis"
)

// fixtures is the YAML layout accepted by `seed`.
type fixtures struct {
	Participants []struct {
		ID          string `yaml:"id"`
		Username    string `yaml:"username"`
		DisplayName string `yaml:"display_name"`
	} `yaml:"participants"`
	Quizzes []struct {
		ID              string `yaml:"id"`
		Title           string `yaml:"title"`
		DurationMinutes int    `yaml:"duration_minutes"`
		Difficulty      string `yaml:"difficulty"`
		TotalMarks      int    `yaml:"total_marks"`
		Active          *bool  `yaml:"active"`
		Questions       []struct {
			ID      string    `yaml:"id"`
			Text    string    `yaml:"text"`
			Options [4]string `yaml:"options"`
			Correct string    `yaml:"correct"`
			Marks   int       `yaml:"marks"`
		} `yaml:"questions"`
	} `yaml:"quizzes"`
}

// NewSeedCmd loads quizzes and participants from a YAML file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load quizzes and participants into Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			fx, err := loadFixtures(args[0])
			if err != nil {
				return err
			}
			return seed(cmd.Context(), cfg, fx)
		},
	}
}

func loadFixtures(path string) (fixtures, error) {
	var fx fixtures
	data, err := os.ReadFile(path)
	if err != nil {
		return fx, err
	}
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fx, fmt.Errorf("parse fixtures: %w", err)
	}
	return fx, nil
}

func (fx fixtures) toDomain() ([]domain.Participant, []domain.Quiz, error) {
	participants := make([]domain.Participant, 0, len(fx.Participants))
	for _, p := range fx.Participants {
		participants = append(participants, domain.Participant{ID: p.ID, Username: p.Username, DisplayName: p.DisplayName})
	}

	quizzes := make([]domain.Quiz, 0, len(fx.Quizzes))
	for _, q := range fx.Quizzes {
		quiz := domain.Quiz{
			ID:              q.ID,
			Title:           q.Title,
			DurationMinutes: q.DurationMinutes,
			Difficulty:      q.Difficulty,
			TotalMarks:      q.TotalMarks,
			Active:          q.Active == nil || *q.Active,
		}
		sum := 0
		for _, qq := range q.Questions {
			tag := domain.OptionTag(qq.Correct)
			switch tag {
			case domain.OptionA, domain.OptionB, domain.OptionC, domain.OptionD:
			default:
				return nil, nil, fmt.Errorf("%w: question %s has correct option %q", domain.ErrInvalidInput, qq.ID, qq.Correct)
			}
			marks := qq.Marks
			if marks <= 0 {
				marks = 1
			}
			sum += marks
			quiz.Questions = append(quiz.Questions, domain.Question{
				ID:            qq.ID,
				QuizID:        q.ID,
				Text:          qq.Text,
				OptionA:       qq.Options[0],
				OptionB:       qq.Options[1],
				OptionC:       qq.Options[2],
				OptionD:       qq.Options[3],
				CorrectOption: tag,
				Marks:         marks,
			})
		}
		if quiz.TotalMarks == 0 {
			quiz.TotalMarks = sum
		}
		quizzes = append(quizzes, quiz)
	}
	return participants, quizzes, nil
}

func seed(ctx context.Context, cfg config.Config, fx fixtures) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	participants, quizzes, err := fx.toDomain()
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	catalog := postgres.NewCatalog(pool)
	for _, p := range participants {
		if err := catalog.SaveParticipant(ctx, p); err != nil {
			return err
		}
	}
	for _, q := range quizzes {
		if err := catalog.SaveQuiz(ctx, q); err != nil {
			return err
		}
	}
	log.Printf("seeded %d participants and %d quizzes", len(participants), len(quizzes))

	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()
	cache := rediscache.NewQuizRepository(client, postgres.NewQuizLoader(pool), 0)
	for _, q := range quizzes {
		if err := cache.Invalidate(ctx, q.ID); err != nil {
			log.Printf("seed: invalidate cached quiz %s: %v", q.ID, err)
		}
	}
	return nil
}
