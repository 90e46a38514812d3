package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizrank-service/internal/domain"
)

// Catalog writes quiz content and participants. Quiz authoring lives outside
// this service; Catalog backs the seed command and integration tests.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// SaveQuiz upserts the quiz row and replaces its questions.
func (c *Catalog) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	return c.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO quizzes (id, title, duration_minutes, difficulty, total_marks, active)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
			    title = EXCLUDED.title,
			    duration_minutes = EXCLUDED.duration_minutes,
			    difficulty = EXCLUDED.difficulty,
			    total_marks = EXCLUDED.total_marks,
			    active = EXCLUDED.active`,
			quiz.ID, quiz.Title, quiz.DurationMinutes, quiz.Difficulty, quiz.TotalMarks, quiz.Active)
		if err != nil {
			return fmt.Errorf("upsert quiz %s: %w", quiz.ID, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE quiz_id=$1`, quiz.ID); err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}

		batch := &pgx.Batch{}
		for i, q := range quiz.Questions {
			batch.Queue(`
				INSERT INTO questions (id, quiz_id, position, text, option_a, option_b, option_c, option_d, correct_option, marks)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				q.ID, quiz.ID, i, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, string(q.CorrectOption), q.Marks)
		}
		br := tx.SendBatch(ctx, batch)
		for range quiz.Questions {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert question: %w", err)
			}
		}
		return br.Close()
	})
}

func (c *Catalog) SaveParticipant(ctx context.Context, p domain.Participant) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO participants (id, username, display_name) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, display_name = EXCLUDED.display_name`,
		p.ID, p.Username, p.DisplayName)
	if err != nil {
		return fmt.Errorf("upsert participant %s: %w", p.Username, err)
	}
	return nil
}
