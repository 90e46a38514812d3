package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizrank-service/internal/domain"
)

// QuizLoader loads the quiz read model (quiz row plus ordered questions) from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.pool.QueryRow(ctx,
		`SELECT id, title, duration_minutes, difficulty, total_marks, active FROM quizzes WHERE id=$1`,
		quizID,
	).Scan(&quiz.ID, &quiz.Title, &quiz.DurationMinutes, &quiz.Difficulty, &quiz.TotalMarks, &quiz.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx,
		`SELECT id, quiz_id, text, option_a, option_b, option_c, option_d, correct_option, marks
		   FROM questions WHERE quiz_id=$1 ORDER BY position, id`,
		quizID,
	)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q       domain.Question
			correct string
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &correct, &q.Marks); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		q.CorrectOption = domain.OptionTag(correct)
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	return quiz, nil
}

// ParticipantDirectory resolves usernames against the participants table.
type ParticipantDirectory struct {
	pool *pgxpool.Pool
}

func NewParticipantDirectory(pool *pgxpool.Pool) *ParticipantDirectory {
	return &ParticipantDirectory{pool: pool}
}

func (d *ParticipantDirectory) ResolveParticipant(ctx context.Context, username string) (domain.Participant, error) {
	var p domain.Participant
	err := d.pool.QueryRow(ctx,
		`SELECT id, username, display_name FROM participants WHERE username=$1`,
		username,
	).Scan(&p.ID, &p.Username, &p.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("resolve participant: %w", err)
	}
	return p, nil
}
