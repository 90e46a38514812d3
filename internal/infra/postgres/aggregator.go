package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizrank-service/internal/domain"
)

// Aggregator computes rollups with GROUP BY queries instead of loading every
// attempt. Results match the in-memory scan aggregator, including the
// zero-valued summaries for empty sets and the ordering of each rollup.
type Aggregator struct {
	pool *pgxpool.Pool
}

func NewAggregator(pool *pgxpool.Pool) *Aggregator {
	return &Aggregator{pool: pool}
}

// percentageExpr mirrors Attempt.Percentage.
const percentageExpr = `CASE
	WHEN quiz_total_marks > 0 THEN score::float8 / quiz_total_marks * 100
	WHEN total_questions > 0 THEN score::float8 / total_questions * 100
	ELSE 0 END`

func (a *Aggregator) Summary(ctx context.Context) (domain.AttemptSummary, error) {
	var s domain.AttemptSummary
	err := a.pool.QueryRow(ctx, `
		SELECT COUNT(*)::int,
		       COUNT(DISTINCT participant_id)::int,
		       COALESCE(AVG(score), 0)::float8,
		       COALESCE(MAX(score), 0)::int
		  FROM attempts`,
	).Scan(&s.TotalAttempts, &s.TotalParticipants, &s.AverageScore, &s.HighestScore)
	if err != nil {
		return domain.AttemptSummary{}, fmt.Errorf("attempt summary: %w", err)
	}
	return s, nil
}

func (a *Aggregator) ParticipantSummary(ctx context.Context, participantID string) (domain.ParticipantSummary, error) {
	s := domain.ParticipantSummary{ParticipantID: participantID}
	err := a.pool.QueryRow(ctx, `
		SELECT COUNT(*)::int, COALESCE(AVG(score), 0)::float8, COALESCE(MAX(score), 0)::int
		  FROM attempts WHERE participant_id=$1`,
		participantID,
	).Scan(&s.Attempts, &s.AverageScore, &s.BestScore)
	if err != nil {
		return domain.ParticipantSummary{}, fmt.Errorf("participant summary: %w", err)
	}
	return s, nil
}

func (a *Aggregator) ParticipantRollups(ctx context.Context, since time.Time) ([]domain.ParticipantRollup, error) {
	var sinceArg interface{}
	if !since.IsZero() {
		sinceArg = since
	}
	rows, err := a.pool.Query(ctx, `
		SELECT participant_id,
		       (array_agg(participant_name ORDER BY completed_at DESC))[1],
		       COUNT(*)::int,
		       SUM(score)::int,
		       AVG(score)::float8,
		       AVG(`+percentageExpr+`)::float8,
		       MAX(completed_at)
		  FROM attempts
		 WHERE $1::timestamptz IS NULL OR completed_at >= $1
		 GROUP BY participant_id
		 ORDER BY COUNT(*) DESC, participant_id`,
		sinceArg,
	)
	if err != nil {
		return nil, fmt.Errorf("participant rollups: %w", err)
	}
	defer rows.Close()

	rollups := make([]domain.ParticipantRollup, 0)
	for rows.Next() {
		var r domain.ParticipantRollup
		if err := rows.Scan(&r.ParticipantID, &r.ParticipantName, &r.Attempts, &r.TotalScore,
			&r.AverageScore, &r.AveragePercentage, &r.LastActivity); err != nil {
			return nil, fmt.Errorf("scan participant rollup: %w", err)
		}
		rollups = append(rollups, r)
	}
	return rollups, rows.Err()
}

func (a *Aggregator) QuizRollups(ctx context.Context) ([]domain.QuizRollup, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT quiz_id,
		       (array_agg(quiz_title ORDER BY completed_at DESC))[1],
		       COUNT(*)::int,
		       AVG(score)::float8,
		       MAX(score)::int,
		       MIN(score)::int
		  FROM attempts
		 GROUP BY quiz_id
		 ORDER BY COUNT(*) DESC, quiz_id`)
	if err != nil {
		return nil, fmt.Errorf("quiz rollups: %w", err)
	}
	defer rows.Close()

	rollups := make([]domain.QuizRollup, 0)
	for rows.Next() {
		var r domain.QuizRollup
		if err := rows.Scan(&r.QuizID, &r.QuizTitle, &r.Attempts, &r.AverageScore, &r.MaxScore, &r.MinScore); err != nil {
			return nil, fmt.Errorf("scan quiz rollup: %w", err)
		}
		rollups = append(rollups, r)
	}
	return rollups, rows.Err()
}

func (a *Aggregator) QuizHistory(ctx context.Context, participantID string) ([]domain.QuizHistoryRollup, error) {
	rows, err := a.pool.Query(ctx, `
		WITH latest AS (
			SELECT score, total_questions
			  FROM attempts
			 WHERE participant_id=$1
			 ORDER BY completed_at DESC, id DESC
			 LIMIT 1
		)
		SELECT g.quiz_id, g.quiz_title, g.quiz_total_marks, latest.total_questions,
		       g.attempts, g.best, g.average, latest.score, g.first_at, g.last_at
		  FROM (
			SELECT quiz_id,
			       (array_agg(quiz_title ORDER BY completed_at DESC))[1] AS quiz_title,
			       (array_agg(quiz_total_marks ORDER BY completed_at DESC))[1] AS quiz_total_marks,
			       COUNT(*)::int AS attempts,
			       MAX(score)::int AS best,
			       AVG(score)::float8 AS average,
			       MIN(completed_at) AS first_at,
			       MAX(completed_at) AS last_at
			  FROM attempts
			 WHERE participant_id=$1
			 GROUP BY quiz_id
		  ) g
		 CROSS JOIN latest
		 ORDER BY g.last_at DESC, g.quiz_id`,
		participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("quiz history: %w", err)
	}
	defer rows.Close()

	rollups := make([]domain.QuizHistoryRollup, 0)
	for rows.Next() {
		var r domain.QuizHistoryRollup
		if err := rows.Scan(&r.QuizID, &r.QuizTitle, &r.QuizTotalMarks, &r.TotalQuestions, &r.Attempts,
			&r.BestScore, &r.AverageScore, &r.LatestScore, &r.FirstAttempt, &r.LastAttempt); err != nil {
			return nil, fmt.Errorf("scan quiz history: %w", err)
		}
		rollups = append(rollups, r)
	}
	return rollups, rows.Err()
}
