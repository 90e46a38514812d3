package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quizrank-service/internal/domain"
)

// ResultStore persists attempts and answer records with bun. Ties in score
// fall back to completion time, which is insertion order for the scorer.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

const scoreOrder = "a.score DESC, a.completed_at ASC, a.id ASC"

func (s *ResultStore) SaveAttempt(ctx context.Context, attempt domain.Attempt, answers []domain.AnswerRecord) error {
	row := toAttemptRow(attempt)
	records := toAnswerRows(answers)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&records).Exec(ctx); err != nil {
			return fmt.Errorf("insert answer records: %w", err)
		}
		return nil
	})
}

func (s *ResultStore) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var row attemptRow
	err := s.db.NewSelect().Model(&row).Where("a.id = ?", attemptID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return row.toDomain(), nil
}

func (s *ResultStore) AnswersForAttempt(ctx context.Context, attemptID string) ([]domain.AnswerRecord, error) {
	var rows []answerRow
	err := s.db.NewSelect().Model(&rows).
		Where("ar.attempt_id = ?", attemptID).
		Order("ar.position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("answers for attempt: %w", err)
	}
	records := make([]domain.AnswerRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toDomain())
	}
	return records, nil
}

func (s *ResultStore) AllAttempts(ctx context.Context) ([]domain.Attempt, error) {
	return s.selectAttempts(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("a.completed_at ASC, a.id ASC")
	})
}

func (s *ResultStore) TopAttempts(ctx context.Context, limit int) ([]domain.Attempt, error) {
	return s.selectAttempts(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return withLimit(q.OrderExpr(scoreOrder), limit)
	})
}

func (s *ResultStore) TopAttemptsForQuiz(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	return s.selectAttempts(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return withLimit(q.Where("a.quiz_id = ?", quizID).OrderExpr(scoreOrder), limit)
	})
}

func (s *ResultStore) TopAttemptsSince(ctx context.Context, since time.Time, limit int) ([]domain.Attempt, error) {
	return s.selectAttempts(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return withLimit(q.Where("a.completed_at >= ?", since).OrderExpr(scoreOrder), limit)
	})
}

func (s *ResultStore) AttemptsByParticipant(ctx context.Context, participantID string) ([]domain.Attempt, error) {
	return s.selectAttempts(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("a.participant_id = ?", participantID).OrderExpr("a.completed_at DESC, a.id DESC")
	})
}

func (s *ResultStore) CountByParticipant(ctx context.Context, participantID string) (int, error) {
	n, err := s.db.NewSelect().Model((*attemptRow)(nil)).
		Where("a.participant_id = ?", participantID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (s *ResultStore) DeleteAttempt(ctx context.Context, attemptID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*answerRow)(nil)).Where("attempt_id = ?", attemptID).Exec(ctx); err != nil {
			return fmt.Errorf("delete answer records: %w", err)
		}
		res, err := tx.NewDelete().Model((*attemptRow)(nil)).Where("id = ?", attemptID).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete attempt: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrAttemptNotFound
		}
		return nil
	})
}

func (s *ResultStore) DeleteByParticipant(ctx context.Context, participantID string) (int, error) {
	var removed int64
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		owned := tx.NewSelect().Model((*attemptRow)(nil)).ColumnExpr("a.id").Where("a.participant_id = ?", participantID)
		if _, err := tx.NewDelete().Model((*answerRow)(nil)).Where("attempt_id IN (?)", owned).Exec(ctx); err != nil {
			return fmt.Errorf("delete answer records: %w", err)
		}
		res, err := tx.NewDelete().Model((*attemptRow)(nil)).Where("participant_id = ?", participantID).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete attempts: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

func (s *ResultStore) selectAttempts(ctx context.Context, apply func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.Attempt, error) {
	var rows []attemptRow
	if err := apply(s.db.NewSelect().Model(&rows)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select attempts: %w", err)
	}
	return attemptsToDomain(rows), nil
}

func withLimit(q *bun.SelectQuery, limit int) *bun.SelectQuery {
	if limit > 0 {
		return q.Limit(limit)
	}
	return q
}
