package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"quizrank-service/internal/domain"
)

var attemptColumns = []string{
	"id", "participant_id", "quiz_id", "participant_name", "quiz_title", "quiz_total_marks",
	"score", "total_questions", "correct_answers", "wrong_answers", "elapsed_seconds", "completed_at",
}

func newMockStore(t *testing.T) (*ResultStore, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return NewResultStore(db), mock
}

func TestSaveAttemptWritesInOneTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	at := domain.Attempt{ID: "a1", ParticipantID: "u1", QuizID: "quiz-1", Score: 2, TotalQuestions: 2, CorrectAnswers: 1, WrongAnswers: 1, CompletedAt: time.Now().UTC()}
	records := []domain.AnswerRecord{
		{ID: "r1", AttemptID: "a1", QuestionID: "q1", SelectedOption: domain.OptionA, Correct: true, MarksObtained: 2},
		{ID: "r2", AttemptID: "a1", QuestionID: "q2"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "attempts"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "answer_records"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := store.SaveAttempt(context.Background(), at, records)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAttemptRollsBackOnAnswerFailure(t *testing.T) {
	store, mock := newMockStore(t)
	at := domain.Attempt{ID: "a1", ParticipantID: "u1", QuizID: "quiz-1", CompletedAt: time.Now().UTC()}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "attempts"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "answer_records"`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := store.SaveAttempt(context.Background(), at, []domain.AnswerRecord{{ID: "r1", AttemptID: "a1", QuestionID: "q1"}})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAttemptNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM "attempts" AS "a" WHERE \(a\.id = 'missing'\)`).
		WillReturnRows(sqlmock.NewRows(attemptColumns))

	_, err := store.GetAttempt(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopAttemptsOrdersByScoreAndCaps(t *testing.T) {
	store, mock := newMockStore(t)
	completed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(attemptColumns).
		AddRow("a2", "u2", "quiz-1", "Bob", "Arithmetic", int64(5), int64(5), int64(2), int64(2), int64(0), int64(30), completed).
		AddRow("a1", "u1", "quiz-1", "Alice", "Arithmetic", int64(5), int64(3), int64(2), int64(1), int64(1), int64(40), completed)
	mock.ExpectQuery(`FROM "attempts" AS "a" ORDER BY a\.score DESC, a\.completed_at ASC, a\.id ASC LIMIT 2`).
		WillReturnRows(rows)

	got, err := store.TopAttempts(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a2", got[0].ID)
	assert.Equal(t, "Bob", got[0].ParticipantName)
	assert.Equal(t, 5, got[0].Score)
	assert.Equal(t, completed, got[1].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopAttemptsUncapped(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE \(a\.quiz_id = 'quiz-1'\) ORDER BY a\.score DESC, a\.completed_at ASC, a\.id ASC$`).
		WillReturnRows(sqlmock.NewRows(attemptColumns))

	got, err := store.TopAttemptsForQuiz(context.Background(), "quiz-1", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByParticipant(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "attempts" AS "a" WHERE \(a\.participant_id = 'u1'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := store.CountByParticipant(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAttemptCascades(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "answer_records" AS "ar" WHERE \(attempt_id = 'a1'\)`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "attempts" AS "a" WHERE \(id = 'a1'\)`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, store.DeleteAttempt(context.Background(), "a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAttemptUnknown(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "answer_records"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "attempts"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.DeleteAttempt(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByParticipantReportsRemovedAttempts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "answer_records" AS "ar" WHERE \(attempt_id IN \(SELECT a\.id FROM "attempts" AS "a" WHERE \(a\.participant_id = 'u1'\)\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 6))
	mock.ExpectExec(`DELETE FROM "attempts" AS "a" WHERE \(participant_id = 'u1'\)`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := store.DeleteByParticipant(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
