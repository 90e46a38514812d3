package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizrank-service/internal/domain"
)

func TestResultStoreOrdersByScoreKeepingInsertionOrderOnTies(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()
	base := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

	mustSave(t, store, attempt("a1", "u1", "quiz-1", 80, base))
	mustSave(t, store, attempt("a2", "u2", "quiz-1", 60, base.Add(time.Minute)))
	mustSave(t, store, attempt("a3", "u3", "quiz-2", 80, base.Add(2*time.Minute)))

	top, err := store.TopAttempts(ctx, 0)
	if err != nil {
		t.Fatalf("top attempts: %v", err)
	}
	if got := ids(top); got != "a1,a3,a2" {
		t.Fatalf("unexpected order %s", got)
	}

	capped, _ := store.TopAttempts(ctx, 2)
	if len(capped) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(capped))
	}

	forQuiz, _ := store.TopAttemptsForQuiz(ctx, "quiz-1", 10)
	if got := ids(forQuiz); got != "a1,a2" {
		t.Fatalf("unexpected quiz order %s", got)
	}

	since, _ := store.TopAttemptsSince(ctx, base.Add(time.Minute), 10)
	if got := ids(since); got != "a3,a2" {
		t.Fatalf("unexpected window order %s", got)
	}
}

func TestResultStoreParticipantQueries(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()
	base := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

	mustSave(t, store, attempt("a1", "u1", "quiz-1", 10, base))
	mustSave(t, store, attempt("a2", "u1", "quiz-2", 30, base.Add(time.Hour)))
	mustSave(t, store, attempt("a3", "u2", "quiz-1", 20, base))

	history, _ := store.AttemptsByParticipant(ctx, "u1")
	if got := ids(history); got != "a2,a1" {
		t.Fatalf("expected newest first, got %s", got)
	}
	count, _ := store.CountByParticipant(ctx, "u1")
	if count != 2 {
		t.Fatalf("expected 2 attempts, got %d", count)
	}
}

func TestResultStoreDeleteCascadesToAnswers(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()
	base := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

	mustSave(t, store, attempt("a1", "u1", "quiz-1", 10, base))
	mustSave(t, store, attempt("a2", "u1", "quiz-1", 20, base))
	mustSave(t, store, attempt("a3", "u2", "quiz-1", 30, base))

	removed, err := store.DeleteByParticipant(ctx, "u1")
	if err != nil || removed != 2 {
		t.Fatalf("expected 2 removed, got %d (%v)", removed, err)
	}
	if store.AnswerCount() != 1 {
		t.Fatalf("expected only u2's answer left, got %d", store.AnswerCount())
	}
	if _, err := store.GetAttempt(ctx, "a1"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected a1 gone, got %v", err)
	}

	if err := store.DeleteAttempt(ctx, "a3"); err != nil {
		t.Fatalf("delete attempt: %v", err)
	}
	if store.AnswerCount() != 0 {
		t.Fatalf("expected no answers left, got %d", store.AnswerCount())
	}
	if err := store.DeleteAttempt(ctx, "a3"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func mustSave(t *testing.T, store *ResultStore, at domain.Attempt) {
	t.Helper()
	records := []domain.AnswerRecord{{ID: at.ID + "-r1", AttemptID: at.ID, QuestionID: "q1"}}
	if err := store.SaveAttempt(context.Background(), at, records); err != nil {
		t.Fatalf("save %s: %v", at.ID, err)
	}
}

func attempt(id, participantID, quizID string, score int, completedAt time.Time) domain.Attempt {
	return domain.Attempt{
		ID:              id,
		ParticipantID:   participantID,
		ParticipantName: participantID,
		QuizID:          quizID,
		QuizTitle:       quizID,
		QuizTotalMarks:  100,
		Score:           score,
		TotalQuestions:  10,
		CompletedAt:     completedAt,
	}
}

func ids(attempts []domain.Attempt) string {
	out := ""
	for i, at := range attempts {
		if i > 0 {
			out += ","
		}
		out += at.ID
	}
	return out
}
