package app

import (
	"errors"
	"testing"
	"time"

	"quizrank-service/internal/domain"
)

func TestAssignRanksIsSequentialOnTies(t *testing.T) {
	entries := []domain.LeaderboardEntry{{Score: 80}, {Score: 80}, {Score: 60}}
	assignRanks(entries)
	for i, want := range []int{1, 2, 3} {
		if entries[i].Rank != want {
			t.Fatalf("entry %d: expected rank %d, got %d", i, want, entries[i].Rank)
		}
	}
}

func TestPersonalBestAveragesMatchingEntries(t *testing.T) {
	board := []domain.LeaderboardEntry{
		{ParticipantID: "u1", Score: 90},
		{ParticipantID: "u2", Score: 85},
		{ParticipantID: "u1", Score: 70},
	}
	assignRanks(board)

	best, found := personalBest(board, "u1")
	if !found {
		t.Fatalf("expected entry for u1")
	}
	if best.Rank != 1 || best.Score != 80 || best.TotalAttempts != 2 {
		t.Fatalf("expected rank=1 score=80 attempts=2, got %+v", best)
	}

	if _, found := personalBest(board, "nobody"); found {
		t.Fatalf("expected no entry for unknown participant")
	}
}

func TestOrderAttemptsTieBreak(t *testing.T) {
	base := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	attempts := func() []domain.Attempt {
		return []domain.Attempt{
			{ID: "late", Score: 80, CompletedAt: base.Add(time.Hour)},
			{ID: "early", Score: 80, CompletedAt: base},
			{ID: "low", Score: 60, CompletedAt: base},
		}
	}

	literal := attempts()
	orderAttempts(literal, nil)
	if literal[0].ID != "late" || literal[1].ID != "early" {
		t.Fatalf("nil tie-break must keep store order, got %s,%s", literal[0].ID, literal[1].ID)
	}

	byCompletion := attempts()
	orderAttempts(byCompletion, EarliestCompletion)
	if byCompletion[0].ID != "early" || byCompletion[1].ID != "late" || byCompletion[2].ID != "low" {
		t.Fatalf("unexpected order %s,%s,%s", byCompletion[0].ID, byCompletion[1].ID, byCompletion[2].ID)
	}
}

func TestTieBreakByName(t *testing.T) {
	if tb, err := TieBreakByName("none"); err != nil || tb != nil {
		t.Fatalf("expected nil tie-break for none, got err=%v", err)
	}
	if tb, err := TieBreakByName("earliest_completion"); err != nil || tb == nil {
		t.Fatalf("expected earliest completion tie-break, got err=%v", err)
	}
	if _, err := TieBreakByName("coin_flip"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestEntryFromAttemptPercentage(t *testing.T) {
	cases := []struct {
		name    string
		attempt domain.Attempt
		want    float64
	}{
		{"total marks", domain.Attempt{Score: 3, QuizTotalMarks: 4, TotalQuestions: 2}, 75},
		{"falls back to question count", domain.Attempt{Score: 1, TotalQuestions: 4}, 25},
		{"nothing to divide by", domain.Attempt{Score: 5}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := entryFromAttempt(tc.attempt, 1)
			if entry.Percentage != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, entry.Percentage)
			}
		})
	}
}
