package app

import (
	"strconv"
	"testing"

	"quizrank-service/internal/domain"
)

func TestScoreAnswersMixedOutcome(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", CorrectOption: domain.OptionA, Marks: 2},
		{ID: "q2", CorrectOption: domain.OptionB, Marks: 3},
	}
	answers := map[string]domain.OptionTag{"q1": "A", "q2": "C"}

	card := scoreAnswers("attempt-1", questions, answers, sequentialIDs())

	if card.score != 2 || card.correct != 1 || card.wrong != 1 {
		t.Fatalf("expected score=2 correct=1 wrong=1, got %+v", card)
	}
	if len(card.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(card.records))
	}
	if !card.records[0].Correct || card.records[0].MarksObtained != 2 {
		t.Fatalf("unexpected q1 record %+v", card.records[0])
	}
	if card.records[1].Correct || card.records[1].MarksObtained != 0 || card.records[1].SelectedOption != "C" {
		t.Fatalf("unexpected q2 record %+v", card.records[1])
	}
	for _, rec := range card.records {
		if rec.AttemptID != "attempt-1" {
			t.Fatalf("record not tied to attempt: %+v", rec)
		}
	}
}

func TestScoreAnswersSkippedAndCaseSensitive(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", CorrectOption: domain.OptionA, Marks: 1},
		{ID: "q2", CorrectOption: domain.OptionD, Marks: 1},
		{ID: "q3", CorrectOption: domain.OptionC, Marks: 4},
	}
	// q2 skipped, q3 answered with a lower-case tag.
	answers := map[string]domain.OptionTag{"q1": "A", "q3": "c", "unknown": "A"}

	card := scoreAnswers("attempt-1", questions, answers, sequentialIDs())

	if card.score != 1 || card.correct != 1 || card.wrong != 2 {
		t.Fatalf("expected score=1 correct=1 wrong=2, got %+v", card)
	}
	if len(card.records) != len(questions) {
		t.Fatalf("expected one record per question, got %d", len(card.records))
	}
	if card.records[1].SelectedOption != "" {
		t.Fatalf("skipped question should have empty selection, got %q", card.records[1].SelectedOption)
	}
}

func TestScoreEqualsSumOfRecordMarks(t *testing.T) {
	questions := make([]domain.Question, 0, 8)
	total := 0
	for i := 0; i < 8; i++ {
		q := domain.Question{ID: "q" + strconv.Itoa(i), CorrectOption: domain.OptionB, Marks: i + 1}
		total += q.Marks
		questions = append(questions, q)
	}
	answers := map[string]domain.OptionTag{"q0": "B", "q3": "B", "q5": "A", "q7": "B"}

	card := scoreAnswers("attempt-1", questions, answers, sequentialIDs())

	sum := 0
	for _, rec := range card.records {
		sum += rec.MarksObtained
	}
	if sum != card.score {
		t.Fatalf("score %d != sum of marks %d", card.score, sum)
	}
	if card.score < 0 || card.score > total {
		t.Fatalf("score %d outside [0,%d]", card.score, total)
	}
	if card.correct+card.wrong != len(questions) {
		t.Fatalf("counts do not cover every question: %+v", card)
	}
}

func TestBuildReviewsWithoutQuestionText(t *testing.T) {
	records := []domain.AnswerRecord{{QuestionID: "gone", SelectedOption: "A", Correct: true, MarksObtained: 2}}
	reviews := buildReviews(nil, records)
	if len(reviews) != 1 || reviews[0].Text != "" || reviews[0].MarksObtained != 2 {
		t.Fatalf("unexpected reviews %+v", reviews)
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
}
