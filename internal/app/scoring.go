package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizrank-service/internal/domain"
)

// Scorer turns a submission into a persisted attempt snapshot. It is the only
// place that computes score, correct and wrong counts.
type Scorer struct {
	quizzes      QuizRepository
	participants ParticipantResolver
	results      ResultStore
	now          func() time.Time
	newID        func() string
}

// NewScorer stamps CompletedAt from now, or time.Now when now is nil.
func NewScorer(quizzes QuizRepository, participants ParticipantResolver, results ResultStore, now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{
		quizzes:      quizzes,
		participants: participants,
		results:      results,
		now:          now,
		newID:        uuid.NewString,
	}
}

// Submit scores the answers against the quiz's current questions and stores
// the snapshot together with one answer record per question. Nothing is
// written when the quiz or participant cannot be resolved.
func (s *Scorer) Submit(ctx context.Context, sub domain.Submission) (domain.AttemptResult, error) {
	if strings.TrimSpace(sub.Username) == "" {
		return domain.AttemptResult{}, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, sub.QuizID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	participant, err := s.participants.ResolveParticipant(ctx, sub.Username)
	if err != nil {
		return domain.AttemptResult{}, err
	}

	attempt := domain.Attempt{
		ID:              s.newID(),
		ParticipantID:   participant.ID,
		QuizID:          quiz.ID,
		ParticipantName: participant.Name(),
		QuizTitle:       quiz.Title,
		QuizTotalMarks:  quiz.TotalMarks,
		TotalQuestions:  len(quiz.Questions),
		ElapsedSeconds:  sub.ElapsedSeconds,
		CompletedAt:     s.now().UTC(),
	}

	card := scoreAnswers(attempt.ID, quiz.Questions, sub.Answers, s.newID)
	attempt.Score = card.score
	attempt.CorrectAnswers = card.correct
	attempt.WrongAnswers = card.wrong

	if err := s.results.SaveAttempt(ctx, attempt, card.records); err != nil {
		log.Printf("scorer: failed to store attempt for quiz=%s participant=%s: %v", quiz.ID, participant.ID, err)
		return domain.AttemptResult{}, fmt.Errorf("save attempt: %w", err)
	}
	log.Printf("scorer: stored attempt %s quiz=%s participant=%s score=%d/%d", attempt.ID, quiz.ID, participant.ID, attempt.Score, attempt.PossibleMarks())

	return domain.AttemptResult{
		Attempt: attempt,
		Reviews: buildReviews(quiz.Questions, card.records),
	}, nil
}

type scoreCard struct {
	score   int
	correct int
	wrong   int
	records []domain.AnswerRecord
}

// scoreAnswers produces exactly one record per question. A missing answer is a
// skip and counts as wrong; tags compare case-sensitively.
func scoreAnswers(attemptID string, questions []domain.Question, answers map[string]domain.OptionTag, newID func() string) scoreCard {
	card := scoreCard{records: make([]domain.AnswerRecord, 0, len(questions))}
	for _, q := range questions {
		selected := answers[q.ID]
		record := domain.AnswerRecord{
			ID:             newID(),
			AttemptID:      attemptID,
			QuestionID:     q.ID,
			SelectedOption: selected,
		}
		if selected != "" && selected == q.CorrectOption {
			record.Correct = true
			record.MarksObtained = q.Marks
			card.score += q.Marks
			card.correct++
		} else {
			card.wrong++
		}
		card.records = append(card.records, record)
	}
	return card
}

// buildReviews follows record order; questions removed since scoring still
// yield a row without text.
func buildReviews(questions []domain.Question, records []domain.AnswerRecord) []domain.AnswerReview {
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	reviews := make([]domain.AnswerReview, 0, len(records))
	for _, rec := range records {
		q := byID[rec.QuestionID]
		reviews = append(reviews, domain.AnswerReview{
			QuestionID:     rec.QuestionID,
			Text:           q.Text,
			OptionA:        q.OptionA,
			OptionB:        q.OptionB,
			OptionC:        q.OptionC,
			OptionD:        q.OptionD,
			CorrectOption:  q.CorrectOption,
			SelectedOption: rec.SelectedOption,
			Correct:        rec.Correct,
			MarksObtained:  rec.MarksObtained,
		})
	}
	return reviews
}
