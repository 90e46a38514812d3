package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizrank-service/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultStore. Attempts keep
// insertion order so equal scores come back in the order they were stored.
type ResultStore struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
	answers  map[string][]domain.AnswerRecord
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		answers: make(map[string][]domain.AnswerRecord),
	}
}

// SaveAttempt publishes the attempt and its records under one lock, so readers
// never see a snapshot without its answers.
func (s *ResultStore) SaveAttempt(_ context.Context, attempt domain.Attempt, answers []domain.AnswerRecord) error {
	records := make([]domain.AnswerRecord, len(answers))
	copy(records, answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	s.answers[attempt.ID] = records
	return nil
}

func (s *ResultStore) GetAttempt(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, at := range s.attempts {
		if at.ID == attemptID {
			return at, nil
		}
	}
	return domain.Attempt{}, domain.ErrAttemptNotFound
}

func (s *ResultStore) AnswersForAttempt(_ context.Context, attemptID string) ([]domain.AnswerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.answers[attemptID]
	out := make([]domain.AnswerRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *ResultStore) AllAttempts(_ context.Context) ([]domain.Attempt, error) {
	return s.filter(func(domain.Attempt) bool { return true }), nil
}

func (s *ResultStore) TopAttempts(_ context.Context, limit int) ([]domain.Attempt, error) {
	return byScore(s.filter(func(domain.Attempt) bool { return true }), limit), nil
}

func (s *ResultStore) TopAttemptsForQuiz(_ context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	return byScore(s.filter(func(at domain.Attempt) bool { return at.QuizID == quizID }), limit), nil
}

func (s *ResultStore) TopAttemptsSince(_ context.Context, since time.Time, limit int) ([]domain.Attempt, error) {
	return byScore(s.filter(func(at domain.Attempt) bool { return !at.CompletedAt.Before(since) }), limit), nil
}

func (s *ResultStore) AttemptsByParticipant(_ context.Context, participantID string) ([]domain.Attempt, error) {
	attempts := s.filter(func(at domain.Attempt) bool { return at.ParticipantID == participantID })
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].CompletedAt.After(attempts[j].CompletedAt)
	})
	return attempts, nil
}

func (s *ResultStore) CountByParticipant(_ context.Context, participantID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, at := range s.attempts {
		if at.ParticipantID == participantID {
			count++
		}
	}
	return count, nil
}

func (s *ResultStore) DeleteAttempt(_ context.Context, attemptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeLocked(func(at domain.Attempt) bool { return at.ID == attemptID }) == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *ResultStore) DeleteByParticipant(_ context.Context, participantID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(func(at domain.Attempt) bool { return at.ParticipantID == participantID }), nil
}

func (s *ResultStore) removeLocked(match func(domain.Attempt) bool) int {
	kept := s.attempts[:0]
	removed := 0
	for _, at := range s.attempts {
		if match(at) {
			delete(s.answers, at.ID)
			removed++
			continue
		}
		kept = append(kept, at)
	}
	s.attempts = kept
	return removed
}

// AnswerCount is the total number of stored answer records.
func (s *ResultStore) AnswerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, records := range s.answers {
		n += len(records)
	}
	return n
}

func (s *ResultStore) filter(keep func(domain.Attempt) bool) []domain.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, 0, len(s.attempts))
	for _, at := range s.attempts {
		if keep(at) {
			out = append(out, at)
		}
	}
	return out
}

func byScore(attempts []domain.Attempt, limit int) []domain.Attempt {
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].Score > attempts[j].Score
	})
	if limit > 0 && len(attempts) > limit {
		attempts = attempts[:limit]
	}
	return attempts
}
