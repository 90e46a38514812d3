package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizrank-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ParticipantResolver maps a username onto a stable participant identity.
type ParticipantResolver interface {
	ResolveParticipant(ctx context.Context, username string) (domain.Participant, error)
}

// ResultStore persists attempt snapshots and their answer records.
// Score-ordered queries return score descending and treat limit <= 0 as uncapped.
type ResultStore interface {
	AttemptLister

	// SaveAttempt writes the snapshot and its records atomically.
	SaveAttempt(ctx context.Context, attempt domain.Attempt, answers []domain.AnswerRecord) error
	GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
	AnswersForAttempt(ctx context.Context, attemptID string) ([]domain.AnswerRecord, error)

	TopAttempts(ctx context.Context, limit int) ([]domain.Attempt, error)
	TopAttemptsForQuiz(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error)
	TopAttemptsSince(ctx context.Context, since time.Time, limit int) ([]domain.Attempt, error)
	// AttemptsByParticipant is ordered by completion time, newest first.
	AttemptsByParticipant(ctx context.Context, participantID string) ([]domain.Attempt, error)
	CountByParticipant(ctx context.Context, participantID string) (int, error)

	// DeleteAttempt and DeleteByParticipant also remove the answer records.
	DeleteAttempt(ctx context.Context, attemptID string) error
	DeleteByParticipant(ctx context.Context, participantID string) (int, error)
}

// Options tune leaderboard behaviour.
type Options struct {
	TieBreak   TieBreak
	Limits     RankingLimits
	RecentDays int
	// Clock stamps completion times and anchors time windows. Defaults to time.Now.
	Clock func() time.Time
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	quizzes      QuizRepository
	participants ParticipantResolver
	results      ResultStore
	agg          Aggregator

	scorer  *Scorer
	ranking *RankingService
	reports *ReportGenerator

	recentDays int
}

func NewQuizService(quizzes QuizRepository, participants ParticipantResolver, results ResultStore, agg Aggregator, opts Options) *QuizService {
	if opts.Limits == (RankingLimits{}) {
		opts.Limits = DefaultRankingLimits()
	}
	if opts.RecentDays <= 0 {
		opts.RecentDays = 7
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	ranking := NewRankingService(results, agg, opts.TieBreak, opts.Limits)
	ranking.now = opts.Clock
	reports := NewReportGenerator(agg)
	reports.now = opts.Clock
	return &QuizService{
		quizzes:      quizzes,
		participants: participants,
		results:      results,
		agg:          agg,
		scorer:       NewScorer(quizzes, participants, results, opts.Clock),
		ranking:      ranking,
		reports:      reports,
		recentDays:   opts.RecentDays,
	}
}

// SubmitAttempt scores and stores one attempt. Repeated calls create
// independent attempts.
func (s *QuizService) SubmitAttempt(ctx context.Context, sub domain.Submission) (domain.AttemptResult, error) {
	return s.scorer.Submit(ctx, sub)
}

// QuizQuestions returns the questions with the correct option stripped.
func (s *QuizService) QuizQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions := make([]domain.Question, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, q.Public())
	}
	return questions, nil
}

func (s *QuizService) Leaderboard(ctx context.Context, scope Scope, limit int) ([]domain.LeaderboardEntry, error) {
	return s.ranking.Leaderboard(ctx, scope, limit)
}

// RecentLeaderboard is the window leaderboard over the configured recent days.
func (s *QuizService) RecentLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return s.ranking.Leaderboard(ctx, WindowScope(s.recentDays), limit)
}

func (s *QuizService) TopPerformers(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return s.ranking.TopPerformers(ctx, limit)
}

func (s *QuizService) LeaderboardStats(ctx context.Context) (domain.LeaderboardStats, error) {
	return s.ranking.Stats(ctx)
}

// PersonalRanking returns the participant's best global entry. found is false
// when they have no entry on the scanned board.
func (s *QuizService) PersonalRanking(ctx context.Context, username string) (domain.LeaderboardEntry, bool, error) {
	participant, err := s.resolve(ctx, username)
	if err != nil {
		return domain.LeaderboardEntry{}, false, err
	}
	return s.ranking.PersonalBest(ctx, participant.ID)
}

// MyRankings returns every global entry of the participant.
func (s *QuizService) MyRankings(ctx context.Context, username string) ([]domain.LeaderboardEntry, error) {
	participant, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.ranking.Rankings(ctx, participant.ID)
}

func (s *QuizService) ActivityReport(ctx context.Context) ([]domain.ActivityRow, error) {
	return s.reports.ActivityReport(ctx)
}

func (s *QuizService) PerformanceReport(ctx context.Context) ([]domain.PerformanceRow, error) {
	return s.reports.PerformanceReport(ctx)
}

func (s *QuizService) RecentActivityReport(ctx context.Context, days int) ([]domain.ActivityRow, error) {
	return s.reports.RecentActivityReport(ctx, days)
}

func (s *QuizService) HistorySummary(ctx context.Context, username string) ([]domain.QuizHistorySummary, error) {
	participant, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.reports.HistorySummary(ctx, participant.ID)
}

// ParticipantStats returns zeros for a participant without attempts.
func (s *QuizService) ParticipantStats(ctx context.Context, username string) (domain.ParticipantSummary, error) {
	participant, err := s.resolve(ctx, username)
	if err != nil {
		return domain.ParticipantSummary{}, err
	}
	return s.agg.ParticipantSummary(ctx, participant.ID)
}

// Attempt returns a stored attempt with its per-question review.
func (s *QuizService) Attempt(ctx context.Context, attemptID string) (domain.AttemptResult, error) {
	attempt, err := s.results.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	return s.review(ctx, attempt)
}

// History returns every attempt of the participant, newest first.
func (s *QuizService) History(ctx context.Context, username string) ([]domain.AttemptResult, error) {
	participant, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	attempts, err := s.results.AttemptsByParticipant(ctx, participant.ID)
	if err != nil {
		return nil, err
	}
	history := make([]domain.AttemptResult, 0, len(attempts))
	for _, at := range attempts {
		res, err := s.review(ctx, at)
		if err != nil {
			return nil, err
		}
		history = append(history, res)
	}
	return history, nil
}

func (s *QuizService) DeleteAttempt(ctx context.Context, attemptID string) error {
	return s.results.DeleteAttempt(ctx, attemptID)
}

// PurgeParticipant removes every attempt and answer record of the participant.
func (s *QuizService) PurgeParticipant(ctx context.Context, username string) (int, error) {
	participant, err := s.resolve(ctx, username)
	if err != nil {
		return 0, err
	}
	return s.results.DeleteByParticipant(ctx, participant.ID)
}

func (s *QuizService) review(ctx context.Context, attempt domain.Attempt) (domain.AttemptResult, error) {
	answers, err := s.results.AnswersForAttempt(ctx, attempt.ID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	// The quiz may have been retired; review rows then carry no question text.
	var questions []domain.Question
	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	switch {
	case err == nil:
		questions = quiz.Questions
	case !errors.Is(err, domain.ErrQuizNotFound):
		return domain.AttemptResult{}, err
	}
	return domain.AttemptResult{Attempt: attempt, Reviews: buildReviews(questions, answers)}, nil
}

func (s *QuizService) resolve(ctx context.Context, username string) (domain.Participant, error) {
	if strings.TrimSpace(username) == "" {
		return domain.Participant{}, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	return s.participants.ResolveParticipant(ctx, username)
}
