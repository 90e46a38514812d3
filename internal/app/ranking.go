package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"quizrank-service/internal/domain"
)

// TieBreak reports whether a ranks ahead of b when their scores are equal.
// A nil TieBreak keeps the order the store returned, so tied entries still get
// distinct sequential ranks.
type TieBreak func(a, b domain.Attempt) bool

// EarliestCompletion ranks the attempt that finished first ahead.
func EarliestCompletion(a, b domain.Attempt) bool {
	return a.CompletedAt.Before(b.CompletedAt)
}

// TieBreakByName maps a config value onto a TieBreak.
func TieBreakByName(name string) (TieBreak, error) {
	switch name {
	case "", "none", "sequential":
		return nil, nil
	case "earliest_completion":
		return EarliestCompletion, nil
	default:
		return nil, fmt.Errorf("%w: unknown tie-break %q", domain.ErrInvalidInput, name)
	}
}

// ScopeKind selects which attempts take part in a leaderboard.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeQuiz
	ScopeWindow
)

// Scope filters a leaderboard: all attempts, one quiz, or a trailing window.
type Scope struct {
	Kind      ScopeKind
	QuizID    string
	SinceDays int
}

func GlobalScope() Scope              { return Scope{Kind: ScopeGlobal} }
func QuizScope(quizID string) Scope   { return Scope{Kind: ScopeQuiz, QuizID: quizID} }
func WindowScope(sinceDays int) Scope { return Scope{Kind: ScopeWindow, SinceDays: sinceDays} }

// RankingLimits are the caps used when a caller passes limit <= 0.
type RankingLimits struct {
	Global        int
	Quiz          int
	Window        int
	TopPerformers int
	// Scan is how much of the global board personal rankings look through.
	Scan int
}

// DefaultRankingLimits mirrors the public leaderboard defaults.
func DefaultRankingLimits() RankingLimits {
	return RankingLimits{Global: 50, Quiz: 20, Window: 20, TopPerformers: 10, Scan: 1000}
}

// RankingService builds ordered leaderboard views on demand.
type RankingService struct {
	results  ResultStore
	agg      Aggregator
	tieBreak TieBreak
	limits   RankingLimits
	now      func() time.Time
}

func NewRankingService(results ResultStore, agg Aggregator, tieBreak TieBreak, limits RankingLimits) *RankingService {
	return &RankingService{
		results:  results,
		agg:      agg,
		tieBreak: tieBreak,
		limits:   limits,
		now:      time.Now,
	}
}

// Leaderboard returns capped, score-descending entries for scope with ranks 1..N.
func (r *RankingService) Leaderboard(ctx context.Context, scope Scope, limit int) ([]domain.LeaderboardEntry, error) {
	attempts, err := r.fetch(ctx, scope, limit)
	if err != nil {
		return nil, err
	}
	orderAttempts(attempts, r.tieBreak)

	counts := make(map[string]int)
	entries := make([]domain.LeaderboardEntry, 0, len(attempts))
	for _, at := range attempts {
		count, ok := counts[at.ParticipantID]
		if !ok {
			count, err = r.results.CountByParticipant(ctx, at.ParticipantID)
			if err != nil {
				return nil, fmt.Errorf("count attempts: %w", err)
			}
			counts[at.ParticipantID] = count
		}
		entries = append(entries, entryFromAttempt(at, count))
	}
	assignRanks(entries)
	return entries, nil
}

func (r *RankingService) fetch(ctx context.Context, scope Scope, limit int) ([]domain.Attempt, error) {
	switch scope.Kind {
	case ScopeGlobal:
		return r.results.TopAttempts(ctx, orDefault(limit, r.limits.Global))
	case ScopeQuiz:
		if scope.QuizID == "" {
			return nil, fmt.Errorf("%w: quiz id is required", domain.ErrInvalidInput)
		}
		return r.results.TopAttemptsForQuiz(ctx, scope.QuizID, orDefault(limit, r.limits.Quiz))
	case ScopeWindow:
		if scope.SinceDays < 0 {
			return nil, fmt.Errorf("%w: window must not be negative", domain.ErrInvalidInput)
		}
		since := r.now().UTC().AddDate(0, 0, -scope.SinceDays)
		return r.results.TopAttemptsSince(ctx, since, orDefault(limit, r.limits.Window))
	default:
		return nil, fmt.Errorf("%w: unknown leaderboard scope", domain.ErrInvalidInput)
	}
}

// TopPerformers ranks participants by average score across all their attempts.
func (r *RankingService) TopPerformers(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rollups, err := r.agg.ParticipantRollups(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rollups, func(i, j int) bool {
		return rollups[i].AverageScore > rollups[j].AverageScore
	})

	limit = orDefault(limit, r.limits.TopPerformers)
	if len(rollups) > limit {
		rollups = rollups[:limit]
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rollups))
	for _, ro := range rollups {
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID:   ro.ParticipantID,
			ParticipantName: ro.ParticipantName,
			Score:           ro.AverageScore,
			Percentage:      ro.AveragePercentage,
			TotalAttempts:   ro.Attempts,
		})
	}
	assignRanks(entries)
	return entries, nil
}

// Stats summarises every attempt. The two aggregates are independent reads.
func (r *RankingService) Stats(ctx context.Context) (domain.LeaderboardStats, error) {
	var (
		summary domain.AttemptSummary
		rollups []domain.ParticipantRollup
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = r.agg.Summary(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rollups, err = r.agg.ParticipantRollups(gctx, time.Time{})
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.LeaderboardStats{}, err
	}

	stats := domain.LeaderboardStats{
		TotalParticipants: summary.TotalParticipants,
		TotalAttempts:     summary.TotalAttempts,
		AverageScore:      summary.AverageScore,
		HighestScore:      summary.HighestScore,
	}
	if len(rollups) > 0 {
		stats.MostActiveParticipant = rollups[0].ParticipantName
		stats.MostActiveParticipantAttempts = rollups[0].Attempts
	}
	return stats, nil
}

// PersonalBest scans the global board for participantID. The best-ranked entry
// is returned with its score replaced by the mean over every matching entry.
// found is false when the participant is not on the board.
func (r *RankingService) PersonalBest(ctx context.Context, participantID string) (entry domain.LeaderboardEntry, found bool, err error) {
	board, err := r.Leaderboard(ctx, GlobalScope(), r.limits.Scan)
	if err != nil {
		return domain.LeaderboardEntry{}, false, err
	}
	entry, found = personalBest(board, participantID)
	return entry, found, nil
}

// Rankings returns every entry of participantID on the scanned global board.
func (r *RankingService) Rankings(ctx context.Context, participantID string) ([]domain.LeaderboardEntry, error) {
	board, err := r.Leaderboard(ctx, GlobalScope(), r.limits.Scan)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LeaderboardEntry, 0)
	for i, e := range board {
		if e.ParticipantID != participantID {
			continue
		}
		e.Rank = i + 1
		entries = append(entries, e)
	}
	return entries, nil
}

func personalBest(board []domain.LeaderboardEntry, participantID string) (domain.LeaderboardEntry, bool) {
	var (
		best  domain.LeaderboardEntry
		found bool
		total float64
		count int
	)
	for i, e := range board {
		if e.ParticipantID != participantID {
			continue
		}
		count++
		total += e.Score
		if !found {
			best = e
			best.Rank = i + 1
			found = true
		}
	}
	if !found {
		return domain.LeaderboardEntry{}, false
	}
	best.Score = total / float64(count)
	best.TotalAttempts = count
	return best, true
}

// orderAttempts keeps score-descending order and applies tieBreak only among
// equal scores. With no tieBreak the input order is left untouched.
func orderAttempts(attempts []domain.Attempt, tieBreak TieBreak) {
	if tieBreak == nil {
		return
	}
	sort.SliceStable(attempts, func(i, j int) bool {
		if attempts[i].Score != attempts[j].Score {
			return attempts[i].Score > attempts[j].Score
		}
		return tieBreak(attempts[i], attempts[j])
	})
}

// assignRanks stamps position+1; ties are not shared.
func assignRanks(entries []domain.LeaderboardEntry) {
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

func entryFromAttempt(at domain.Attempt, totalAttempts int) domain.LeaderboardEntry {
	completedAt := at.CompletedAt
	totalQuestions := at.TotalQuestions
	elapsed := at.ElapsedSeconds
	return domain.LeaderboardEntry{
		ParticipantID:   at.ParticipantID,
		ParticipantName: at.ParticipantName,
		QuizID:          at.QuizID,
		QuizTitle:       at.QuizTitle,
		Score:           float64(at.Score),
		TotalQuestions:  &totalQuestions,
		Percentage:      at.Percentage(),
		CompletedAt:     &completedAt,
		ElapsedSeconds:  &elapsed,
		TotalAttempts:   totalAttempts,
	}
}

func orDefault(limit, fallback int) int {
	if limit > 0 {
		return limit
	}
	return fallback
}
