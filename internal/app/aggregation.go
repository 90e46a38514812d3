package app

import (
	"context"
	"sort"
	"time"

	"quizrank-service/internal/domain"
)

// Aggregator computes rollups over the whole attempt population at call time.
// There is no incremental state, so every call costs O(attempts); swap the
// implementation (SQL GROUP BY, streaming) without touching callers.
type Aggregator interface {
	Summary(ctx context.Context) (domain.AttemptSummary, error)
	ParticipantSummary(ctx context.Context, participantID string) (domain.ParticipantSummary, error)
	// ParticipantRollups groups attempts completed at or after since (zero
	// means all), ordered by attempt count descending.
	ParticipantRollups(ctx context.Context, since time.Time) ([]domain.ParticipantRollup, error)
	// QuizRollups is ordered by attempt count descending.
	QuizRollups(ctx context.Context) ([]domain.QuizRollup, error)
	// QuizHistory groups one participant's attempts by quiz, most recent first.
	QuizHistory(ctx context.Context, participantID string) ([]domain.QuizHistoryRollup, error)
}

// AttemptLister exposes every stored attempt.
type AttemptLister interface {
	AllAttempts(ctx context.Context) ([]domain.Attempt, error)
}

// ScanAggregator aggregates by reading every attempt into memory.
type ScanAggregator struct {
	source AttemptLister
}

func NewScanAggregator(source AttemptLister) *ScanAggregator {
	return &ScanAggregator{source: source}
}

func (a *ScanAggregator) Summary(ctx context.Context) (domain.AttemptSummary, error) {
	attempts, err := a.source.AllAttempts(ctx)
	if err != nil {
		return domain.AttemptSummary{}, err
	}
	var summary domain.AttemptSummary
	if len(attempts) == 0 {
		return summary, nil
	}

	participants := make(map[string]struct{})
	total := 0
	summary.HighestScore = attempts[0].Score
	for _, at := range attempts {
		participants[at.ParticipantID] = struct{}{}
		total += at.Score
		if at.Score > summary.HighestScore {
			summary.HighestScore = at.Score
		}
	}
	summary.TotalAttempts = len(attempts)
	summary.TotalParticipants = len(participants)
	summary.AverageScore = float64(total) / float64(len(attempts))
	return summary, nil
}

func (a *ScanAggregator) ParticipantSummary(ctx context.Context, participantID string) (domain.ParticipantSummary, error) {
	attempts, err := a.source.AllAttempts(ctx)
	if err != nil {
		return domain.ParticipantSummary{}, err
	}
	summary := domain.ParticipantSummary{ParticipantID: participantID}
	total := 0
	for _, at := range attempts {
		if at.ParticipantID != participantID {
			continue
		}
		if summary.Attempts == 0 || at.Score > summary.BestScore {
			summary.BestScore = at.Score
		}
		summary.Attempts++
		total += at.Score
	}
	if summary.Attempts > 0 {
		summary.AverageScore = float64(total) / float64(summary.Attempts)
	}
	return summary, nil
}

func (a *ScanAggregator) ParticipantRollups(ctx context.Context, since time.Time) ([]domain.ParticipantRollup, error) {
	attempts, err := a.source.AllAttempts(ctx)
	if err != nil {
		return nil, err
	}

	type acc struct {
		rollup     domain.ParticipantRollup
		percentSum float64
	}
	groups := make(map[string]*acc)
	for _, at := range attempts {
		if !since.IsZero() && at.CompletedAt.Before(since) {
			continue
		}
		g, ok := groups[at.ParticipantID]
		if !ok {
			g = &acc{rollup: domain.ParticipantRollup{ParticipantID: at.ParticipantID}}
			groups[at.ParticipantID] = g
		}
		g.rollup.Attempts++
		g.rollup.TotalScore += at.Score
		g.percentSum += at.Percentage()
		if !at.CompletedAt.Before(g.rollup.LastActivity) {
			g.rollup.LastActivity = at.CompletedAt
			g.rollup.ParticipantName = at.ParticipantName
		}
	}

	rollups := make([]domain.ParticipantRollup, 0, len(groups))
	for _, g := range groups {
		r := g.rollup
		r.AverageScore = float64(r.TotalScore) / float64(r.Attempts)
		r.AveragePercentage = g.percentSum / float64(r.Attempts)
		rollups = append(rollups, r)
	}
	sort.Slice(rollups, func(i, j int) bool {
		if rollups[i].Attempts != rollups[j].Attempts {
			return rollups[i].Attempts > rollups[j].Attempts
		}
		return rollups[i].ParticipantID < rollups[j].ParticipantID
	})
	return rollups, nil
}

func (a *ScanAggregator) QuizRollups(ctx context.Context) ([]domain.QuizRollup, error) {
	attempts, err := a.source.AllAttempts(ctx)
	if err != nil {
		return nil, err
	}

	type acc struct {
		rollup domain.QuizRollup
		total  int
		latest time.Time
	}
	groups := make(map[string]*acc)
	for _, at := range attempts {
		g, ok := groups[at.QuizID]
		if !ok {
			g = &acc{rollup: domain.QuizRollup{QuizID: at.QuizID, MaxScore: at.Score, MinScore: at.Score}}
			groups[at.QuizID] = g
		}
		g.rollup.Attempts++
		g.total += at.Score
		if at.Score > g.rollup.MaxScore {
			g.rollup.MaxScore = at.Score
		}
		if at.Score < g.rollup.MinScore {
			g.rollup.MinScore = at.Score
		}
		if !at.CompletedAt.Before(g.latest) {
			g.latest = at.CompletedAt
			g.rollup.QuizTitle = at.QuizTitle
		}
	}

	rollups := make([]domain.QuizRollup, 0, len(groups))
	for _, g := range groups {
		r := g.rollup
		r.AverageScore = float64(g.total) / float64(r.Attempts)
		rollups = append(rollups, r)
	}
	sort.Slice(rollups, func(i, j int) bool {
		if rollups[i].Attempts != rollups[j].Attempts {
			return rollups[i].Attempts > rollups[j].Attempts
		}
		return rollups[i].QuizID < rollups[j].QuizID
	})
	return rollups, nil
}

func (a *ScanAggregator) QuizHistory(ctx context.Context, participantID string) ([]domain.QuizHistoryRollup, error) {
	attempts, err := a.source.AllAttempts(ctx)
	if err != nil {
		return nil, err
	}

	type acc struct {
		rollup domain.QuizHistoryRollup
		total  int
	}
	groups := make(map[string]*acc)
	var latest *domain.Attempt
	for i, at := range attempts {
		if at.ParticipantID != participantID {
			continue
		}
		if latest == nil || !at.CompletedAt.Before(latest.CompletedAt) {
			latest = &attempts[i]
		}
		g, ok := groups[at.QuizID]
		if !ok {
			g = &acc{rollup: domain.QuizHistoryRollup{
				QuizID:       at.QuizID,
				BestScore:    at.Score,
				FirstAttempt: at.CompletedAt,
				LastAttempt:  at.CompletedAt,
			}}
			groups[at.QuizID] = g
		}
		r := &g.rollup
		r.Attempts++
		g.total += at.Score
		if at.Score > r.BestScore {
			r.BestScore = at.Score
		}
		if at.CompletedAt.Before(r.FirstAttempt) {
			r.FirstAttempt = at.CompletedAt
		}
		if r.Attempts == 1 || !at.CompletedAt.Before(r.LastAttempt) {
			r.LastAttempt = at.CompletedAt
			r.QuizTitle = at.QuizTitle
			r.QuizTotalMarks = at.QuizTotalMarks
		}
	}

	rollups := make([]domain.QuizHistoryRollup, 0, len(groups))
	for _, g := range groups {
		r := g.rollup
		r.AverageScore = float64(g.total) / float64(r.Attempts)
		r.LatestScore = latest.Score
		r.TotalQuestions = latest.TotalQuestions
		rollups = append(rollups, r)
	}
	sort.Slice(rollups, func(i, j int) bool {
		if !rollups[i].LastAttempt.Equal(rollups[j].LastAttempt) {
			return rollups[i].LastAttempt.After(rollups[j].LastAttempt)
		}
		return rollups[i].QuizID < rollups[j].QuizID
	})
	return rollups, nil
}
