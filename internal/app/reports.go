package app

import (
	"context"
	"time"

	"quizrank-service/internal/domain"
)

// ReportGenerator reshapes aggregator rollups into report rows. It computes
// nothing on its own.
type ReportGenerator struct {
	agg Aggregator
	now func() time.Time
}

func NewReportGenerator(agg Aggregator) *ReportGenerator {
	return &ReportGenerator{agg: agg, now: time.Now}
}

func (g *ReportGenerator) ActivityReport(ctx context.Context) ([]domain.ActivityRow, error) {
	return g.activity(ctx, time.Time{})
}

// RecentActivityReport only counts attempts from the trailing days.
func (g *ReportGenerator) RecentActivityReport(ctx context.Context, days int) ([]domain.ActivityRow, error) {
	if days < 0 {
		days = 0
	}
	return g.activity(ctx, g.now().UTC().AddDate(0, 0, -days))
}

func (g *ReportGenerator) activity(ctx context.Context, since time.Time) ([]domain.ActivityRow, error) {
	rollups, err := g.agg.ParticipantRollups(ctx, since)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.ActivityRow, 0, len(rollups))
	for _, r := range rollups {
		rows = append(rows, domain.ActivityRow{
			ParticipantID:   r.ParticipantID,
			ParticipantName: r.ParticipantName,
			Attempts:        r.Attempts,
			TotalScore:      r.TotalScore,
			AverageScore:    r.AverageScore,
			LastActivity:    r.LastActivity,
		})
	}
	return rows, nil
}

func (g *ReportGenerator) PerformanceReport(ctx context.Context) ([]domain.PerformanceRow, error) {
	rollups, err := g.agg.QuizRollups(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.PerformanceRow, 0, len(rollups))
	for _, r := range rollups {
		rows = append(rows, domain.PerformanceRow{
			QuizID:       r.QuizID,
			QuizTitle:    r.QuizTitle,
			Attempts:     r.Attempts,
			AverageScore: r.AverageScore,
			HighestScore: r.MaxScore,
			LowestScore:  r.MinScore,
		})
	}
	return rows, nil
}

// HistorySummary lists the quizzes a participant attempted, most recent first.
func (g *ReportGenerator) HistorySummary(ctx context.Context, participantID string) ([]domain.QuizHistorySummary, error) {
	rollups, err := g.agg.QuizHistory(ctx, participantID)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.QuizHistorySummary, 0, len(rollups))
	for _, r := range rollups {
		rows = append(rows, domain.QuizHistorySummary{
			QuizID:         r.QuizID,
			QuizTitle:      r.QuizTitle,
			TotalQuestions: r.TotalQuestions,
			AttemptCount:   r.Attempts,
			BestScore:      r.BestScore,
			AverageScore:   r.AverageScore,
			LatestScore:    r.LatestScore,
			FirstAttempt:   r.FirstAttempt,
			LastAttempt:    r.LastAttempt,
		})
	}
	return rows, nil
}
