package domain

import "time"

// AttemptSummary holds the global scalar statistics. Zero values mean no attempts.
type AttemptSummary struct {
	TotalAttempts     int
	TotalParticipants int
	AverageScore      float64
	HighestScore      int
}

// ParticipantSummary holds one participant's scalar statistics.
type ParticipantSummary struct {
	ParticipantID string  `json:"participantId"`
	Attempts      int     `json:"attempts"`
	AverageScore  float64 `json:"averageScore"`
	BestScore     int     `json:"bestScore"`
}

// ParticipantRollup groups attempts by participant.
type ParticipantRollup struct {
	ParticipantID     string
	ParticipantName   string
	Attempts          int
	TotalScore        int
	AverageScore      float64
	AveragePercentage float64
	LastActivity      time.Time
}

// QuizRollup groups attempts by quiz.
type QuizRollup struct {
	QuizID       string
	QuizTitle    string
	Attempts     int
	AverageScore float64
	MaxScore     int
	MinScore     int
}

// QuizHistoryRollup groups one participant's attempts by quiz. LatestScore and
// TotalQuestions come from the participant's most recent attempt on any quiz,
// so every row of one history carries the same values.
type QuizHistoryRollup struct {
	QuizID         string
	QuizTitle      string
	QuizTotalMarks int
	TotalQuestions int
	Attempts       int
	BestScore      int
	AverageScore   float64
	LatestScore    int
	FirstAttempt   time.Time
	LastAttempt    time.Time
}

// ActivityRow is one line of the participant activity report.
type ActivityRow struct {
	ParticipantID   string    `json:"participantId"`
	ParticipantName string    `json:"participantName"`
	Attempts        int       `json:"attempts"`
	TotalScore      int       `json:"totalScore"`
	AverageScore    float64   `json:"averageScore"`
	LastActivity    time.Time `json:"lastActivity"`
}

// PerformanceRow is one line of the quiz performance report.
type PerformanceRow struct {
	QuizID       string  `json:"quizId"`
	QuizTitle    string  `json:"quizTitle"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
	HighestScore int     `json:"highestScore"`
	LowestScore  int     `json:"lowestScore"`
}

// QuizHistorySummary is one quiz in a participant's history.
type QuizHistorySummary struct {
	QuizID         string    `json:"quizId"`
	QuizTitle      string    `json:"quizTitle"`
	TotalQuestions int       `json:"totalQuestions"`
	AttemptCount   int       `json:"attemptCount"`
	BestScore      int       `json:"bestScore"`
	AverageScore   float64   `json:"averageScore"`
	LatestScore    int       `json:"latestScore"`
	FirstAttempt   time.Time `json:"firstAttempt"`
	LastAttempt    time.Time `json:"lastAttempt"`
}
