package domain

import "time"

// OptionTag is one of the four answer symbols a question offers.
type OptionTag string

const (
	OptionA OptionTag = "A"
	OptionB OptionTag = "B"
	OptionC OptionTag = "C"
	OptionD OptionTag = "D"
)

// Participant is the resolved identity of whoever submits an attempt.
type Participant struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// Name returns the label copied into attempt snapshots.
func (p Participant) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// Question models an MCQ question with four options and one correct tag.
type Question struct {
	ID            string    `json:"id"`
	QuizID        string    `json:"quizId"`
	Text          string    `json:"text"`
	OptionA       string    `json:"optionA"`
	OptionB       string    `json:"optionB"`
	OptionC       string    `json:"optionC"`
	OptionD       string    `json:"optionD"`
	CorrectOption OptionTag `json:"correctOption,omitempty"`
	Marks         int       `json:"marks"`
}

// Public returns a copy safe to hand to participants.
func (q Question) Public() Question {
	q.CorrectOption = ""
	return q
}

// Quiz is the read model the engine scores against. TotalMarks is maintained
// by quiz authoring; the engine reads it but never recomputes it.
type Quiz struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"durationMinutes"`
	Difficulty      string     `json:"difficulty"`
	TotalMarks      int        `json:"totalMarks"`
	Active          bool       `json:"active"`
	Questions       []Question `json:"questions"`
}

// Attempt is the write-once snapshot of one scored submission. ParticipantName,
// QuizTitle and QuizTotalMarks are copied by value at submission time.
type Attempt struct {
	ID              string    `json:"id"`
	ParticipantID   string    `json:"participantId"`
	QuizID          string    `json:"quizId"`
	ParticipantName string    `json:"participantName"`
	QuizTitle       string    `json:"quizTitle"`
	QuizTotalMarks  int       `json:"quizTotalMarks"`
	Score           int       `json:"score"`
	TotalQuestions  int       `json:"totalQuestions"`
	CorrectAnswers  int       `json:"correctAnswers"`
	WrongAnswers    int       `json:"wrongAnswers"`
	ElapsedSeconds  int       `json:"elapsedSeconds"`
	CompletedAt     time.Time `json:"completedAt"`
}

// PossibleMarks is the percentage denominator: quiz total marks when positive,
// else the question count, else zero.
func (a Attempt) PossibleMarks() int {
	if a.QuizTotalMarks > 0 {
		return a.QuizTotalMarks
	}
	if a.TotalQuestions > 0 {
		return a.TotalQuestions
	}
	return 0
}

// Percentage never returns NaN or Inf.
func (a Attempt) Percentage() float64 {
	possible := a.PossibleMarks()
	if possible <= 0 {
		return 0
	}
	return float64(a.Score) / float64(possible) * 100
}

// AnswerRecord is the outcome for one question of one attempt. An empty
// SelectedOption means the question was skipped.
type AnswerRecord struct {
	ID             string    `json:"id"`
	AttemptID      string    `json:"attemptId"`
	QuestionID     string    `json:"questionId"`
	SelectedOption OptionTag `json:"selectedOption,omitempty"`
	Correct        bool      `json:"correct"`
	MarksObtained  int       `json:"marksObtained"`
}

// Submission is what a participant sends in for one quiz.
type Submission struct {
	QuizID         string
	Username       string
	Answers        map[string]OptionTag
	ElapsedSeconds int
}

// AnswerReview pairs a question with how it was answered.
type AnswerReview struct {
	QuestionID     string    `json:"questionId"`
	Text           string    `json:"text"`
	OptionA        string    `json:"optionA"`
	OptionB        string    `json:"optionB"`
	OptionC        string    `json:"optionC"`
	OptionD        string    `json:"optionD"`
	CorrectOption  OptionTag `json:"correctOption"`
	SelectedOption OptionTag `json:"selectedOption,omitempty"`
	Correct        bool      `json:"correct"`
	MarksObtained  int       `json:"marksObtained"`
}

// AttemptResult is returned after a submission and when reviewing one.
type AttemptResult struct {
	Attempt Attempt        `json:"attempt"`
	Reviews []AnswerReview `json:"reviews"`
}

// LeaderboardEntry is derived on demand; it is never stored. Aggregate views
// leave the quiz and timing fields empty.
type LeaderboardEntry struct {
	ParticipantID   string     `json:"participantId"`
	ParticipantName string     `json:"participantName"`
	QuizID          string     `json:"quizId,omitempty"`
	QuizTitle       string     `json:"quizTitle,omitempty"`
	Score           float64    `json:"score"`
	TotalQuestions  *int       `json:"totalQuestions,omitempty"`
	Percentage      float64    `json:"percentage"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	ElapsedSeconds  *int       `json:"elapsedSeconds,omitempty"`
	TotalAttempts   int        `json:"totalAttempts"`
	Rank            int        `json:"rank"`
}

// LeaderboardStats is the dashboard summary over every attempt.
type LeaderboardStats struct {
	TotalParticipants             int     `json:"totalParticipants"`
	TotalAttempts                 int     `json:"totalAttempts"`
	AverageScore                  float64 `json:"averageScore"`
	HighestScore                  int     `json:"highestScore"`
	MostActiveParticipant         string  `json:"mostActiveParticipant,omitempty"`
	MostActiveParticipantAttempts int     `json:"mostActiveParticipantAttempts"`
}
