package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quizrank-service/internal/domain"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts,alias:a"`

	ID              string    `bun:"id,pk"`
	ParticipantID   string    `bun:"participant_id,notnull"`
	QuizID          string    `bun:"quiz_id,notnull"`
	ParticipantName string    `bun:"participant_name,notnull"`
	QuizTitle       string    `bun:"quiz_title,notnull"`
	QuizTotalMarks  int       `bun:"quiz_total_marks,notnull"`
	Score           int       `bun:"score,notnull"`
	TotalQuestions  int       `bun:"total_questions,notnull"`
	CorrectAnswers  int       `bun:"correct_answers,notnull"`
	WrongAnswers    int       `bun:"wrong_answers,notnull"`
	ElapsedSeconds  int       `bun:"elapsed_seconds,notnull"`
	CompletedAt     time.Time `bun:"completed_at,notnull"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answer_records,alias:ar"`

	ID             string `bun:"id,pk"`
	AttemptID      string `bun:"attempt_id,notnull"`
	Position       int    `bun:"position,notnull"`
	QuestionID     string `bun:"question_id,notnull"`
	SelectedOption string `bun:"selected_option,notnull"`
	Correct        bool   `bun:"correct,notnull"`
	MarksObtained  int    `bun:"marks_obtained,notnull"`
}

func toAttemptRow(at domain.Attempt) attemptRow {
	return attemptRow{
		ID:              at.ID,
		ParticipantID:   at.ParticipantID,
		QuizID:          at.QuizID,
		ParticipantName: at.ParticipantName,
		QuizTitle:       at.QuizTitle,
		QuizTotalMarks:  at.QuizTotalMarks,
		Score:           at.Score,
		TotalQuestions:  at.TotalQuestions,
		CorrectAnswers:  at.CorrectAnswers,
		WrongAnswers:    at.WrongAnswers,
		ElapsedSeconds:  at.ElapsedSeconds,
		CompletedAt:     at.CompletedAt,
	}
}

func (r attemptRow) toDomain() domain.Attempt {
	return domain.Attempt{
		ID:              r.ID,
		ParticipantID:   r.ParticipantID,
		QuizID:          r.QuizID,
		ParticipantName: r.ParticipantName,
		QuizTitle:       r.QuizTitle,
		QuizTotalMarks:  r.QuizTotalMarks,
		Score:           r.Score,
		TotalQuestions:  r.TotalQuestions,
		CorrectAnswers:  r.CorrectAnswers,
		WrongAnswers:    r.WrongAnswers,
		ElapsedSeconds:  r.ElapsedSeconds,
		CompletedAt:     r.CompletedAt.UTC(),
	}
}

func toAnswerRows(records []domain.AnswerRecord) []answerRow {
	rows := make([]answerRow, 0, len(records))
	for i, rec := range records {
		rows = append(rows, answerRow{
			ID:             rec.ID,
			AttemptID:      rec.AttemptID,
			Position:       i,
			QuestionID:     rec.QuestionID,
			SelectedOption: string(rec.SelectedOption),
			Correct:        rec.Correct,
			MarksObtained:  rec.MarksObtained,
		})
	}
	return rows
}

func (r answerRow) toDomain() domain.AnswerRecord {
	return domain.AnswerRecord{
		ID:             r.ID,
		AttemptID:      r.AttemptID,
		QuestionID:     r.QuestionID,
		SelectedOption: domain.OptionTag(r.SelectedOption),
		Correct:        r.Correct,
		MarksObtained:  r.MarksObtained,
	}
}

func attemptsToDomain(rows []attemptRow) []domain.Attempt {
	out := make([]domain.Attempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
