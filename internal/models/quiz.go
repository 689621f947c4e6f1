package models

import "time"

type Quiz struct {
	ID                   string    `bson:"_id,omitempty" json:"id"`
	Title                string    `bson:"title" json:"title"`
	Description          string    `bson:"description" json:"description"`
	CourseID             string    `bson:"course_id,omitempty" json:"course_id,omitempty"`
	TimeLimitSeconds     int       `bson:"time_limit_seconds" json:"time_limit_seconds"`
	PassingScore         float64   `bson:"passing_score" json:"passing_score"`
	MaxAttempts          int       `bson:"max_attempts" json:"max_attempts"`
	ShuffleQuestions     bool      `bson:"shuffle_questions" json:"shuffle_questions"`
	ShowAnswersAfterDone bool      `bson:"show_answers_after_completion" json:"show_answers_after_completion"`
	IsPublished          bool      `bson:"is_published" json:"is_published"`
	CreatedAt            time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time `bson:"updated_at" json:"updated_at"`
}

// Timed reports whether attempts against this quiz carry a deadline.
// A zero time limit means untimed.
func (q *Quiz) Timed() bool {
	return q.TimeLimitSeconds > 0
}

func (q *Quiz) TimeLimit() time.Duration {
	return time.Duration(q.TimeLimitSeconds) * time.Second
}
