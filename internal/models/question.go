package models

import "time"

const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionTrueFalse      = "true_false"
	QuestionShortAnswer    = "short_answer"
)

type Option struct {
	ID        string `bson:"id" json:"id"`
	Text      string `bson:"text" json:"text"`
	IsCorrect bool   `bson:"is_correct" json:"is_correct,omitempty"`
	Position  int    `bson:"position" json:"position"`
}

type Question struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	QuizID        string    `bson:"quiz_id" json:"quiz_id"`
	Position      int       `bson:"position" json:"position"`
	Content       string    `bson:"content" json:"content"`
	Type          string    `bson:"type" json:"type"`
	Options       []Option  `bson:"options,omitempty" json:"options,omitempty"`
	CorrectAnswer string    `bson:"correct_answer,omitempty" json:"correct_answer,omitempty"`
	Points        int       `bson:"points" json:"points"`
	Active        bool      `bson:"active" json:"active"`
	TopicTags     []string  `bson:"topic_tags,omitempty" json:"topic_tags,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// CorrectOptionIDs returns the ids of the options flagged correct,
// in option order. Empty for non-choice questions and for questions
// authored without a correct option.
func (q *Question) CorrectOptionIDs() []string {
	var ids []string
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// Sanitized returns a copy safe to serve to a quiz taker: the answer
// key and per-option correctness flags are stripped.
func (q Question) Sanitized() Question {
	q.CorrectAnswer = ""
	if q.Options != nil {
		opts := make([]Option, len(q.Options))
		copy(opts, q.Options)
		for i := range opts {
			opts[i].IsCorrect = false
		}
		q.Options = opts
	}
	return q
}
