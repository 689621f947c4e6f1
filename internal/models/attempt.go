package models

import (
	"errors"
	"time"
)

const (
	AttemptInProgress = "in_progress"
	AttemptCompleted  = "completed"
	AttemptExpired    = "expired"
)

// ErrDuplicateAttempt is returned by attempt stores when an insert
// collides with one of the per-(quiz, user) uniqueness constraints.
// The lifecycle controller treats it as a lost race and re-reads.
var ErrDuplicateAttempt = errors.New("attempt already exists for this slot")

// QuestionSnapshot freezes the scoring-relevant state of a question at
// submission time so historical attempts stay stable when the quiz is
// edited later.
type QuestionSnapshot struct {
	QuestionID    string   `bson:"question_id" json:"question_id"`
	Type          string   `bson:"type" json:"type"`
	Points        int      `bson:"points" json:"points"`
	CorrectValues []string `bson:"correct_values,omitempty" json:"correct_values,omitempty"`
	Correct       bool     `bson:"correct" json:"correct"`
	PointsAwarded int      `bson:"points_awarded" json:"points_awarded"`
}

type Attempt struct {
	ID            string              `bson:"_id,omitempty" json:"id"`
	QuizID        string              `bson:"quiz_id" json:"quiz_id"`
	UserID        string              `bson:"user_id" json:"user_id"`
	AttemptNumber int                 `bson:"attempt_number" json:"attempt_number"`
	Status        string              `bson:"status" json:"status"`
	StartedAt     time.Time           `bson:"started_at" json:"started_at"`
	ExpiresAt     *time.Time          `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	CompletedAt   *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	Answers       map[string][]string `bson:"answers,omitempty" json:"answers,omitempty"`
	Questions     []QuestionSnapshot  `bson:"question_snapshot,omitempty" json:"question_snapshot,omitempty"`
	Score         *int                `bson:"score,omitempty" json:"score,omitempty"`
	MaxScore      *int                `bson:"max_score,omitempty" json:"max_score,omitempty"`
	Percentage    *float64            `bson:"percentage,omitempty" json:"percentage,omitempty"`
	Passed        bool                `bson:"passed" json:"passed"`
}

// AttemptCompletion carries everything a completed-state transition
// writes in one shot. Applied only while the attempt is still
// in_progress (compare-and-set in the store).
type AttemptCompletion struct {
	CompletedAt time.Time
	Answers     map[string][]string
	Questions   []QuestionSnapshot
	Score       int
	MaxScore    int
	Percentage  float64
	Passed      bool
}

func (a *Attempt) Terminal() bool {
	return a.Status == AttemptCompleted || a.Status == AttemptExpired
}

// DeadlinePassed reports whether a timed attempt has outlived its
// deadline. Untimed attempts never expire.
func (a *Attempt) DeadlinePassed(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}
