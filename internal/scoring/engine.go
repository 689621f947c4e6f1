// Package scoring grades a set of submitted answers against a quiz's
// question bank. It is deterministic and side-effect free: the same
// questions and answers always produce the same result, so the engine
// can also re-derive summaries for historical attempts.
package scoring

import (
	"strings"

	"assessment-service/internal/models"
)

// Answers maps a question id to the submitted value(s): selected
// option ids for choice questions, a single free-text value otherwise.
type Answers map[string][]string

type QuestionResult struct {
	QuestionID     string `json:"question_id"`
	Correct        bool   `json:"correct"`
	PointsAwarded  int    `json:"points_awarded"`
	PointsPossible int    `json:"points_possible"`
}

type Result struct {
	Points     int              `json:"points"`
	MaxPoints  int              `json:"max_points"`
	Percentage float64          `json:"percentage"`
	Passed     bool             `json:"passed"`
	Questions  []QuestionResult `json:"questions"`
}

// Score grades answers against the active questions of a quiz. Every
// active question contributes its point value to MaxPoints whether or
// not it was answered; a missing or wrong answer simply awards zero.
// Answers keyed by unknown question ids are ignored. The pass
// threshold is inclusive: percentage == passingScore passes.
func Score(questions []models.Question, answers Answers, passingScore float64) Result {
	res := Result{}
	for _, q := range questions {
		if !q.Active {
			continue
		}
		qr := QuestionResult{
			QuestionID:     q.ID,
			PointsPossible: q.Points,
		}
		if submitted, ok := answers[q.ID]; ok && correct(&q, submitted) {
			qr.Correct = true
			qr.PointsAwarded = q.Points
		}
		res.Points += qr.PointsAwarded
		res.MaxPoints += qr.PointsPossible
		res.Questions = append(res.Questions, qr)
	}
	if res.MaxPoints > 0 {
		res.Percentage = float64(res.Points) / float64(res.MaxPoints) * 100
	}
	res.Passed = res.Percentage >= passingScore
	return res
}

// Snapshot freezes the graded questions into attempt-embeddable form.
func Snapshot(questions []models.Question, res Result) []models.QuestionSnapshot {
	byID := make(map[string]QuestionResult, len(res.Questions))
	for _, qr := range res.Questions {
		byID[qr.QuestionID] = qr
	}
	var snap []models.QuestionSnapshot
	for _, q := range questions {
		qr, ok := byID[q.ID]
		if !ok {
			continue
		}
		snap = append(snap, models.QuestionSnapshot{
			QuestionID:    q.ID,
			Type:          q.Type,
			Points:        q.Points,
			CorrectValues: correctValues(&q),
			Correct:       qr.Correct,
			PointsAwarded: qr.PointsAwarded,
		})
	}
	return snap
}

func correct(q *models.Question, submitted []string) bool {
	switch q.Type {
	case models.QuestionMultipleChoice:
		// Exact set match against the correct option ids. A question
		// authored with no correct option is unconditionally wrong.
		key := q.CorrectOptionIDs()
		if len(key) == 0 {
			return false
		}
		return equalStringSets(submitted, key)
	case models.QuestionTrueFalse, models.QuestionShortAnswer:
		if len(submitted) != 1 {
			return false
		}
		return matchText(submitted[0], q.CorrectAnswer)
	default:
		return false
	}
}

func correctValues(q *models.Question) []string {
	if q.Type == models.QuestionMultipleChoice {
		return q.CorrectOptionIDs()
	}
	if q.CorrectAnswer == "" {
		return nil
	}
	return []string{q.CorrectAnswer}
}

// matchText is the exact-match grading rule for free-text answers:
// case-insensitive comparison after trimming surrounding whitespace.
// Richer matching (synonyms, numeric tolerance) is a deliberate
// extension point, not implemented here.
func matchText(submitted, key string) bool {
	if key == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(key))
}

func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := map[string]int{}
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		seen[s]--
	}
	for _, v := range seen {
		if v != 0 {
			return false
		}
	}
	return true
}
