// Package insight derives best-effort strength/weakness tags from a
// scored attempt. It is advisory output for presentation layers and
// must never block or fail the submit path.
package insight

import (
	"sort"

	"assessment-service/internal/models"
	"assessment-service/internal/scoring"
)

const (
	LevelExcellent        = "excellent"
	LevelGood             = "good"
	LevelAverage          = "average"
	LevelNeedsImprovement = "needs_improvement"
)

type Summary struct {
	StrengthAreas    []string `json:"strength_areas"`
	ImprovementAreas []string `json:"improvement_areas"`
	PerformanceLevel string   `json:"performance_level"`
}

type tagTally struct {
	attempted int
	correct   int
}

// Summarize buckets the per-question correctness by topic tag. A tag
// where at least three quarters of the tagged questions were answered
// correctly counts as a strength; below half, an improvement area.
// Tags are returned sorted for stable output.
func Summarize(questions []models.Question, res scoring.Result) Summary {
	correctByID := make(map[string]bool, len(res.Questions))
	graded := make(map[string]bool, len(res.Questions))
	for _, qr := range res.Questions {
		graded[qr.QuestionID] = true
		correctByID[qr.QuestionID] = qr.Correct
	}

	tallies := map[string]*tagTally{}
	for _, q := range questions {
		if !graded[q.ID] {
			continue
		}
		for _, tag := range q.TopicTags {
			t, ok := tallies[tag]
			if !ok {
				t = &tagTally{}
				tallies[tag] = t
			}
			t.attempted++
			if correctByID[q.ID] {
				t.correct++
			}
		}
	}

	s := Summary{PerformanceLevel: performanceLevel(res.Percentage)}
	for tag, t := range tallies {
		accuracy := float64(t.correct) / float64(t.attempted)
		switch {
		case accuracy >= 0.75:
			s.StrengthAreas = append(s.StrengthAreas, tag)
		case accuracy < 0.5:
			s.ImprovementAreas = append(s.ImprovementAreas, tag)
		}
	}
	sort.Strings(s.StrengthAreas)
	sort.Strings(s.ImprovementAreas)
	return s
}

func performanceLevel(percentage float64) string {
	switch {
	case percentage >= 90:
		return LevelExcellent
	case percentage >= 75:
		return LevelGood
	case percentage >= 50:
		return LevelAverage
	default:
		return LevelNeedsImprovement
	}
}
