package insight

import (
	"reflect"
	"testing"

	"assessment-service/internal/models"
	"assessment-service/internal/scoring"
)

func tagged(id string, tags ...string) models.Question {
	return models.Question{ID: id, Active: true, TopicTags: tags}
}

func graded(id string, correct bool) scoring.QuestionResult {
	return scoring.QuestionResult{QuestionID: id, Correct: correct}
}

func TestSummarizeBucketsTags(t *testing.T) {
	questions := []models.Question{
		tagged("q1", "algebra"),
		tagged("q2", "algebra"),
		tagged("q3", "geometry"),
		tagged("q4", "geometry"),
		tagged("q5", "history"),
	}
	res := scoring.Result{
		Percentage: 60,
		Questions: []scoring.QuestionResult{
			graded("q1", true),
			graded("q2", true),
			graded("q3", false),
			graded("q4", false),
			graded("q5", true),
		},
	}

	s := Summarize(questions, res)

	wantStrengths := []string{"algebra", "history"}
	if !reflect.DeepEqual(s.StrengthAreas, wantStrengths) {
		t.Errorf("strengths: got %v, want %v", s.StrengthAreas, wantStrengths)
	}
	wantWeak := []string{"geometry"}
	if !reflect.DeepEqual(s.ImprovementAreas, wantWeak) {
		t.Errorf("improvement areas: got %v, want %v", s.ImprovementAreas, wantWeak)
	}
}

func TestSummarizePerformanceLevels(t *testing.T) {
	cases := []struct {
		percentage float64
		level      string
	}{
		{100, LevelExcellent},
		{90, LevelExcellent},
		{75, LevelGood},
		{60, LevelAverage},
		{50, LevelAverage},
		{49.9, LevelNeedsImprovement},
		{0, LevelNeedsImprovement},
	}
	for _, tc := range cases {
		s := Summarize(nil, scoring.Result{Percentage: tc.percentage})
		if s.PerformanceLevel != tc.level {
			t.Errorf("%.1f%%: got %s, want %s", tc.percentage, s.PerformanceLevel, tc.level)
		}
	}
}

func TestSummarizeUntaggedQuestionsProduceNoAreas(t *testing.T) {
	questions := []models.Question{tagged("q1"), tagged("q2")}
	res := scoring.Result{
		Percentage: 50,
		Questions:  []scoring.QuestionResult{graded("q1", true), graded("q2", false)},
	}

	s := Summarize(questions, res)

	if len(s.StrengthAreas) != 0 || len(s.ImprovementAreas) != 0 {
		t.Errorf("untagged questions must not produce areas: %+v", s)
	}
}
