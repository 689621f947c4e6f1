package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"assessment-service/internal/models"
	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

type memQuestionStore struct {
	byQuiz map[string][]models.Question
}

func (m *memQuestionStore) FindByID(_ context.Context, id string) (*models.Question, error) {
	for _, qs := range m.byQuiz {
		for _, q := range qs {
			if q.ID == id {
				cp := q
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (m *memQuestionStore) FindByQuizID(_ context.Context, quizID string) ([]models.Question, error) {
	return m.byQuiz[quizID], nil
}

func (m *memQuestionStore) Create(_ context.Context, q *models.Question) error {
	m.byQuiz[q.QuizID] = append(m.byQuiz[q.QuizID], *q)
	return nil
}

func (m *memQuestionStore) Update(_ context.Context, _ string, _ bson.M) error { return nil }

func (m *memQuestionStore) Deactivate(_ context.Context, _ string) error { return nil }

// newQuestionRouter registers ListByQuiz under the same pattern the
// server uses, so the route param and the handler's lookup are tested
// as one unit.
func newQuestionRouter(store service.QuestionStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewQuestionHandler(service.NewQuestionService(store))
	r := gin.New()
	r.GET("/public/assessment/quiz/:id/questions", h.ListByQuiz)
	return r
}

func catalogStore() *memQuestionStore {
	return &memQuestionStore{byQuiz: map[string][]models.Question{
		"quiz-1": {
			{
				ID: "q1", QuizID: "quiz-1", Position: 1, Content: "Pick A",
				Type: models.QuestionMultipleChoice, Points: 10, Active: true,
				Options: []models.Option{
					{ID: "a", Text: "A", IsCorrect: true, Position: 1},
					{ID: "b", Text: "B", Position: 2},
				},
			},
			{
				ID: "q2", QuizID: "quiz-1", Position: 2, Content: "Name it",
				Type: models.QuestionShortAnswer, Points: 5, Active: true,
				CorrectAnswer: "gopher",
			},
			{
				ID: "q3", QuizID: "quiz-1", Position: 3, Content: "Retired",
				Type: models.QuestionTrueFalse, Points: 5, Active: false,
				CorrectAnswer: "true",
			},
		},
	}}
}

func TestListByQuizResolvesRouteParam(t *testing.T) {
	router := newQuestionRouter(catalogStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/public/assessment/quiz/quiz-1/questions", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got []models.Question
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected the 2 active questions, got %d", len(got))
	}
	if got[0].ID != "q1" || got[1].ID != "q2" {
		t.Errorf("unexpected question ids: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestPublicQuestionListingOmitsAnswerKeys(t *testing.T) {
	router := newQuestionRouter(catalogStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/public/assessment/quiz/quiz-1/questions", nil)
	router.ServeHTTP(w, req)

	body := w.Body.String()
	if strings.Contains(body, "correct_answer") || strings.Contains(body, "is_correct") {
		t.Fatalf("public listing leaked an answer key: %s", body)
	}

	var got []models.Question
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, q := range got {
		if !q.Active {
			t.Errorf("inactive question %s served publicly", q.ID)
		}
		if q.CorrectAnswer != "" {
			t.Errorf("question %s carries its answer key", q.ID)
		}
		for _, o := range q.Options {
			if o.IsCorrect {
				t.Errorf("question %s option %s carries a correctness flag", q.ID, o.ID)
			}
		}
	}
}
