package service

import (
	"context"
	"time"

	"assessment-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// QuestionStore is the persistence boundary for the question bank.
type QuestionStore interface {
	FindByID(ctx context.Context, id string) (*models.Question, error)
	FindByQuizID(ctx context.Context, quizID string) ([]models.Question, error)
	Create(ctx context.Context, question *models.Question) error
	Update(ctx context.Context, id string, update bson.M) error
	Deactivate(ctx context.Context, id string) error
}

type QuestionService struct {
	Repo QuestionStore
}

func NewQuestionService(repo QuestionStore) *QuestionService {
	return &QuestionService{Repo: repo}
}

func (s *QuestionService) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	q, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrQuestionNotFound
	}
	return q, nil
}

func (s *QuestionService) ListByQuiz(ctx context.Context, quizID string) ([]models.Question, error) {
	return s.Repo.FindByQuizID(ctx, quizID)
}

// FindByQuizID satisfies the lifecycle controller's QuestionReader.
func (s *QuestionService) FindByQuizID(ctx context.Context, quizID string) ([]models.Question, error) {
	return s.Repo.FindByQuizID(ctx, quizID)
}

func (s *QuestionService) CreateQuestion(ctx context.Context, question *models.Question) error {
	question.Active = true
	question.CreatedAt = time.Now()
	question.UpdatedAt = question.CreatedAt
	return s.Repo.Create(ctx, question)
}

func (s *QuestionService) UpdateQuestion(ctx context.Context, id string, update map[string]interface{}) error {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range update {
		set[k] = v
	}
	return s.Repo.Update(ctx, id, set)
}

// DeactivateQuestion retires a question from new attempts. Attempts
// already submitted keep the question in their snapshot, so history
// is unaffected.
func (s *QuestionService) DeactivateQuestion(ctx context.Context, id string) error {
	return s.Repo.Deactivate(ctx, id)
}
