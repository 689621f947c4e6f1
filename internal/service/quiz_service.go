package service

import (
	"context"
	"log"
	"time"

	"assessment-service/internal/cache"
	"assessment-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// QuizStore is the persistence boundary for quiz definitions.
type QuizStore interface {
	FindAll(ctx context.Context) ([]models.Quiz, error)
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	Update(ctx context.Context, id string, update bson.M) error
}

// QuizService serves quiz definitions. The attempt paths are read
// heavy, so reads go through the redis cache when one is configured;
// authoring writes invalidate it. Cache misses and cache failures both
// fall through to the repository.
type QuizService struct {
	Repo  QuizStore
	Cache *cache.RedisCache
}

func NewQuizService(repo QuizStore, c *cache.RedisCache) *QuizService {
	return &QuizService{Repo: repo, Cache: c}
}

func (s *QuizService) ListQuizzes(ctx context.Context) ([]models.Quiz, error) {
	return s.Repo.FindAll(ctx)
}

func (s *QuizService) GetQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	if s.Cache != nil {
		if quiz, err := s.Cache.GetQuiz(ctx, id); err == nil {
			return quiz, nil
		}
	}
	quiz, err := s.Repo.FindByID(ctx, id)
	if err != nil || quiz == nil {
		return quiz, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetQuiz(ctx, quiz); err != nil {
			log.Printf("quiz cache set failed for %s: %v", id, err)
		}
	}
	return quiz, nil
}

// FindByID satisfies the lifecycle controller's QuizReader.
func (s *QuizService) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	return s.GetQuiz(ctx, id)
}

func (s *QuizService) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	quiz.CreatedAt = time.Now()
	quiz.UpdatedAt = quiz.CreatedAt
	return s.Repo.Create(ctx, quiz)
}

func (s *QuizService) UpdateQuiz(ctx context.Context, id string, update map[string]interface{}) error {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range update {
		set[k] = v
	}
	if err := s.Repo.Update(ctx, id, set); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Publish makes a quiz startable. There is no unpublish once attempts
// exist; the definition is treated as immutable for the engine.
func (s *QuizService) Publish(ctx context.Context, id string) error {
	err := s.Repo.Update(ctx, id, bson.M{"is_published": true, "updated_at": time.Now()})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *QuizService) invalidate(ctx context.Context, id string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.InvalidateQuiz(ctx, id); err != nil {
		log.Printf("quiz cache invalidate failed for %s: %v", id, err)
	}
}
