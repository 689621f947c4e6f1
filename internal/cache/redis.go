// Package cache is a read-through cache for published quiz
// definitions. Quiz reads dominate the attempt paths while quiz edits
// are rare, so definitions are kept in redis with a short TTL.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"assessment-service/internal/models"

	"github.com/go-redis/redis/v8"
)

const quizTTL = 15 * time.Minute

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) SetQuiz(ctx context.Context, quiz *models.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "quiz:"+quiz.ID, data, quizTTL).Err()
}

func (c *RedisCache) GetQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	data, err := c.client.Get(ctx, "quiz:"+id).Bytes()
	if err != nil {
		return nil, err
	}
	var quiz models.Quiz
	err = json.Unmarshal(data, &quiz)
	return &quiz, err
}

// InvalidateQuiz drops a cached definition after an authoring change.
func (c *RedisCache) InvalidateQuiz(ctx context.Context, id string) error {
	return c.client.Del(ctx, "quiz:"+id).Err()
}
