package repository

import (
	"context"
	"errors"
	"time"

	"assessment-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AttemptRepository is the persistence boundary for attempts. Race
// safety rests on two unique indexes:
//
//   - (quiz_id, user_id) partial on status == in_progress, so two
//     concurrent starts can never both hold an open attempt;
//   - (quiz_id, user_id, attempt_number), so slot numbering stays
//     dense and two starts can never claim the same slot.
//
// All state transitions out of in_progress go through UpdateIfStatus,
// a single findAndModify, so a reader can never observe a half-written
// attempt (score present but status still in_progress).
type AttemptRepository struct {
	Col *mongo.Collection
}

func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{Col: db.Collection("attempts")}
}

// EnsureIndexes creates the uniqueness constraints the lifecycle
// controller relies on. Call once at startup.
func (r *AttemptRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "quiz_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.AttemptInProgress}),
		},
		{
			Keys: bson.D{
				{Key: "quiz_id", Value: 1},
				{Key: "user_id", Value: 1},
				{Key: "attempt_number", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}},
		},
	})
	return err
}

func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*models.Attempt, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil // malformed id can never match an attempt
	}
	var a models.Attempt
	err = r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) FindInProgress(ctx context.Context, quizID, userID string) (*models.Attempt, error) {
	var a models.Attempt
	err := r.Col.FindOne(ctx, bson.M{
		"quiz_id": quizID,
		"user_id": userID,
		"status":  models.AttemptInProgress,
	}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CountFinal counts completed and expired attempts for a (quiz, user)
// pair. With the single-in_progress invariant this is also the highest
// attempt number already consumed when no attempt is open.
func (r *AttemptRepository) CountFinal(ctx context.Context, quizID, userID string) (int, error) {
	n, err := r.Col.CountDocuments(ctx, bson.M{
		"quiz_id": quizID,
		"user_id": userID,
		"status":  bson.M{"$in": []string{models.AttemptCompleted, models.AttemptExpired}},
	})
	return int(n), err
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *models.Attempt) error {
	res, err := r.Col.InsertOne(ctx, attempt)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicateAttempt
	}
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		attempt.ID = oid.Hex()
	}
	return nil
}

// UpdateIfStatus is the compare-and-set primitive: apply set only if
// the attempt is still in expectedStatus, returning the updated
// document. Returns (nil, nil) when the attempt exists but has already
// left expectedStatus, i.e. the caller lost the race.
func (r *AttemptRepository) UpdateIfStatus(ctx context.Context, id, expectedStatus string, set bson.M) (*models.Attempt, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var a models.Attempt
	err = r.Col.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "status": expectedStatus},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Complete transitions in_progress -> completed, writing the answers,
// the question snapshot and the score in the same operation.
func (r *AttemptRepository) Complete(ctx context.Context, id string, fin models.AttemptCompletion) (*models.Attempt, error) {
	return r.UpdateIfStatus(ctx, id, models.AttemptInProgress, bson.M{
		"status":            models.AttemptCompleted,
		"completed_at":      fin.CompletedAt,
		"answers":           fin.Answers,
		"question_snapshot": fin.Questions,
		"score":             fin.Score,
		"max_score":         fin.MaxScore,
		"percentage":        fin.Percentage,
		"passed":            fin.Passed,
	})
}

// Expire transitions in_progress -> expired. No score is recorded.
func (r *AttemptRepository) Expire(ctx context.Context, id string) (*models.Attempt, error) {
	return r.UpdateIfStatus(ctx, id, models.AttemptInProgress, bson.M{
		"status": models.AttemptExpired,
	})
}

func (r *AttemptRepository) ListByUser(ctx context.Context, quizID, userID string) ([]models.Attempt, error) {
	cur, err := r.Col.Find(ctx,
		bson.M{"quiz_id": quizID, "user_id": userID},
		options.Find().SetSort(bson.D{{Key: "attempt_number", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var attempts []models.Attempt
	for cur.Next(ctx) {
		var a models.Attempt
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, cur.Err()
}

// BestByPercentage returns the completed attempt with the highest
// persisted percentage, the earliest attempt winning ties. Nil when
// the user has no completed attempts.
func (r *AttemptRepository) BestByPercentage(ctx context.Context, quizID, userID string) (*models.Attempt, error) {
	var a models.Attempt
	err := r.Col.FindOne(ctx,
		bson.M{"quiz_id": quizID, "user_id": userID, "status": models.AttemptCompleted},
		options.FindOne().SetSort(bson.D{
			{Key: "percentage", Value: -1},
			{Key: "attempt_number", Value: 1},
		}),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ExpireDue sweeps every in_progress attempt whose deadline has
// passed. Complements lazy expiry on the read paths for attempts
// nobody re-reads; keeps max_attempts accounting correct.
func (r *AttemptRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.Col.UpdateMany(ctx,
		bson.M{
			"status":     models.AttemptInProgress,
			"expires_at": bson.M{"$lte": now},
		},
		bson.M{"$set": bson.M{"status": models.AttemptExpired}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
