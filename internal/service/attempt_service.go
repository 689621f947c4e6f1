package service

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"assessment-service/internal/insight"
	"assessment-service/internal/models"
	"assessment-service/internal/scoring"
)

// AttemptStore is the persistence boundary the lifecycle controller
// drives. Find methods return (nil, nil) when nothing matches;
// Complete and Expire are compare-and-set transitions that return
// (nil, nil) when the attempt has already left in_progress.
type AttemptStore interface {
	FindByID(ctx context.Context, id string) (*models.Attempt, error)
	FindInProgress(ctx context.Context, quizID, userID string) (*models.Attempt, error)
	CountFinal(ctx context.Context, quizID, userID string) (int, error)
	Create(ctx context.Context, attempt *models.Attempt) error
	Complete(ctx context.Context, id string, fin models.AttemptCompletion) (*models.Attempt, error)
	Expire(ctx context.Context, id string) (*models.Attempt, error)
	ListByUser(ctx context.Context, quizID, userID string) ([]models.Attempt, error)
	BestByPercentage(ctx context.Context, quizID, userID string) (*models.Attempt, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type QuizReader interface {
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
}

type QuestionReader interface {
	FindByQuizID(ctx context.Context, quizID string) ([]models.Question, error)
}

// AttemptService is the attempt lifecycle controller: the state
// machine not_started -> in_progress -> {completed, expired}. Only
// in_progress is mutable; completed and expired are terminal.
type AttemptService struct {
	Attempts  AttemptStore
	Quizzes   QuizReader
	Questions QuestionReader

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

func NewAttemptService(attempts AttemptStore, quizzes QuizReader, questions QuestionReader) *AttemptService {
	return &AttemptService{
		Attempts:  attempts,
		Quizzes:   quizzes,
		Questions: questions,
		Now:       time.Now,
	}
}

// startRetries bounds the re-read loop when concurrent starts collide
// on the store's uniqueness constraints. Each retry either returns the
// winner's attempt or observes strictly newer state, so a small bound
// suffices.
const startRetries = 3

// Start opens an attempt for (quiz, user), or resumes the one already
// in progress. Resuming is idempotent: a client retry or double-click
// must not create a second attempt nor consume an extra slot. The slot
// ceiling counts terminal attempts plus the open one; enforcement is
// atomic via the store's unique indexes, never via a read-then-write
// against a stale count.
func (s *AttemptService) Start(ctx context.Context, quizID, userID string) (*models.Attempt, error) {
	quiz, err := s.Quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	if !quiz.IsPublished {
		return nil, ErrQuizNotPublished
	}

	var lastErr error
	for i := 0; i < startRetries; i++ {
		current, err := s.Attempts.FindInProgress(ctx, quizID, userID)
		if err != nil {
			return nil, err
		}
		if current != nil {
			if !current.DeadlinePassed(s.Now()) {
				return current, nil
			}
			// Lazy expiry: close the stale attempt, then re-evaluate
			// the ceiling. Its slot stays consumed.
			if _, err := s.Attempts.Expire(ctx, current.ID); err != nil {
				return nil, err
			}
			continue
		}

		final, err := s.Attempts.CountFinal(ctx, quizID, userID)
		if err != nil {
			return nil, err
		}
		if final >= quiz.MaxAttempts {
			return nil, ErrAttemptLimitExceeded
		}

		now := s.Now()
		attempt := &models.Attempt{
			QuizID:        quizID,
			UserID:        userID,
			AttemptNumber: final + 1,
			Status:        models.AttemptInProgress,
			StartedAt:     now,
		}
		if quiz.Timed() {
			deadline := now.Add(quiz.TimeLimit())
			attempt.ExpiresAt = &deadline
		}

		err = s.Attempts.Create(ctx, attempt)
		if errors.Is(err, models.ErrDuplicateAttempt) {
			// Lost a start race; next iteration resumes the winner.
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		return attempt, nil
	}
	// Exhausted via the lazy-expiry path without ever losing a create,
	// so lastErr may still be nil. Never return (nil, nil) to callers.
	if lastErr == nil {
		lastErr = models.ErrDuplicateAttempt
	}
	return nil, lastErr
}

// Submit grades the answers and closes the attempt. The transition to
// completed is a single compare-and-set on status == in_progress, so
// of two racing submits exactly one records its payload and the other
// gets ErrAlreadySubmitted. A submit past the deadline expires the
// attempt instead and never scores.
func (s *AttemptService) Submit(ctx context.Context, attemptID, userID string, answers map[string][]string) (*models.Attempt, *insight.Summary, error) {
	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if attempt == nil {
		return nil, nil, ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, nil, ErrNotOwner
	}
	if attempt.Terminal() {
		return nil, nil, ErrAlreadySubmitted
	}
	if attempt.DeadlinePassed(s.Now()) {
		if _, err := s.Attempts.Expire(ctx, attempt.ID); err != nil {
			return nil, nil, err
		}
		return nil, nil, ErrAttemptExpired
	}

	quiz, err := s.Quizzes.FindByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, nil, err
	}
	if quiz == nil {
		return nil, nil, ErrQuizNotFound
	}
	questions, err := s.Questions.FindByQuizID(ctx, attempt.QuizID)
	if err != nil {
		return nil, nil, err
	}

	if answers == nil {
		answers = map[string][]string{}
	}
	result := scoring.Score(questions, answers, quiz.PassingScore)

	updated, err := s.Attempts.Complete(ctx, attempt.ID, models.AttemptCompletion{
		CompletedAt: s.Now(),
		Answers:     answers,
		Questions:   scoring.Snapshot(questions, result),
		Score:       result.Points,
		MaxScore:    result.MaxPoints,
		Percentage:  result.Percentage,
		Passed:      result.Passed,
	})
	if err != nil {
		return nil, nil, err
	}
	if updated == nil {
		// Lost the submit race; the attempt reached a terminal state
		// under a concurrent request. The caller should re-fetch.
		return nil, nil, ErrAlreadySubmitted
	}

	return updated, s.summarize(questions, result), nil
}

// summarize runs the insight summarizer best-effort. It must never
// fail the submit path; the attempt is already recorded as completed.
func (s *AttemptService) summarize(questions []models.Question, result scoring.Result) (summary *insight.Summary) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("insight summarizer panicked: %v", r)
			summary = nil
		}
	}()
	sum := insight.Summarize(questions, result)
	return &sum
}

// Get returns an attempt to its owner, applying lazy expiry first so
// callers never observe an in_progress attempt past its deadline.
func (s *AttemptService) Get(ctx context.Context, attemptID, userID string) (*models.Attempt, error) {
	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, ErrNotOwner
	}
	return s.lazyExpire(ctx, attempt)
}

// QuestionsForAttempt returns the questions to present for an open
// attempt: active only, answer keys stripped, shuffled when the quiz
// asks for it.
func (s *AttemptService) QuestionsForAttempt(ctx context.Context, attemptID, userID string) ([]models.Question, error) {
	attempt, err := s.Get(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == models.AttemptExpired {
		return nil, ErrAttemptExpired
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAlreadySubmitted
	}

	quiz, err := s.Quizzes.FindByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	all, err := s.Questions.FindByQuizID(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	var serve []models.Question
	for _, q := range all {
		if q.Active {
			serve = append(serve, q.Sanitized())
		}
	}
	if quiz.ShuffleQuestions {
		rand.Shuffle(len(serve), func(i, j int) {
			serve[i], serve[j] = serve[j], serve[i]
		})
	}
	return serve, nil
}

// ListByUser returns the user's attempts for a quiz ordered by attempt
// number, expiring any overdue in_progress attempt on the way out.
func (s *AttemptService) ListByUser(ctx context.Context, quizID, userID string) ([]models.Attempt, error) {
	attempts, err := s.Attempts.ListByUser(ctx, quizID, userID)
	if err != nil {
		return nil, err
	}
	for i := range attempts {
		a, err := s.lazyExpire(ctx, &attempts[i])
		if err != nil {
			return nil, err
		}
		attempts[i] = *a
	}
	return attempts, nil
}

func (s *AttemptService) BestByPercentage(ctx context.Context, quizID, userID string) (*models.Attempt, error) {
	best, err := s.Attempts.BestByPercentage(ctx, quizID, userID)
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, ErrAttemptNotFound
	}
	return best, nil
}

// ExpireStale is the background sweep counterpart to lazy expiry.
func (s *AttemptService) ExpireStale(ctx context.Context) (int64, error) {
	return s.Attempts.ExpireDue(ctx, s.Now())
}

func (s *AttemptService) lazyExpire(ctx context.Context, attempt *models.Attempt) (*models.Attempt, error) {
	if attempt.Status != models.AttemptInProgress || !attempt.DeadlinePassed(s.Now()) {
		return attempt, nil
	}
	expired, err := s.Attempts.Expire(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	if expired == nil {
		// Raced with a concurrent transition; re-read the winner.
		expired, err = s.Attempts.FindByID(ctx, attempt.ID)
		if err != nil {
			return nil, err
		}
		if expired == nil {
			return nil, ErrAttemptNotFound
		}
	}
	return expired, nil
}
