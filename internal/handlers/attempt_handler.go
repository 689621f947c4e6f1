package handlers

import (
	"errors"
	"net/http"

	"assessment-service/internal/models"
	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	Service     *service.AttemptService
	QuizService *service.QuizService
}

func NewAttemptHandler(s *service.AttemptService, qs *service.QuizService) *AttemptHandler {
	return &AttemptHandler{Service: s, QuizService: qs}
}

// StartAttempt opens (or resumes) an attempt for the calling user.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req struct {
		QuizID string `json:"quiz_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	attempt, err := h.Service.Start(c.Request.Context(), req.QuizID, c.GetHeader("X-User-ID"))
	if err != nil {
		abortWithLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// SubmitAttempt grades the payload and closes the attempt.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID := c.Param("id")

	var req struct {
		Answers map[string][]string `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid answer format",
			"details": err.Error(),
		})
		return
	}

	attempt, summary, err := h.Service.Submit(c.Request.Context(), attemptID, c.GetHeader("X-User-ID"), req.Answers)
	if err != nil {
		abortWithLifecycleError(c, err)
		return
	}

	response := gin.H{"attempt": attempt}
	if summary != nil {
		response["insight"] = summary
	}
	c.JSON(http.StatusOK, response)
}

// GetAttempt returns one attempt to its owner. Answer keys from the
// snapshot are included only when the quiz allows review after
// completion and the attempt is terminal.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attempt, err := h.Service.Get(c.Request.Context(), c.Param("id"), c.GetHeader("X-User-ID"))
	if err != nil {
		abortWithLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.redacted(attempt, h.showAnswers(c, attempt.QuizID)))
}

// AttemptQuestions serves the question set for an open attempt.
func (h *AttemptHandler) AttemptQuestions(c *gin.Context) {
	questions, err := h.Service.QuestionsForAttempt(c.Request.Context(), c.Param("id"), c.GetHeader("X-User-ID"))
	if err != nil {
		abortWithLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions, "total": len(questions)})
}

// ListAttempts returns the calling user's attempts for a quiz in
// attempt-number order.
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	attempts, err := h.Service.ListByUser(c.Request.Context(), c.Param("quizId"), c.GetHeader("X-User-ID"))
	if err != nil {
		abortWithLifecycleError(c, err)
		return
	}
	// One quiz lookup for the whole list, not one per attempt.
	show := h.showAnswers(c, c.Param("quizId"))
	out := make([]gin.H, 0, len(attempts))
	for i := range attempts {
		out = append(out, h.redacted(&attempts[i], show))
	}
	c.JSON(http.StatusOK, gin.H{"attempts": out, "total": len(out)})
}

// BestAttempt returns the user's highest-percentage completed attempt.
func (h *AttemptHandler) BestAttempt(c *gin.Context) {
	best, err := h.Service.BestByPercentage(c.Request.Context(), c.Param("quizId"), c.GetHeader("X-User-ID"))
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No completed attempts",
				"code":  "NO_COMPLETED_ATTEMPTS",
			})
			return
		}
		abortWithLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.redacted(best, h.showAnswers(c, best.QuizID)))
}

// redacted shapes an attempt for its owner: the question snapshot
// (which carries correct values) is exposed only when the quiz opts
// into post-completion review.
func (h *AttemptHandler) redacted(attempt *models.Attempt, showAnswers bool) gin.H {
	out := gin.H{
		"id":             attempt.ID,
		"quiz_id":        attempt.QuizID,
		"attempt_number": attempt.AttemptNumber,
		"status":         attempt.Status,
		"started_at":     attempt.StartedAt,
		"expires_at":     attempt.ExpiresAt,
		"completed_at":   attempt.CompletedAt,
		"answers":        attempt.Answers,
		"score":          attempt.Score,
		"max_score":      attempt.MaxScore,
		"percentage":     attempt.Percentage,
	}
	if attempt.Status == models.AttemptCompleted {
		out["passed"] = attempt.Passed
	}
	if attempt.Terminal() && showAnswers {
		out["question_snapshot"] = attempt.Questions
	}
	return out
}

func (h *AttemptHandler) showAnswers(c *gin.Context, quizID string) bool {
	quiz, err := h.QuizService.GetQuiz(c.Request.Context(), quizID)
	if err != nil || quiz == nil {
		return false
	}
	return quiz.ShowAnswersAfterDone
}

// abortWithLifecycleError maps the lifecycle error taxonomy onto
// distinct statuses and codes so clients can tell "no more attempts"
// from "unavailable" from "you lost a race". Anything unmapped is a
// store/infrastructure failure and surfaces as a 500 the caller may
// retry with backoff.
func abortWithLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found", "code": "QUIZ_NOT_FOUND"})
	case errors.Is(err, service.ErrQuizNotPublished):
		c.JSON(http.StatusForbidden, gin.H{"error": "Quiz is not available", "code": "QUIZ_NOT_PUBLISHED"})
	case errors.Is(err, service.ErrAttemptLimitExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "No attempts remaining", "code": "ATTEMPT_LIMIT_EXCEEDED"})
	case errors.Is(err, service.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Attempt not found", "code": "ATTEMPT_NOT_FOUND"})
	case errors.Is(err, service.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Attempt belongs to another user", "code": "NOT_OWNER"})
	case errors.Is(err, service.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, gin.H{"error": "Attempt already submitted", "code": "ALREADY_SUBMITTED"})
	case errors.Is(err, service.ErrAttemptExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Attempt time limit exceeded", "code": "ATTEMPT_EXPIRED"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
