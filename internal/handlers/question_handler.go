package handlers

import (
	"errors"
	"net/http"

	"assessment-service/internal/models"
	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	Service *service.QuestionService
}

func NewQuestionHandler(s *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{Service: s}
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	question, err := h.Service.GetQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, question)
}

// ListByQuiz is the public catalog view of a quiz's questions: active
// questions only, with answer keys stripped. The raw documents stay
// behind the protected authoring routes.
func (h *QuestionHandler) ListByQuiz(c *gin.Context) {
	questions, err := h.Service.ListByQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	serve := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if q.Active {
			serve = append(serve, q.Sanitized())
		}
	}
	c.JSON(http.StatusOK, serve)
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var question models.Question
	if err := c.ShouldBindJSON(&question); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if question.QuizID == "" || question.Points < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quiz_id and a positive points value are required"})
		return
	}
	switch question.Type {
	case models.QuestionMultipleChoice, models.QuestionTrueFalse, models.QuestionShortAnswer:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown question type"})
		return
	}
	if err := h.Service.CreateQuestion(c.Request.Context(), &question); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, question)
}

func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	var update map[string]interface{}
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.UpdateQuestion(c.Request.Context(), c.Param("id"), update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question updated"})
}

// DeactivateQuestion retires a question instead of deleting it;
// submitted attempts keep their snapshot either way.
func (h *QuestionHandler) DeactivateQuestion(c *gin.Context) {
	if err := h.Service.DeactivateQuestion(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deactivated"})
}
