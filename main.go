package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"assessment-service/internal/cache"
	"assessment-service/internal/db"
	"assessment-service/internal/event"
	"assessment-service/internal/handlers"
	"assessment-service/internal/repository"
	"assessment-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI is required")
	}
	db.InitMongo(mongoURI)

	// RabbitMQ event publisher
	rabbitURL := os.Getenv("RABBITMQ_URI")
	eventExchange := os.Getenv("RABBITMQ_EXCHANGE")
	var publisher *event.EventPublisher
	if rabbitURL != "" && eventExchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(rabbitURL, eventExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, attempt events will not be published")
	}

	// Redis quiz definition cache (optional)
	var quizCache *cache.RedisCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		quizCache = cache.NewRedisCache(addr)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := quizCache.Ping(ctx); err != nil {
			log.Printf("Redis not reachable, quiz cache disabled: %v", err)
			quizCache = nil
		}
		cancel()
	}

	database := db.Client.Database("assessment_service")

	// Quizzes
	quizRepo := repository.NewQuizRepository(database)
	quizService := service.NewQuizService(quizRepo, quizCache)
	quizHandler := handlers.NewQuizHandler(quizService)

	// Questions
	questionRepo := repository.NewQuestionRepository(database)
	questionService := service.NewQuestionService(questionRepo)
	questionHandler := handlers.NewQuestionHandler(questionService)

	// Attempts
	attemptRepo := repository.NewAttemptRepository(database)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := attemptRepo.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create attempt indexes: %v", err)
		}
		cancel()
	}
	attemptService := service.NewAttemptService(attemptRepo, quizService, questionService)
	attemptHandler := handlers.NewAttemptHandler(attemptService, quizService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public routes - quiz catalog
	publicQuiz := r.Group("/public/assessment/quiz")
	{
		publicQuiz.GET("/", quizHandler.ListQuizzes)
		publicQuiz.GET("/:id", quizHandler.GetQuiz)
		publicQuiz.GET("/:id/questions", questionHandler.ListByQuiz)
	}

	// Protected routes - authoring
	protectedQuiz := r.Group("/protected/assessment/quiz", requireUser())
	{
		protectedQuiz.POST("/", quizHandler.CreateQuiz)
		protectedQuiz.PUT("/:id", quizHandler.UpdateQuiz)
		protectedQuiz.POST("/:id/publish", quizHandler.PublishQuiz)
	}

	protectedQuestion := r.Group("/protected/assessment/question", requireUser())
	{
		protectedQuestion.POST("/", questionHandler.CreateQuestion)
		protectedQuestion.PUT("/:id", questionHandler.UpdateQuestion)
		protectedQuestion.DELETE("/:id", questionHandler.DeactivateQuestion)
		protectedQuestion.GET("/:id", questionHandler.GetQuestion)
	}

	setupAttemptRoutes(r, attemptHandler, publisher)

	// Background expiry sweep: lazy expiry on the read paths already
	// keeps observed state correct, the sweeper handles attempts
	// nobody re-reads.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := attemptService.ExpireStale(ctx)
			cancel()
			if err != nil {
				log.Printf("Attempt expiry sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Expired %d stale attempts", n)
				if publisher != nil {
					publisher.Publish(event.AttemptSwept, gin.H{"expired": n})
				}
			}
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "6680"
	}
	r.Run(":" + port)
}

func setupAttemptRoutes(r *gin.Engine, attemptHandler *handlers.AttemptHandler, publisher *event.EventPublisher) {
	protectedAttempt := r.Group("/protected/assessment/attempt", requireUser())
	{
		// Start (or resume) an attempt
		protectedAttempt.POST("/start", func(c *gin.Context) {
			attemptHandler.StartAttempt(c)
			if publisher != nil && c.Writer.Status() == http.StatusOK {
				publisher.Publish(event.AttemptStarted, gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})

		// Submit answers and close the attempt
		protectedAttempt.POST("/:id/submit", func(c *gin.Context) {
			attemptHandler.SubmitAttempt(c)
			if publisher == nil {
				return
			}
			switch c.Writer.Status() {
			case http.StatusOK:
				publisher.Publish(event.AttemptCompleted, gin.H{
					"attempt_id": c.Param("id"),
					"user_id":    c.GetHeader("X-User-ID"),
					"timestamp":  time.Now(),
				})
			case http.StatusGone:
				publisher.Publish(event.AttemptExpired, gin.H{
					"attempt_id": c.Param("id"),
					"user_id":    c.GetHeader("X-User-ID"),
					"timestamp":  time.Now(),
				})
			}
		})

		// Attempt state and question set
		protectedAttempt.GET("/:id", attemptHandler.GetAttempt)
		protectedAttempt.GET("/:id/questions", attemptHandler.AttemptQuestions)

		// Per-quiz attempt history
		protectedAttempt.GET("/quiz/:quizId", attemptHandler.ListAttempts)
		protectedAttempt.GET("/quiz/:quizId/best", attemptHandler.BestAttempt)
	}
}

// requireUser trusts the authenticated user id the gateway puts on
// X-User-ID; role checks happen upstream.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-User-ID") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
