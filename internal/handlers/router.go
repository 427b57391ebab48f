package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/praxis-edu/practice-service/internal/services"
	"github.com/praxis-edu/practice-service/internal/utils"
)

type HandlerManager struct {
	practiceHandler *PracticeHandler
	skillHandler    *SkillHandler
	questionHandler *QuestionHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		practiceHandler: NewPracticeHandler(serviceManager, logger),
		skillHandler:    NewSkillHandler(serviceManager.Skill(), logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), serviceManager.ImportExport(), logger),
	}
}

// SetupRoutes sets up all API routes. Everything under /api/v1 requires an
// authenticated user.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "practice-service",
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(auth)
	{
		// Practice loop routes
		practice := v1.Group("/practice")
		{
			practice.POST("/session/start", hm.practiceHandler.StartSession)
			practice.POST("/answer", hm.practiceHandler.SubmitAnswer)
			practice.POST("/session/end", hm.practiceHandler.EndSession)
			practice.GET("/progress", hm.practiceHandler.GetProgress)
			practice.GET("/sessions", hm.practiceHandler.GetHistory)
			practice.GET("/achievements", hm.practiceHandler.GetAchievements)
		}

		// Skill routes
		skills := v1.Group("/skills")
		{
			skills.POST("", hm.skillHandler.CreateSkill)
			skills.GET("", hm.skillHandler.ListSkills)
			skills.GET("/:id", hm.skillHandler.GetSkill)
			skills.PUT("/:id", hm.skillHandler.UpdateSkill)
			skills.DELETE("/:id", hm.skillHandler.DeleteSkill)
		}

		// Question routes
		questions := v1.Group("/questions")
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/random", hm.questionHandler.GetRandomQuestions)
			questions.GET("/export", hm.questionHandler.ExportQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
		}

		// Question bank routes
		banks := v1.Group("/banks")
		{
			banks.POST("", hm.questionHandler.CreateBank)
			banks.GET("", hm.questionHandler.ListBanks)
			banks.POST("/:id/import", hm.questionHandler.ImportQuestions)
		}
	}
}
