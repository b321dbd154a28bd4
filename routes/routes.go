package routes

import (
	"github.com/gin-gonic/gin"

	"readmission-service/config"
	"readmission-service/controllers"
	"readmission-service/security"
)

func RiskRoutes(rg *gin.RouterGroup, rc *controllers.RiskController) {
	// Health check endpoint (no auth required)
	rg.GET("/health", rc.HealthCheck)

	// Auth
	auth := rg.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.POST("/refresh", controllers.Refresh)
	}

	// Everything below requires an authenticated, active user
	rg.Use(security.AuthMiddleware(config.DB))

	rg.GET("/auth/me", controllers.Me)

	// Scoring
	predict := rg.Group("/predict")
	{
		predict.POST("", security.RequireRole("clinician"), rc.Predict)
		predict.POST("/batch", security.RequireRole("clinician"), rc.BatchPredict)
		predict.GET("/schema", security.RequireRole("clinician"), rc.Schema)
	}

	// Persisted assessments
	assessments := rg.Group("/assessments")
	{
		assessments.POST("", security.RequireRole("clinician"), rc.CreateAssessment)
		assessments.GET("", security.RequireRole("clinician"), rc.GetAssessments)
		assessments.GET("/:id", security.RequireRole("clinician"), rc.GetAssessment)
		assessments.GET("/patient/:patient_ref/history", security.RequireRole("clinician"), rc.GetPatientHistory)
	}
}
