package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"readmission-service/config"
)

// HealthCheck endpoint
func (rc *RiskController) HealthCheck(c *gin.Context) {
	err := config.DB.Ping()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "Database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"service":         "readmission-service",
		"model_version":   rc.svc.ModelVersion(),
		"mapping_version": rc.svc.MappingVersion(),
		"timestamp":       time.Now().Unix(),
	})
}
