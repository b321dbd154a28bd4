package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"readmission-service/models"
	"readmission-service/risk"
	"readmission-service/security"
	"readmission-service/utils"
)

// RiskController serves the scoring endpoints. It owns a reference to the
// risk service built at startup; the model handle is never global.
type RiskController struct {
	svc *risk.Service
}

func NewRiskController(svc *risk.Service) *RiskController {
	return &RiskController{svc: svc}
}

// Predict scores one clinical form submission. The result is returned once
// and never persisted.
func (rc *RiskController) Predict(c *gin.Context) {
	var input models.ClinicalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		security.SendValidationError(c, "Invalid input data", err.Error())
		return
	}

	assessment, err := rc.svc.Assess(input)
	if err != nil {
		var ood *risk.OutOfDomainError
		if errors.As(err, &ood) {
			security.SendOutOfDomainError(c, ood.Error())
			return
		}
		security.SendError(c, http.StatusInternalServerError, security.CodePredictionError,
			"Prediction failed", err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// BatchPredict scores a CSV upload of pre-encoded feature rows. The rows
// bypass the form encoder; the header must match the model schema exactly.
func (rc *RiskController) BatchPredict(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		security.SendMalformedUploadError(c, "Expected a multipart CSV upload under field \"file\"", nil)
		return
	}
	defer file.Close()

	records, err := utils.ParseFeatureCSV(file)
	if err != nil {
		security.SendMalformedUploadError(c, err.Error(), gin.H{
			"expected_columns": models.FeatureNames,
		})
		return
	}

	started := time.Now()
	results := make([]models.BatchRowResult, 0, len(records))
	for i, record := range records {
		assessment, err := rc.svc.Score(record)
		if err != nil {
			security.SendError(c, http.StatusInternalServerError, security.CodePredictionError,
				"Prediction failed", err.Error(), gin.H{"row": i + 1})
			return
		}
		results = append(results, models.BatchRowResult{
			Row:            i + 1,
			Probability:    assessment.Probability,
			RiskIndex:      assessment.RiskIndex,
			RiskTier:       assessment.RiskTier,
			Recommendation: assessment.Recommendation,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"results":         results,
		"count":           len(results),
		"model_version":   rc.svc.ModelVersion(),
		"mapping_version": rc.svc.MappingVersion(),
		"elapsed_ms":      time.Since(started).Milliseconds(),
	})
}

// Schema reports the canonical feature columns, in order. Bulk upload
// clients use it to build their header row.
func (rc *RiskController) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"columns":         models.FeatureNames,
		"model_version":   rc.svc.ModelVersion(),
		"mapping_version": rc.svc.MappingVersion(),
	})
}
