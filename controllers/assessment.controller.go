package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"readmission-service/config"
	"readmission-service/models"
	"readmission-service/risk"
	"readmission-service/security"
)

type CreateAssessmentInput struct {
	PatientRef string               `json:"patient_ref" binding:"required,min=1,max=64"`
	Notes      *string              `json:"notes" binding:"omitempty,max=2000"`
	Input      models.ClinicalInput `json:"input" binding:"required"`
}

// CreateAssessment scores a form submission and persists the result as an
// audit record attributed to the authenticated clinician.
func (rc *RiskController) CreateAssessment(c *gin.Context) {
	var input CreateAssessmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		security.SendValidationError(c, "Invalid input data", err.Error())
		return
	}

	assessment, err := rc.svc.Assess(input.Input)
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

	assessedBy := c.GetString("user_id")

	var stored models.Assessment
	err = config.DB.QueryRow(`
		INSERT INTO assessments (
			patient_ref, probability, risk_index, risk_tier, recommendation,
			model_version, mapping_version, notes, assessed_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, patient_ref, probability, risk_index, risk_tier, recommendation,
		          model_version, mapping_version, notes, assessed_by, assessed_at
	`, input.PatientRef, assessment.Probability, assessment.RiskIndex, assessment.RiskTier,
		assessment.Recommendation, assessment.ModelVersion, assessment.MappingVersion,
		input.Notes, assessedBy).Scan(
		&stored.ID, &stored.PatientRef, &stored.Probability, &stored.RiskIndex, &stored.RiskTier,
		&stored.Recommendation, &stored.ModelVersion, &stored.MappingVersion, &stored.Notes,
		&stored.AssessedBy, &stored.AssessedAt,
	)
	if err != nil {
		security.SendDatabaseError(c, "Failed to store assessment")
		return
	}

	c.JSON(http.StatusCreated, stored)
}

// GetAssessments lists stored assessments with optional filters.
func (rc *RiskController) GetAssessments(c *gin.Context) {
	patientRef := c.Query("patient_ref")
	riskTier := c.Query("risk_tier")
	assessedBy := c.Query("assessed_by")
	date := c.Query("date")
	limitStr := c.DefaultQuery("limit", "50")
	offsetStr := c.DefaultQuery("offset", "0")

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 50
	}
	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		offset = 0
	}

	if riskTier != "" && riskTier != models.TierLow && riskTier != models.TierMedium && riskTier != models.TierHigh {
		security.SendValidationError(c, "risk_tier must be LOW, MEDIUM, or HIGH", nil)
		return
	}

	query := `
		SELECT a.id, a.patient_ref, a.probability, a.risk_index, a.risk_tier,
		       a.recommendation, a.model_version, a.mapping_version, a.notes,
		       a.assessed_by, a.assessed_at,
		       u.first_name, u.last_name
		FROM assessments a
		JOIN users u ON u.id = a.assessed_by
		WHERE 1=1
	`
	args := []interface{}{}
	argIndex := 1

	if patientRef != "" {
		query += fmt.Sprintf(" AND a.patient_ref = $%d", argIndex)
		args = append(args, patientRef)
		argIndex++
	}
	if riskTier != "" {
		query += fmt.Sprintf(" AND a.risk_tier = $%d", argIndex)
		args = append(args, riskTier)
		argIndex++
	}
	if assessedBy != "" {
		query += fmt.Sprintf(" AND a.assessed_by = $%d", argIndex)
		args = append(args, assessedBy)
		argIndex++
	}
	if date != "" {
		query += fmt.Sprintf(" AND DATE(a.assessed_at) = $%d", argIndex)
		args = append(args, date)
		argIndex++
	}

	query += " ORDER BY a.assessed_at DESC LIMIT $" + strconv.Itoa(argIndex) + " OFFSET $" + strconv.Itoa(argIndex+1)
	args = append(args, limit, offset)

	rows, err := config.DB.Query(query, args...)
	if err != nil {
		security.SendDatabaseError(c, "Failed to query assessments")
		return
	}
	defer rows.Close()

	var assessments []gin.H
	for rows.Next() {
		var a models.Assessment
		var firstName, lastName string

		err := rows.Scan(
			&a.ID, &a.PatientRef, &a.Probability, &a.RiskIndex, &a.RiskTier,
			&a.Recommendation, &a.ModelVersion, &a.MappingVersion, &a.Notes,
			&a.AssessedBy, &a.AssessedAt,
			&firstName, &lastName,
		)
		if err != nil {
			security.SendDatabaseError(c, "Failed to read assessment row")
			return
		}

		assessments = append(assessments, gin.H{
			"id":              a.ID,
			"patient_ref":     a.PatientRef,
			"probability":     a.Probability,
			"risk_index":      a.RiskIndex,
			"risk_tier":       a.RiskTier,
			"recommendation":  a.Recommendation,
			"model_version":   a.ModelVersion,
			"mapping_version": a.MappingVersion,
			"notes":           a.Notes,
			"assessed_at":     a.AssessedAt,
			"clinician": gin.H{
				"id":         a.AssessedBy,
				"first_name": firstName,
				"last_name":  lastName,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"assessments": assessments,
		"count":       len(assessments),
	})
}

// GetAssessment returns one stored assessment by id.
func (rc *RiskController) GetAssessment(c *gin.Context) {
	id := c.Param("id")

	var a models.Assessment
	var firstName, lastName string
	err := config.DB.QueryRow(`
		SELECT a.id, a.patient_ref, a.probability, a.risk_index, a.risk_tier,
		       a.recommendation, a.model_version, a.mapping_version, a.notes,
		       a.assessed_by, a.assessed_at,
		       u.first_name, u.last_name
		FROM assessments a
		JOIN users u ON u.id = a.assessed_by
		WHERE a.id = $1
	`, id).Scan(
		&a.ID, &a.PatientRef, &a.Probability, &a.RiskIndex, &a.RiskTier,
		&a.Recommendation, &a.ModelVersion, &a.MappingVersion, &a.Notes,
		&a.AssessedBy, &a.AssessedAt,
		&firstName, &lastName,
	)
	if err != nil {
		security.SendNotFoundError(c, "assessment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":              a.ID,
		"patient_ref":     a.PatientRef,
		"probability":     a.Probability,
		"risk_index":      a.RiskIndex,
		"risk_tier":       a.RiskTier,
		"recommendation":  a.Recommendation,
		"model_version":   a.ModelVersion,
		"mapping_version": a.MappingVersion,
		"notes":           a.Notes,
		"assessed_at":     a.AssessedAt,
		"clinician": gin.H{
			"id":         a.AssessedBy,
			"first_name": firstName,
			"last_name":  lastName,
		},
	})
}

// GetPatientHistory lists a patient's assessments, newest first.
func (rc *RiskController) GetPatientHistory(c *gin.Context) {
	patientRef := c.Param("patient_ref")
	limitStr := c.DefaultQuery("limit", "20")
	offsetStr := c.DefaultQuery("offset", "0")

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		offset = 0
	}

	rows, err := config.DB.Query(`
		SELECT id, probability, risk_index, risk_tier, recommendation,
		       model_version, mapping_version, notes, assessed_by, assessed_at
		FROM assessments
		WHERE patient_ref = $1
		ORDER BY assessed_at DESC
		LIMIT $2 OFFSET $3
	`, patientRef, limit, offset)
	if err != nil {
		security.SendDatabaseError(c, "Failed to query assessment history")
		return
	}
	defer rows.Close()

	var history []gin.H
	for rows.Next() {
		var a models.Assessment
		err := rows.Scan(
			&a.ID, &a.Probability, &a.RiskIndex, &a.RiskTier, &a.Recommendation,
			&a.ModelVersion, &a.MappingVersion, &a.Notes, &a.AssessedBy, &a.AssessedAt,
		)
		if err != nil {
			security.SendDatabaseError(c, "Failed to read assessment row")
			return
		}

		history = append(history, gin.H{
			"id":              a.ID,
			"probability":     a.Probability,
			"risk_index":      a.RiskIndex,
			"risk_tier":       a.RiskTier,
			"recommendation":  a.Recommendation,
			"model_version":   a.ModelVersion,
			"mapping_version": a.MappingVersion,
			"notes":           a.Notes,
			"assessed_by":     a.AssessedBy,
			"assessed_at":     a.AssessedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_ref": patientRef,
		"history":     history,
		"count":       len(history),
	})
}
