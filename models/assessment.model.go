package models

import (
	"time"
)

// ClinicalInput is the discharge-time form a clinician fills in. Bounds on
// the binding tags mirror the form controls; categorical fields are checked
// against the mapping tables by the encoder, not here.
type ClinicalInput struct {
	AgeGroup             string `json:"age_group" binding:"required"`
	Race                 string `json:"race" binding:"required"`
	Gender               string `json:"gender" binding:"required"`
	TimeInHospital       int    `json:"time_in_hospital" binding:"required,min=1,max=30"`
	NumLabProcedures     *int   `json:"num_lab_procedures" binding:"omitempty,min=0,max=150"`
	NumProcedures        int    `json:"num_procedures" binding:"min=0,max=6"`
	NumMedications       int    `json:"num_medications" binding:"required,min=1,max=30"`
	PriorInpatientVisits int    `json:"prior_inpatient_visits" binding:"min=0,max=10"`
	DischargeDisposition string `json:"discharge_disposition" binding:"required"`
	MedicationChange     string `json:"medication_change" binding:"required"`
	A1CResult            string `json:"a1c_result" binding:"required"`
	InsulinStatus        string `json:"insulin_status" binding:"required"`
	PrimaryDiagnosis     int    `json:"primary_diagnosis" binding:"required,min=100,max=999"`
}

// Risk tiers.
const (
	TierLow    = "LOW"
	TierMedium = "MEDIUM"
	TierHigh   = "HIGH"
)

// RiskAssessment is the scored result returned for one submission. The
// predict endpoints return it transiently; the assessments endpoints persist
// it alongside the patient reference.
type RiskAssessment struct {
	Probability    float64 `json:"probability"`
	RiskIndex      int     `json:"risk_index"`
	RiskTier       string  `json:"risk_tier"`
	Recommendation string  `json:"recommendation"`
	ModelVersion   string  `json:"model_version"`
	MappingVersion int     `json:"mapping_version"`
}

// Assessment is a persisted audit record of one scored submission.
type Assessment struct {
	ID             string    `json:"id" db:"id"`
	PatientRef     string    `json:"patient_ref" db:"patient_ref"`
	Probability    float64   `json:"probability" db:"probability"`
	RiskIndex      int       `json:"risk_index" db:"risk_index"`
	RiskTier       string    `json:"risk_tier" db:"risk_tier"`
	Recommendation string    `json:"recommendation" db:"recommendation"`
	ModelVersion   string    `json:"model_version" db:"model_version"`
	MappingVersion int       `json:"mapping_version" db:"mapping_version"`
	Notes          *string   `json:"notes" db:"notes"`
	AssessedBy     string    `json:"assessed_by" db:"assessed_by"`
	AssessedAt     time.Time `json:"assessed_at" db:"assessed_at"`
}

// BatchRowResult is the scored outcome of one uploaded CSV row.
type BatchRowResult struct {
	Row            int     `json:"row"`
	Probability    float64 `json:"probability"`
	RiskIndex      int     `json:"risk_index"`
	RiskTier       string  `json:"risk_tier"`
	Recommendation string  `json:"recommendation"`
}
