package models

import "fmt"

// FeatureNames is the canonical column order of the model's training schema.
// The trained booster accepts positional numeric input with no validation of
// its own, so every producer of a FeatureRecord must preserve this order.
var FeatureNames = []string{
	"age",
	"race",
	"gender",
	"time_in_hospital",
	"num_lab_procedures",
	"num_procedures",
	"num_medications",
	"number_outpatient",
	"number_inpatient",
	"number_emergency",
	"admission_type_id",
	"discharge_disposition_id",
	"admission_source_id",
	"diag_1",
	"diag_2",
	"diag_3",
	"A1Cresult",
	"diabetesMed",
	"insulin",
	"change",
	"had_prior_visit",
	"total_visits",
	"procedure_per_day",
	"age_group_numeric",
	"gender_race_combo",
}

// FeatureRecord is one row of model input. Field order mirrors FeatureNames.
type FeatureRecord struct {
	Age                    float64 `json:"age"`
	Race                   float64 `json:"race"`
	Gender                 float64 `json:"gender"`
	TimeInHospital         float64 `json:"time_in_hospital"`
	NumLabProcedures       float64 `json:"num_lab_procedures"`
	NumProcedures          float64 `json:"num_procedures"`
	NumMedications         float64 `json:"num_medications"`
	NumberOutpatient       float64 `json:"number_outpatient"`
	NumberInpatient        float64 `json:"number_inpatient"`
	NumberEmergency        float64 `json:"number_emergency"`
	AdmissionTypeID        float64 `json:"admission_type_id"`
	DischargeDispositionID float64 `json:"discharge_disposition_id"`
	AdmissionSourceID      float64 `json:"admission_source_id"`
	Diag1                  float64 `json:"diag_1"`
	Diag2                  float64 `json:"diag_2"`
	Diag3                  float64 `json:"diag_3"`
	A1CResult              float64 `json:"A1Cresult"`
	DiabetesMed            float64 `json:"diabetesMed"`
	Insulin                float64 `json:"insulin"`
	Change                 float64 `json:"change"`
	HadPriorVisit          float64 `json:"had_prior_visit"`
	TotalVisits            float64 `json:"total_visits"`
	ProcedurePerDay        float64 `json:"procedure_per_day"`
	AgeGroupNumeric        float64 `json:"age_group_numeric"`
	GenderRaceCombo        float64 `json:"gender_race_combo"`
}

// Vector returns the record's values in FeatureNames order.
func (r FeatureRecord) Vector() []float64 {
	return []float64{
		r.Age,
		r.Race,
		r.Gender,
		r.TimeInHospital,
		r.NumLabProcedures,
		r.NumProcedures,
		r.NumMedications,
		r.NumberOutpatient,
		r.NumberInpatient,
		r.NumberEmergency,
		r.AdmissionTypeID,
		r.DischargeDispositionID,
		r.AdmissionSourceID,
		r.Diag1,
		r.Diag2,
		r.Diag3,
		r.A1CResult,
		r.DiabetesMed,
		r.Insulin,
		r.Change,
		r.HadPriorVisit,
		r.TotalVisits,
		r.ProcedurePerDay,
		r.AgeGroupNumeric,
		r.GenderRaceCombo,
	}
}

// FeatureRecordFromVector rebuilds a record from a row of values in
// FeatureNames order. Used by the bulk upload path, where rows arrive as
// plain numbers and bypass the encoder.
func FeatureRecordFromVector(v []float64) (FeatureRecord, error) {
	if len(v) != len(FeatureNames) {
		return FeatureRecord{}, fmt.Errorf("expected %d values, got %d", len(FeatureNames), len(v))
	}
	return FeatureRecord{
		Age:                    v[0],
		Race:                   v[1],
		Gender:                 v[2],
		TimeInHospital:         v[3],
		NumLabProcedures:       v[4],
		NumProcedures:          v[5],
		NumMedications:         v[6],
		NumberOutpatient:       v[7],
		NumberInpatient:        v[8],
		NumberEmergency:        v[9],
		AdmissionTypeID:        v[10],
		DischargeDispositionID: v[11],
		AdmissionSourceID:      v[12],
		Diag1:                  v[13],
		Diag2:                  v[14],
		Diag3:                  v[15],
		A1CResult:              v[16],
		DiabetesMed:            v[17],
		Insulin:                v[18],
		Change:                 v[19],
		HadPriorVisit:          v[20],
		TotalVisits:            v[21],
		ProcedurePerDay:        v[22],
		AgeGroupNumeric:        v[23],
		GenderRaceCombo:        v[24],
	}, nil
}
