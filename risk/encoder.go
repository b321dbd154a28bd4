package risk

import (
	"fmt"

	"readmission-service/models"
)

// OutOfDomainError reports a categorical form value that has no entry in its
// mapping table. Rejected explicitly rather than scored against the model.
type OutOfDomainError struct {
	Field string
	Value string
}

func (e *OutOfDomainError) Error() string {
	return fmt.Sprintf("value %q is not in the %s domain", e.Value, e.Field)
}

// Encoder maps a clinical form submission onto the model's 25-field schema.
// Pure and deterministic: same input, same record, no hidden state.
type Encoder struct {
	mappings MappingConfig
}

func NewEncoder(mappings MappingConfig) *Encoder {
	return &Encoder{mappings: mappings}
}

// Encode produces exactly one FeatureRecord for a valid input, or an
// OutOfDomainError naming the first categorical field that fails lookup.
func (e *Encoder) Encode(in models.ClinicalInput) (models.FeatureRecord, error) {
	m := e.mappings

	age, err := lookup(m.AgeGroups, "age_group", in.AgeGroup)
	if err != nil {
		return models.FeatureRecord{}, err
	}
	race, err := lookup(m.Races, "race", in.Race)
	if err != nil {
		return models.FeatureRecord{}, err
	}
	gender, err := lookup(m.Genders, "gender", in.Gender)
	if err != nil {
		return models.FeatureRecord{}, err
	}
	discharge, err := lookup(m.DischargeDispositions, "discharge_disposition", in.DischargeDisposition)
	if err != nil {
		return models.FeatureRecord{}, err
	}
	a1c, err := lookup(m.A1CResults, "a1c_result", in.A1CResult)
	if err != nil {
		return models.FeatureRecord{}, err
	}
	insulin, err := lookup(m.InsulinStatuses, "insulin_status", in.InsulinStatus)
	if err != nil {
		return models.FeatureRecord{}, err
	}
	change, err := lookup(m.MedicationChange, "medication_change", in.MedicationChange)
	if err != nil {
		return models.FeatureRecord{}, err
	}

	labProcedures := m.Defaults.NumLabProcedures
	if in.NumLabProcedures != nil {
		labProcedures = float64(*in.NumLabProcedures)
	}

	hadPriorVisit := 0.0
	if in.PriorInpatientVisits > 0 {
		hadPriorVisit = 1.0
	}

	// Denominator floored at 1 so a zero-day stay cannot divide by zero.
	stay := in.TimeInHospital
	if stay < 1 {
		stay = 1
	}

	return models.FeatureRecord{
		Age:                    age,
		Race:                   race,
		Gender:                 gender,
		TimeInHospital:         float64(in.TimeInHospital),
		NumLabProcedures:       labProcedures,
		NumProcedures:          float64(in.NumProcedures),
		NumMedications:         float64(in.NumMedications),
		NumberOutpatient:       m.Defaults.NumberOutpatient,
		NumberInpatient:        float64(in.PriorInpatientVisits),
		NumberEmergency:        m.Defaults.NumberEmergency,
		AdmissionTypeID:        m.Defaults.AdmissionTypeID,
		DischargeDispositionID: discharge,
		AdmissionSourceID:      m.Defaults.AdmissionSource,
		Diag1:                  float64(in.PrimaryDiagnosis),
		Diag2:                  m.Defaults.Diag2,
		Diag3:                  m.Defaults.Diag3,
		A1CResult:              a1c,
		DiabetesMed:            m.Defaults.DiabetesMed,
		Insulin:                insulin,
		Change:                 change,
		HadPriorVisit:          hadPriorVisit,
		TotalVisits:            float64(in.PriorInpatientVisits),
		ProcedurePerDay:        float64(in.NumProcedures) / float64(stay),
		AgeGroupNumeric:        age,
		GenderRaceCombo:        gender*10 + race,
	}, nil
}

func lookup(table map[string]float64, field, value string) (float64, error) {
	v, ok := table[value]
	if !ok {
		return 0, &OutOfDomainError{Field: field, Value: value}
	}
	return v, nil
}
