package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MappingConfig holds every lookup table and cutpoint the encoder and
// classifier depend on. The tables are data, not code: schema drift between
// model versions becomes a config diff. Version ties a config to the model
// generation it was authored for.
type MappingConfig struct {
	Version int `yaml:"version"`

	AgeGroups             map[string]float64 `yaml:"age_groups"`
	Races                 map[string]float64 `yaml:"races"`
	Genders               map[string]float64 `yaml:"genders"`
	DischargeDispositions map[string]float64 `yaml:"discharge_dispositions"`
	A1CResults            map[string]float64 `yaml:"a1c_results"`
	InsulinStatuses       map[string]float64 `yaml:"insulin_statuses"`
	MedicationChange      map[string]float64 `yaml:"medication_change"`

	// Placeholder constants for schema fields the form does not collect.
	Defaults PlaceholderDefaults `yaml:"defaults"`

	Thresholds TierThresholds `yaml:"thresholds"`
}

// PlaceholderDefaults fill the model schema positions that have no form
// control. Known fidelity gap: these stand in for measurements the form
// never asks for.
type PlaceholderDefaults struct {
	NumLabProcedures float64 `yaml:"num_lab_procedures"`
	NumberOutpatient float64 `yaml:"number_outpatient"`
	NumberEmergency  float64 `yaml:"number_emergency"`
	AdmissionTypeID  float64 `yaml:"admission_type_id"`
	AdmissionSource  float64 `yaml:"admission_source_id"`
	Diag2            float64 `yaml:"diag_2"`
	Diag3            float64 `yaml:"diag_3"`
	DiabetesMed      float64 `yaml:"diabetes_med"`
}

// TierThresholds are the risk-index cutpoints. Strict upper bounds:
// index < Medium is LOW, index < High is MEDIUM, anything else HIGH.
type TierThresholds struct {
	Medium int `yaml:"medium"`
	High   int `yaml:"high"`
}

// DefaultMappings returns the compiled-in mapping tables matching the
// shipped model artifact.
func DefaultMappings() MappingConfig {
	return MappingConfig{
		Version: 1,
		AgeGroups: map[string]float64{
			"[40-50)":  45,
			"[50-60)":  55,
			"[60-70)":  65,
			"[70-80)":  75,
			"[80-90)":  85,
			"[90-100)": 95,
		},
		Races: map[string]float64{
			"Caucasian":       0,
			"AfricanAmerican": 1,
			"Hispanic":        2,
			"Asian":           3,
			"Other":           4,
		},
		Genders: map[string]float64{
			"Female": 0,
			"Male":   1,
		},
		DischargeDispositions: map[string]float64{
			"Home":            1,
			"Rehab":           3,
			"Skilled Nursing": 5,
			"Other":           6,
		},
		A1CResults: map[string]float64{
			"Norm": 0,
			">7":   1,
			">8":   2,
		},
		InsulinStatuses: map[string]float64{
			"No":     0,
			"Steady": 1,
			"Up":     2,
			"Down":   3,
		},
		MedicationChange: map[string]float64{
			"Yes": 1,
			"No":  0,
		},
		Defaults: PlaceholderDefaults{
			NumLabProcedures: 40,
			NumberOutpatient: 0,
			NumberEmergency:  0,
			AdmissionTypeID:  1,
			AdmissionSource:  1,
			Diag2:            250,
			Diag3:            250,
			DiabetesMed:      1,
		},
		Thresholds: TierThresholds{Medium: 30, High: 60},
	}
}

// LoadMappings reads a mapping config from a YAML file. A missing path is
// not an error: the compiled-in defaults apply.
func LoadMappings(path string) (MappingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultMappings(), nil
		}
		return MappingConfig{}, fmt.Errorf("read mappings %s: %w", path, err)
	}

	var cfg MappingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return MappingConfig{}, fmt.Errorf("parse mappings %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return MappingConfig{}, fmt.Errorf("invalid mappings %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configs that would leave the encoder or classifier with
// an empty domain or inverted cutpoints.
func (m MappingConfig) Validate() error {
	if m.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", m.Version)
	}
	tables := map[string]map[string]float64{
		"age_groups":             m.AgeGroups,
		"races":                  m.Races,
		"genders":                m.Genders,
		"discharge_dispositions": m.DischargeDispositions,
		"a1c_results":            m.A1CResults,
		"insulin_statuses":       m.InsulinStatuses,
		"medication_change":      m.MedicationChange,
	}
	for name, table := range tables {
		if len(table) == 0 {
			return fmt.Errorf("table %s is empty", name)
		}
	}
	t := m.Thresholds
	if t.Medium <= 0 || t.High <= t.Medium || t.High > 100 {
		return fmt.Errorf("thresholds must satisfy 0 < medium < high <= 100, got medium=%d high=%d", t.Medium, t.High)
	}
	return nil
}
