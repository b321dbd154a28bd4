package risk

import (
	"fmt"

	"readmission-service/models"
)

// Predictor is the opaque scoring boundary. The service's only contract
// with it: hand over a record in the training schema, get back a
// probability in [0,1].
type Predictor interface {
	Predict(models.FeatureRecord) (float64, error)
	Version() string
}

// Service owns the encode -> score -> classify pipeline. Constructed once
// at startup with the loaded model handle and passed by reference to the
// controllers; the model is read-only shared state, so concurrent requests
// need no locking.
type Service struct {
	encoder    *Encoder
	classifier *Classifier
	predictor  Predictor
	mappingVer int
}

func NewService(mappings MappingConfig, predictor Predictor) *Service {
	return &Service{
		encoder:    NewEncoder(mappings),
		classifier: NewClassifier(mappings.Thresholds),
		predictor:  predictor,
		mappingVer: mappings.Version,
	}
}

// Assess runs one form submission through the full pipeline.
func (s *Service) Assess(in models.ClinicalInput) (models.RiskAssessment, error) {
	record, err := s.encoder.Encode(in)
	if err != nil {
		return models.RiskAssessment{}, err
	}
	return s.Score(record)
}

// Score classifies an already-encoded record. The bulk upload path enters
// here, bypassing the encoder.
func (s *Service) Score(record models.FeatureRecord) (models.RiskAssessment, error) {
	p, err := s.predictor.Predict(record)
	if err != nil {
		return models.RiskAssessment{}, fmt.Errorf("model prediction failed: %w", err)
	}
	if p < 0 || p > 1 {
		return models.RiskAssessment{}, fmt.Errorf("model returned probability %v outside [0,1]", p)
	}

	index, tier, advice := s.classifier.Classify(p)
	return models.RiskAssessment{
		Probability:    p,
		RiskIndex:      index,
		RiskTier:       tier,
		Recommendation: advice,
		ModelVersion:   s.predictor.Version(),
		MappingVersion: s.mappingVer,
	}, nil
}

// MappingVersion reports the active mapping-table config version.
func (s *Service) MappingVersion() int { return s.mappingVer }

// ModelVersion reports the loaded model artifact's version string.
func (s *Service) ModelVersion() string { return s.predictor.Version() }
