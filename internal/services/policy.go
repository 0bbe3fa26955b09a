package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/blockid/guardian-server/internal/models"
)

// VerdictBand is the verification outcome for one risk level: whether the
// media counts as authentic, and the confidence reported when the stored
// analysis carries no confidence of its own.
type VerdictBand struct {
	Authentic  bool    `yaml:"authentic"`
	Confidence float64 `yaml:"confidence"`
}

// VerdictPolicy maps the analyzer's risk classification to a verification
// verdict. The mapping is deliberately configuration, not law: deployments
// tune it via a YAML policy file without touching verification logic.
type VerdictPolicy struct {
	Low     VerdictBand `yaml:"low"`
	Medium  VerdictBand `yaml:"medium"`
	High    VerdictBand `yaml:"high"`
	Unknown VerdictBand `yaml:"unknown"`

	// PreferStoredConfidence reports the analyzer's own confidence when the
	// stored analysis has one, falling back to the band value otherwise.
	PreferStoredConfidence bool `yaml:"prefer_stored_confidence"`
}

// DefaultVerdictPolicy returns the built-in mapping: low risk is authentic
// with high confidence, medium risk is authentic with reduced confidence,
// high risk is not authentic. Unscored media is never certified authentic.
func DefaultVerdictPolicy() VerdictPolicy {
	return VerdictPolicy{
		Low:                    VerdictBand{Authentic: true, Confidence: 0.92},
		Medium:                 VerdictBand{Authentic: true, Confidence: 0.70},
		High:                   VerdictBand{Authentic: false, Confidence: 0.30},
		Unknown:                VerdictBand{Authentic: false, Confidence: 0.50},
		PreferStoredConfidence: true,
	}
}

// LoadVerdictPolicy reads a YAML policy file layered over the defaults, so
// a file may override a single band and inherit the rest.
func LoadVerdictPolicy(path string) (VerdictPolicy, error) {
	policy := DefaultVerdictPolicy()

	b, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(b, &policy); err != nil {
		return policy, fmt.Errorf("parse policy file: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return policy, fmt.Errorf("policy file %s: %w", path, err)
	}
	return policy, nil
}

// Validate checks every band confidence is a sane probability.
func (p VerdictPolicy) Validate() error {
	for _, band := range []struct {
		name string
		b    VerdictBand
	}{
		{"low", p.Low},
		{"medium", p.Medium},
		{"high", p.High},
		{"unknown", p.Unknown},
	} {
		if band.b.Confidence < 0 || band.b.Confidence > 1 {
			return fmt.Errorf("band %s: confidence %v outside [0,1]", band.name, band.b.Confidence)
		}
	}
	return nil
}

// Judge maps a stored analysis to (is_authentic, confidence_score). A nil
// analysis is treated as unscored media.
func (p VerdictPolicy) Judge(a *models.DeepfakeAnalysis) (bool, float64) {
	band := p.Unknown
	if a != nil {
		switch a.RiskLevel {
		case models.RiskLow:
			band = p.Low
		case models.RiskMedium:
			band = p.Medium
		case models.RiskHigh:
			band = p.High
		}
	}

	confidence := band.Confidence
	if p.PreferStoredConfidence && a != nil && a.ConfidenceScore > 0 {
		confidence = a.ConfidenceScore
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return band.Authentic, confidence
}
