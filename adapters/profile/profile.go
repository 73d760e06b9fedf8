// Package profile loads named cleaning profiles from YAML. A profile is a
// partial cleaning configuration, optionally with weighting settings, applied
// on top of the process defaults.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"surveyclean/domain/cleaning"
	"surveyclean/domain/stats"

	"gopkg.in/yaml.v3"
)

// Profile is one YAML document
type Profile struct {
	Name     string              `yaml:"name"`
	Cleaning cleaning.Override   `yaml:"cleaning"`
	Weights  *stats.WeightConfig `yaml:"weights,omitempty"`
}

// Parse decodes a profile. Unknown keys are rejected so typos surface.
func Parse(data []byte) (*Profile, error) {
	p := &Profile{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return p, p.Validate()
}

// Load reads and parses the profile at path
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Validate rejects thresholds that could never be meant
func (p *Profile) Validate() error {
	if t := p.Cleaning.OutlierThreshold; t != nil {
		if *t <= 0 || math.IsNaN(*t) || math.IsInf(*t, 0) {
			return fmt.Errorf("outlier_threshold must be positive, got %v", *t)
		}
	}
	return nil
}

// Apply layers the profile's cleaning settings over base
func (p *Profile) Apply(base cleaning.Config) cleaning.Config {
	if p == nil {
		return base
	}
	return p.Cleaning.Apply(base)
}

// ApplyWeights returns the profile's weighting settings, or base when it has none
func (p *Profile) ApplyWeights(base stats.WeightConfig) stats.WeightConfig {
	if p == nil || p.Weights == nil {
		return base
	}
	return *p.Weights
}
