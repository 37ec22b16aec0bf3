package model

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LocationKey names a deterministic lookup key policy for locations.
type LocationKey string

const (
	LocationKeyAddressZip   LocationKey = "address_zip"
	LocationKeyOrganization LocationKey = "organization_city_state"
)

// MatchConfig represents configuration for entity matching
type MatchConfig struct {
	// Minimum cosine similarity for a semantic candidate (inclusive)
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	// Maximum number of semantic candidates to retrieve
	TopK int `yaml:"top_k" json:"top_k"`
	// Order in which location lookup keys are tried
	LocationKeys []LocationKey `yaml:"location_keys" json:"location_keys,omitempty"`
}

// DefaultMatchConfig returns a sensible default configuration
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		SimilarityThreshold: 0.75,
		TopK:                5,
		LocationKeys:        []LocationKey{LocationKeyAddressZip, LocationKeyOrganization},
	}
}

// Validate checks the configuration for invalid values
func (c *MatchConfig) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in [0, 1], got %f", c.SimilarityThreshold)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top k must be positive, got %d", c.TopK)
	}
	for _, key := range c.LocationKeys {
		if key != LocationKeyAddressZip && key != LocationKeyOrganization {
			return fmt.Errorf("unknown location key %q", key)
		}
	}
	return nil
}

// LoadMatchConfig reads a MatchConfig from a YAML file, applies environment
// variable overrides (MATCH_SIMILARITY_THRESHOLD, MATCH_TOP_K) and validates it.
// Missing file fields fall back to the defaults.
func LoadMatchConfig(path string) (*MatchConfig, error) {
	config := DefaultMatchConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read match config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse match config YAML: %w", err)
		}
		if len(config.LocationKeys) == 0 {
			config.LocationKeys = DefaultMatchConfig().LocationKeys
		}
	}

	if v := os.Getenv("MATCH_SIMILARITY_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse MATCH_SIMILARITY_THRESHOLD: %w", err)
		}
		config.SimilarityThreshold = threshold
	}
	if v := os.Getenv("MATCH_TOP_K"); v != "" {
		topK, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse MATCH_TOP_K: %w", err)
		}
		config.TopK = topK
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
