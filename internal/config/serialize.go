package config

import (
	"gopkg.in/yaml.v3"

	"github.com/yourusername/alphalab/internal/models"
)

// ToYAML serializes the configuration to its canonical YAML form. The same
// text round-trips through FromYAML, which is what makes stored experiment
// records exactly re-runnable.
func ToYAML(cfg *Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", models.WrapError(models.KindConfig, err, "failed to serialize configuration")
	}
	return string(data), nil
}

// FromYAML reconstructs a configuration from its canonical YAML form and
// validates it. Environment expansion is deliberately skipped: stored
// configs are replayed byte-for-byte as persisted.
func FromYAML(text string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(text), cfg); err != nil {
		return nil, models.WrapError(models.KindConfig, err, "failed to parse stored configuration")
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
