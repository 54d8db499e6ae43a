// Package experiments persists research runs so any result can be traced to
// the exact configuration that produced it and re-run byte-for-byte.
package experiments

import (
	"strings"
	"time"

	"github.com/yourusername/alphalab/internal/models"
)

// Record is one persisted experiment. ConfigYAML is the full canonical
// configuration of the run; re-running a record means parsing that text,
// never re-reading the current config file.
type Record struct {
	ExperimentID  string             `json:"experiment_id"`
	CreatedAt     time.Time          `json:"created_at"`
	StrategyName  string             `json:"strategy_name"`
	ConfigYAML    string             `json:"config_yaml"`
	Metrics       map[string]float64 `json:"metrics"`
	ArtifactPaths []string           `json:"artifact_paths,omitempty"`
	Tags          []string           `json:"tags,omitempty"`
}

// Validate checks record integrity before persistence.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.ExperimentID) == "" {
		return models.NewExperimentStoreError("experiment id must not be empty")
	}
	if r.CreatedAt.IsZero() {
		return models.NewExperimentStoreError("experiment %s has no creation timestamp", r.ExperimentID)
	}
	if strings.TrimSpace(r.StrategyName) == "" {
		return models.NewExperimentStoreError("experiment %s has no strategy name", r.ExperimentID)
	}
	if strings.TrimSpace(r.ConfigYAML) == "" {
		return models.NewExperimentStoreError("experiment %s has no stored configuration", r.ExperimentID)
	}
	return nil
}

// Summary is the listing view of a record.
type Summary struct {
	ExperimentID string    `json:"experiment_id"`
	CreatedAt    time.Time `json:"created_at"`
	StrategyName string    `json:"strategy_name"`
	SharpeRatio  float64   `json:"sharpe_ratio"`
	Tags         []string  `json:"tags,omitempty"`
}
