package experiments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/alphalab/internal/backtest"
	"github.com/yourusername/alphalab/internal/config"
	telemetry "github.com/yourusername/alphalab/internal/metrics"
)

// Manager builds and persists experiment records and reconstructs run
// configurations for replay.
type Manager struct {
	store  Store
	logger *logrus.Logger
	now    func() time.Time
	newID  func() string
}

// NewManager creates an experiment manager on top of a store.
func NewManager(store Store, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString()[:8] },
	}
}

// NewExperimentID generates a sortable unique experiment id, a UTC timestamp
// followed by a random suffix.
func (m *Manager) NewExperimentID() string {
	return fmt.Sprintf("exp_%s_%s", m.now().UTC().Format("20060102T150405Z"), m.newID())
}

// BuildRecord assembles a record for a completed run. The configuration is
// serialized to its canonical YAML form so the run can be replayed exactly.
func (m *Manager) BuildRecord(cfg *config.Config, metrics backtest.Metrics, artifactPaths []string) (*Record, error) {
	configYAML, err := config.ToYAML(cfg)
	if err != nil {
		return nil, err
	}
	return &Record{
		ExperimentID:  m.NewExperimentID(),
		CreatedAt:     m.now().UTC(),
		StrategyName:  cfg.Strategy.Name,
		ConfigYAML:    configYAML,
		Metrics:       metrics.Map(),
		ArtifactPaths: artifactPaths,
		Tags:          normalizeTags(cfg.Experiments.Tags),
	}, nil
}

// RerunTagPrefix marks a record produced by replaying a stored experiment.
const RerunTagPrefix = "rerun_of:"

// BuildRerunRecord assembles a record for a replay of a stored experiment.
// The replay gets its own id and timestamp; the configuration passed in is
// the stored one, so the two records share their ConfigYAML verbatim, and a
// rerun_of tag keeps the lineage queryable.
func (m *Manager) BuildRerunRecord(cfg *config.Config, sourceExperimentID string, metrics backtest.Metrics, artifactPaths []string) (*Record, error) {
	record, err := m.BuildRecord(cfg, metrics, artifactPaths)
	if err != nil {
		return nil, err
	}
	record.Tags = normalizeTags(append(record.Tags, RerunTagPrefix+sourceExperimentID))
	return record, nil
}

// Persist writes a record to the store.
func (m *Manager) Persist(ctx context.Context, record *Record) error {
	if err := m.store.Insert(ctx, record); err != nil {
		return err
	}
	telemetry.ExperimentsPersisted.Inc()
	return nil
}

// Get retrieves a record by experiment id.
func (m *Manager) Get(ctx context.Context, experimentID string) (*Record, error) {
	return m.store.Get(ctx, experimentID)
}

// List returns up to limit summaries, newest first.
func (m *Manager) List(ctx context.Context, limit int) ([]Summary, error) {
	return m.store.List(ctx, limit)
}

// LoadConfig reconstructs the validated configuration a stored experiment ran
// with. This is the replay path: the stored YAML is authoritative and the
// current config file plays no part.
func (m *Manager) LoadConfig(ctx context.Context, experimentID string) (*config.Config, *Record, error) {
	record, err := m.store.Get(ctx, experimentID)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.FromYAML(record.ConfigYAML)
	if err != nil {
		return nil, nil, err
	}
	return cfg, record, nil
}

func normalizeTags(tags []string) []string {
	var cleaned []string
	seen := map[string]bool{}
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}
