package experiments

import (
	"encoding/json"
	"runtime"
	"sort"
	"time"

	"github.com/yourusername/alphalab/internal/models"
)

// ManifestName is the filename a run manifest is written under inside the
// run's artifact directory.
const ManifestName = "run_manifest.json"

// Manifest records the inputs and outcome of one command invocation so a
// run's artifact directory is self-describing: what ran, on what, and how it
// ended.
type Manifest struct {
	ManifestVersion int                 `json:"manifest_version"`
	Command         string              `json:"command"`
	RunID           string              `json:"run_id"`
	Status          string              `json:"status"`
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      time.Time           `json:"finished_at"`
	DurationSeconds float64             `json:"duration_seconds"`
	Environment     ManifestEnvironment `json:"environment"`
	Inputs          ManifestInputs      `json:"inputs"`
	Context         ManifestContext     `json:"context"`
	Result          ManifestResult      `json:"result"`
	Failure         string              `json:"failure,omitempty"`

	clock func() time.Time
}

// ManifestEnvironment identifies the toolchain and platform of the run.
type ManifestEnvironment struct {
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// ManifestInputs names what the command was invoked with.
type ManifestInputs struct {
	ConfigPath         string `json:"config_path,omitempty"`
	SourceExperimentID string `json:"source_experiment_id,omitempty"`
}

// ManifestContext describes the strategy and data universe of the run.
type ManifestContext struct {
	StrategyName string   `json:"strategy_name"`
	Symbols      []string `json:"symbols"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
}

// ManifestResult holds the outcome of a successful run.
type ManifestResult struct {
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	ArtifactPaths []string           `json:"artifact_paths,omitempty"`
}

// NewManifest starts a manifest for one command run.
func NewManifest(command, runID string) *Manifest {
	m := &Manifest{
		ManifestVersion: 1,
		Command:         command,
		RunID:           runID,
		Status:          "running",
		Environment: ManifestEnvironment{
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock: time.Now,
	}
	m.StartedAt = m.clock().UTC()
	return m
}

// SetInputs records the command inputs. sourceExperimentID is empty unless
// the run replays a stored experiment.
func (m *Manifest) SetInputs(configPath, sourceExperimentID string) {
	m.Inputs = ManifestInputs{ConfigPath: configPath, SourceExperimentID: sourceExperimentID}
}

// SetContext records the strategy and data range the run covers. Symbols are
// reported sorted.
func (m *Manifest) SetContext(strategyName string, symbols []string, start, end string) {
	sorted := append([]string(nil), symbols...)
	sort.Strings(sorted)
	m.Context = ManifestContext{StrategyName: strategyName, Symbols: sorted, Start: start, End: end}
}

// MarkSuccess records the run's metrics and artifacts.
func (m *Manifest) MarkSuccess(metrics map[string]float64, artifactPaths []string) {
	m.Status = "success"
	m.Result = ManifestResult{
		Metrics:       metrics,
		ArtifactPaths: append([]string(nil), artifactPaths...),
	}
	m.Failure = ""
}

// MarkFailure records a failed run.
func (m *Manifest) MarkFailure(err error) {
	m.Status = "failed"
	m.Result = ManifestResult{}
	if err != nil {
		m.Failure = err.Error()
	}
}

// Render finalizes the timing fields and returns the manifest as indented
// JSON, ready to be written next to the run's other artifacts.
func (m *Manifest) Render() (string, error) {
	finished := m.clock().UTC()
	m.FinishedAt = finished
	m.DurationSeconds = finished.Sub(m.StartedAt).Seconds()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", models.WrapError(models.KindExperimentStore, err, "failed to render run manifest")
	}
	return string(data) + "\n", nil
}
