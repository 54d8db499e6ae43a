package experiments

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestSuccessLifecycle(t *testing.T) {
	m := NewManifest("run", "exp_20240304T050607Z_abcd1234")
	m.SetInputs("config/config.yaml", "")
	m.SetContext("trend_following", []string{"NQ", "ES"}, "2020-01-02", "2023-12-29")
	m.MarkSuccess(
		map[string]float64{"sharpe_ratio": 1.25},
		[]string{"artifacts/exp_x/equity_curve.csv"},
	)
	m.clock = func() time.Time { return m.StartedAt.Add(1500 * time.Millisecond) }

	content, err := m.Render()
	require.NoError(t, err)
	assert.Equal(t, "success", m.Status)
	assert.InDelta(t, 1.5, m.DurationSeconds, 1e-9)

	var decoded Manifest
	require.NoError(t, json.Unmarshal([]byte(content), &decoded))
	assert.Equal(t, 1, decoded.ManifestVersion)
	assert.Equal(t, "run", decoded.Command)
	assert.Equal(t, "exp_20240304T050607Z_abcd1234", decoded.RunID)
	assert.Equal(t, []string{"ES", "NQ"}, decoded.Context.Symbols)
	assert.Equal(t, 1.25, decoded.Result.Metrics["sharpe_ratio"])
	assert.NotEmpty(t, decoded.Environment.GoVersion)
	assert.Empty(t, decoded.Failure)
}

func TestManifestRerunInputs(t *testing.T) {
	m := NewManifest("rerun", "exp_new")
	m.SetInputs("config/config.yaml", "exp_old")

	content, err := m.Render()
	require.NoError(t, err)

	var decoded Manifest
	require.NoError(t, json.Unmarshal([]byte(content), &decoded))
	assert.Equal(t, "exp_old", decoded.Inputs.SourceExperimentID)
}

func TestManifestFailure(t *testing.T) {
	m := NewManifest("robustness", "exp_y")
	m.MarkFailure(errors.New("all 4 scenarios failed"))

	content, err := m.Render()
	require.NoError(t, err)

	var decoded Manifest
	require.NoError(t, json.Unmarshal([]byte(content), &decoded))
	assert.Equal(t, "failed", decoded.Status)
	assert.Equal(t, "all 4 scenarios failed", decoded.Failure)
	assert.Empty(t, decoded.Result.Metrics)
}
