package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "zstd", cfg.Output.Codec)
	assert.Positive(t, cfg.Sampling.Workers)
	assert.Equal(t, 4, cfg.Validation.Margin)
	assert.Equal(t, 0.05, cfg.Validation.MaxErrorPercent)
}

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Phantom, cfg.Phantom)
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridmask.yaml")
	yml := `
sampling:
  subSamples: 4
  workers: 2
output:
  codec: lz4
phantom:
  structure: box
  size: [8, 8, 8]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Sampling.SubSamples)
	assert.Equal(t, 2, cfg.Sampling.Workers)
	assert.Equal(t, "lz4", cfg.Output.Codec)
	assert.Equal(t, "box", cfg.Phantom.Structure)
	assert.Equal(t, [3]int{8, 8, 8}, cfg.Phantom.Size)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultConfig().Validation, cfg.Validation)
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sampling:\n  subSamples: 1\n"), 0644))
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "subSamples")

	require.NoError(t, os.WriteFile(path, []byte("sampling: [\n"), 0644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "error parsing config file")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Codec = "gzip"
	cfg.Phantom.Resolution[1] = 0
	cfg.Phantom.Dose.Step = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "output.codec")
	assert.ErrorContains(t, err, "phantom.resolution[1]")
	assert.ErrorContains(t, err, "phantom.dose.step")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gridmask.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
