package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Target int               `json:"target"`
	Pacing string            `json:"pacing"`
	Tags   map[string]string `json:"tags"`
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "run.json5"), []byte(`{
		// comments and trailing commas are allowed
		target: 10,
		pacing: "2s",
		tags: {a: "1"},
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "run.local.json5"), []byte(`{target: 25}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "run.json5"))
	require.NoError(t, err)
	require.Equal(t, 25, cfg.Target)
	require.Equal(t, "2s", cfg.Pacing)
	require.Equal(t, "1", cfg.Tags["a"])
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	require.Equal(t, filepath.Join(dir, "run.local.json5"), LocalPath(filepath.Join(dir, "run.json5")))

	err := os.WriteFile(filepath.Join(dir, "run.local.json5"), []byte(`{pacing: "5s"}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "run.json5"))
	require.NoError(t, err)
	require.Equal(t, "5s", cfg.Pacing)
	require.Zero(t, cfg.Target)
}

func TestReadConfigParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{target: `), 0600))

	_, err := ReadConfig[testConfig](path)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}
