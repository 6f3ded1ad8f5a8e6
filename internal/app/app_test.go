package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markbook/internal/config"
	"markbook/internal/gate"
)

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "dev", LogLevel: "info", HTTPAddr: ":0"},
		Auth: config.AuthConfig{Mode: "credentials"},
		Workbook: config.WorkbookConfig{
			FetchTimeoutSeconds: 30,
			CacheTTLMinutes:     10,
		},
	}
}

func TestNew_MinimalConfig(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)
	require.NotNil(t, a.Service())
	assert.Nil(t, a.watcher)
	assert.Equal(t, "(none, waiting for upload)", a.Summary.WorkbookSource)
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNew_WatcherWiring(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	cfg := testConfig()
	cfg.Workbook.Path = path
	cfg.Workbook.Watch = true

	a, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, a.watcher)
	assert.Equal(t, path, a.Summary.WorkbookSource)
	assert.True(t, a.Summary.Watch)
}

func TestNew_VocabularyRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabulary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields:\n  course:\n    - module\n    - unit\n"), 0o644))

	cfg := testConfig()
	cfg.Vocabulary.Path = path

	a, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, path, a.Summary.VocabularyPath)
	assert.Equal(t, 2, a.Summary.ExtraSpellings)
}

func TestNew_BadVocabularyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabulary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields:\n  homeroom:\n    - hr\n"), 0o644))

	cfg := testConfig()
	cfg.Vocabulary.Path = path

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestGateFromConfig(t *testing.T) {
	g, err := gateFromConfig(config.AuthConfig{Mode: "shared", SharedCode: "x", RequireSecret: true})
	require.NoError(t, err)
	assert.Equal(t, gate.ModeShared, g.Mode)
	assert.Equal(t, "x", g.SharedCode)
	assert.True(t, g.RequireSecret)

	g, err = gateFromConfig(config.AuthConfig{})
	require.NoError(t, err)
	assert.Equal(t, gate.ModeCredentials, g.Mode)

	_, err = gateFromConfig(config.AuthConfig{Mode: "magic"})
	assert.Error(t, err)
}
