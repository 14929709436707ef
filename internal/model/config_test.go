package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("returns defaults when the file is missing", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)

		assert.Equal(t, OnConflictAsk, cfg.Import.OnConflict)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "mailshelf.db", filepath.Base(cfg.Store.Path))
	})

	t.Run("reads values from yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "store:\n  path: /tmp/mail.db\nimport:\n  on_conflict: skip\nlog:\n  level: debug\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "/tmp/mail.db", cfg.Store.Path)
		assert.Equal(t, OnConflictSkip, cfg.Import.OnConflict)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, ".", cfg.Export.Dir)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("MAILSHELF_IMPORT_ON_CONFLICT", "overwrite")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, OnConflictOverwrite, cfg.Import.OnConflict)
	})

	t.Run("rejects an unknown conflict policy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("import:\n  on_conflict: merge\n"), 0o600))

		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "on_conflict")
	})
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Store.Path = "/data/shelf.db"
	cfg.Import.OnConflict = OnConflictSkip

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/shelf.db", loaded.Store.Path)
	assert.Equal(t, OnConflictSkip, loaded.Import.OnConflict)
}
