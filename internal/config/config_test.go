package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"GEMINI_API_KEY", "GEMINI_API_KEY_BACKUP", "GROWMINT_API_KEY", "GROWMINT_API_KEY_BACKUP", "GROWMINT_PROVIDER", "GROWMINT_MODEL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)
	c, err := load("", "")
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Provider)
	assert.Equal(t, "local", c.UserID)
	assert.Equal(t, 60, c.AttemptTimeoutSec)
	assert.Equal(t, filepath.Join(home, ".growmint", "growmint.db"), c.DBPath)
	assert.Equal(t, filepath.Join(home, ".growmint", "uploads"), c.UploadsDir)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.PersistArtifacts)

	s := c.Generation()
	assert.Equal(t, 60*time.Second, s.AttemptTimeout)
	assert.Equal(t, 90*time.Second, s.HTTPTimeout)
}

func TestLoad_DotEnvAndPrecedence(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("GEMINI_API_KEY=primary-key\nGEMINI_API_KEY_BACKUP=backup-key\n"), 0o644))
	t.Cleanup(func() {
		_ = os.Unsetenv("GEMINI_API_KEY")
		_ = os.Unsetenv("GEMINI_API_KEY_BACKUP")
	})

	c, err := load("", env)
	require.NoError(t, err)
	assert.Equal(t, "primary-key", c.APIKey)
	assert.Equal(t, "backup-key", c.APIKeyBackup)

	t.Setenv("GROWMINT_API_KEY", "override")
	c, err = load("", "")
	require.NoError(t, err)
	assert.Equal(t, "override", c.APIKey)
}

func TestLoad_FileAndValidation(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: local\nmodel: mistral-nemo\npersist_artifacts: true\n"), 0o644))
	c, err := load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Provider)
	assert.Equal(t, "mistral-nemo", c.Model)
	assert.True(t, c.PersistArtifacts)

	require.NoError(t, os.WriteFile(path, []byte("temperature: 5\n"), 0o644))
	_, err = load(path, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSaveAndSet(t *testing.T) {
	isolate(t)
	c, err := load("", "")
	require.NoError(t, err)

	require.NoError(t, c.Set("grounding_token_budget", "8000"))
	require.NoError(t, c.Set("persist_artifacts", "true"))
	require.NoError(t, c.Set("provider", "openrouter"))
	assert.ErrorIs(t, c.Set("max_tokens", "lots"), domain.ErrValidation)
	assert.ErrorIs(t, c.Set("nope", "1"), domain.ErrValidation)
	assert.ErrorIs(t, c.Set("log_level", "loud"), domain.ErrValidation)
	require.NoError(t, c.Set("log_level", "debug"))

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	require.NoError(t, Save(c, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	back, err := load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 8000, back.GroundingTokenBudget)
	assert.True(t, back.PersistArtifacts)
	assert.Equal(t, "openrouter", back.Provider)
	assert.Equal(t, "debug", back.LogLevel)
}

func TestRedacted(t *testing.T) {
	c := &Global{APIKey: "AIzaSyExampleKey1234", APIKeyBackup: "short"}
	r := c.Redacted()
	assert.Equal(t, "AIza****1234", r.APIKey)
	assert.Equal(t, "****", r.APIKeyBackup)
	assert.Equal(t, "AIzaSyExampleKey1234", c.APIKey)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "attempt_timeout_sec")
	assert.Contains(t, keys, "listen_addr")
	assert.Equal(t, "user_id", keys[0])
}
