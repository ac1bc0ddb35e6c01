package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client_name: myhost\nauto_approve: true\n"), 0644))

	cfg := defaults()
	require.NoError(t, loadFile(path, cfg))

	assert.Equal(t, "myhost", cfg.ClientName)
	assert.True(t, cfg.AutoApprove)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, "Agentlink", cfg.ClientTitle)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestClientInfo(t *testing.T) {
	cfg := defaults()
	info := cfg.ClientInfo()
	assert.Equal(t, "agentlink", info.Name)
	assert.Equal(t, "Agentlink", info.Title)
	assert.NotEmpty(t, info.Version)
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
		"":      slog.LevelInfo,
	} {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), "level %q", in)
	}
}

func TestDefaultsHideConfigDirectory(t *testing.T) {
	cfg := defaults()
	assert.Contains(t, cfg.Hidden, ".agentlink")
}
