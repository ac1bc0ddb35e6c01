package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDefinition = `
identity = "claude-code"
name = "Claude Code"
short_name = "claude"
install_command = "npm install -g @zed-industries/claude-code-acp"

[run_command]
"*" = "claude-code-acp"
windows = "claude-code-acp.cmd"

[env]
ACP_LOG = "debug"
`

func TestParseAgentDefinition(t *testing.T) {
	def, err := ParseAgentDefinition([]byte(sampleDefinition))
	require.NoError(t, err)

	assert.Equal(t, "claude-code", def.Identity)
	assert.Equal(t, "Claude Code", def.Name)
	assert.Equal(t, "claude", def.ShortName)
	assert.Equal(t, "acp", def.Protocol, "protocol defaults to acp")
	assert.Equal(t, "coding", def.Type, "type defaults to coding")
	assert.True(t, def.IsActive(), "absent active means active")
	assert.Equal(t, []string{"ACP_LOG=debug"}, def.EnvSlice())
}

func TestParseAgentDefinitionRequiresIdentity(t *testing.T) {
	_, err := ParseAgentDefinition([]byte(`name = "anonymous"`))
	assert.Error(t, err)
}

func TestParseAgentDefinitionRejectsBadTOML(t *testing.T) {
	_, err := ParseAgentDefinition([]byte(`identity = `))
	assert.Error(t, err)
}

func TestRunCommandPlatformResolution(t *testing.T) {
	def := &AgentDefinition{RunCommands: map[string]string{
		"linux":   "run-linux",
		"macos":   "run-macos",
		"windows": "run-windows",
	}}

	for goos, want := range map[string]string{
		"linux":   "run-linux",
		"darwin":  "run-macos",
		"windows": "run-windows",
		"freebsd": "run-linux", // unrecognized platforms use the linux entry
	} {
		cmd, ok := def.runCommandFor(goos)
		require.True(t, ok, goos)
		assert.Equal(t, want, cmd, goos)
	}
}

func TestRunCommandWildcardFallback(t *testing.T) {
	def := &AgentDefinition{RunCommands: map[string]string{"*": "run-anywhere"}}
	cmd, ok := def.runCommandFor("linux")
	require.True(t, ok)
	assert.Equal(t, "run-anywhere", cmd)
}

func TestRunCommandMissing(t *testing.T) {
	def := &AgentDefinition{}
	_, ok := def.runCommandFor("linux")
	assert.False(t, ok)

	def = &AgentDefinition{RunCommands: map[string]string{"windows": "only-windows"}}
	_, ok = def.runCommandFor("linux")
	assert.False(t, ok)
}

func TestInactiveDefinition(t *testing.T) {
	inactive := false
	def := &AgentDefinition{Identity: "x", Active: &inactive}
	assert.False(t, def.IsActive())
}

func TestLoadAgentDefinitionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claude.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDefinition), 0644))

	def, err := LoadAgentDefinition(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-code", def.Identity)

	_, err = LoadAgentDefinition(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
