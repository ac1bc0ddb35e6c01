package config

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/termweave/agentlink/errors"
)

// AgentDefinition describes how to launch one ACP agent. Definitions are
// TOML documents; how they are discovered on disk is up to the host, this
// package only parses and resolves them.
type AgentDefinition struct {
	Identity  string `toml:"identity"`
	Name      string `toml:"name"`
	ShortName string `toml:"short_name"`
	Protocol  string `toml:"protocol"`
	Type      string `toml:"type"`
	Active    *bool  `toml:"active"`

	// RunCommands maps a platform key ("linux", "macos", "windows") to the
	// shell command that starts the agent. The wildcard key "*" applies to
	// any platform without a specific entry.
	RunCommands map[string]string `toml:"run_command"`

	// Env is merged into the subprocess environment at launch.
	Env map[string]string `toml:"env"`

	// InstallCommand, when set, installs the agent's ACP connector.
	InstallCommand string `toml:"install_command"`
}

// LoadAgentDefinition parses one agent definition file.
func LoadAgentDefinition(path string) (*AgentDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read agent definition %s", path)
	}
	return ParseAgentDefinition(data)
}

// ParseAgentDefinition parses an agent definition from TOML bytes and
// applies defaults.
func ParseAgentDefinition(data []byte) (*AgentDefinition, error) {
	var def AgentDefinition
	if err := toml.Unmarshal(data, &def); err != nil {
		return nil, errors.Wrapf(err, "invalid agent definition")
	}
	if def.Identity == "" {
		return nil, errors.New("agent definition is missing 'identity'")
	}
	if def.Protocol == "" {
		def.Protocol = "acp"
	}
	if def.Type == "" {
		def.Type = "coding"
	}
	return &def, nil
}

// RunCommand resolves the launch command for the current platform. The
// second return is false when neither a platform entry nor a wildcard
// exists, in which case connecting must fail without spawning anything.
func (d *AgentDefinition) RunCommand() (string, bool) {
	return d.runCommandFor(runtime.GOOS)
}

func (d *AgentDefinition) runCommandFor(goos string) (string, bool) {
	key := "linux"
	switch goos {
	case "darwin":
		key = "macos"
	case "windows":
		key = "windows"
	}
	if cmd, ok := d.RunCommands[key]; ok && cmd != "" {
		return cmd, true
	}
	if cmd, ok := d.RunCommands["*"]; ok && cmd != "" {
		return cmd, true
	}
	return "", false
}

// IsActive reports whether the definition is enabled. Absent means active.
func (d *AgentDefinition) IsActive() bool {
	return d.Active == nil || *d.Active
}

// EnvSlice renders Env as KEY=VALUE pairs for exec.Cmd.
func (d *AgentDefinition) EnvSlice() []string {
	if len(d.Env) == 0 {
		return nil
	}
	pairs := make([]string, 0, len(d.Env))
	for k, v := range d.Env {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, v))
	}
	return pairs
}

// ConnectorInstalled reports whether the first token of the platform run
// command resolves on PATH.
func (d *AgentDefinition) ConnectorInstalled() bool {
	cmd, ok := d.RunCommand()
	if !ok {
		return false
	}
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return false
	}
	_, err := exec.LookPath(fields[0])
	return err == nil
}
