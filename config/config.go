package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/termweave/agentlink/acp"
	"github.com/termweave/agentlink/errors"
	"gopkg.in/yaml.v3"
)

// Config is the host-level configuration.
type Config struct {
	// Identity reported to agents during the initialize handshake.
	ClientName    string `yaml:"client_name"`
	ClientTitle   string `yaml:"client_title"`
	ClientVersion string `yaml:"client_version"`

	// AutoApprove resolves every permission request automatically instead
	// of forwarding it to the user ("yolo" mode).
	AutoApprove bool `yaml:"auto_approve"`

	// Hidden lists glob patterns for paths the host refuses to read on the
	// agent's behalf.
	Hidden []string `yaml:"hidden"`

	LogLevel string `yaml:"log_level"`
}

func defaults() *Config {
	return &Config{
		ClientName:    "agentlink",
		ClientTitle:   "Agentlink",
		ClientVersion: "0.1.0",
		Hidden:        []string{".agentlink", ".agentlink/**"},
		LogLevel:      "info",
	}
}

// Load reads configuration from the user's home directory and the current
// working directory, with the latter taking precedence. Missing files are
// not an error; defaults apply.
func Load() (*Config, error) {
	cfg := defaults()

	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, ".agentlink", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			if err := loadFile(userPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectPath := filepath.Join(wd, ".agentlink", "config.yaml")
	if _, err := os.Stat(projectPath); err == nil {
		if err := loadFile(projectPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	return cfg, nil
}

// loadFile overlays one YAML file onto cfg. Unmarshal only touches fields
// present in the file, which gives the simple user-then-project merge.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// ClientInfo builds the handshake identity from the configured values.
func (c *Config) ClientInfo() acp.ClientInfo {
	return acp.ClientInfo{
		Name:    c.ClientName,
		Title:   c.ClientTitle,
		Version: c.ClientVersion,
	}
}

// SlogLevel maps the configured log level string to a slog.Level. Unknown
// values fall back to Info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
