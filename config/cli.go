package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	AudioLocal  = "local"
	AudioRemote = "remote"

	WorkspaceFile  = "file"
	WorkspaceRedis = "redis"
)

// CLIConfig is read from config.toml and then overridden by EDUTRANSCRIBE_*
// environment variables.
type CLIConfig struct {
	Server         string `toml:"server"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`

	Workspace    string `toml:"workspace"` // file | redis
	WorkspaceDir string `toml:"workspace_dir"`
	RedisURL     string `toml:"redis_url"`

	Audio         string `toml:"audio"` // local | remote
	SpeechCommand string `toml:"speech_command"`
	Player        string `toml:"player"`

	Language string `toml:"language"`
	Method   string `toml:"method"`
	LogLevel string `toml:"log_level"`
}

func DefaultCLI() CLIConfig {
	return CLIConfig{
		Server:         "http://127.0.0.1:8000",
		TimeoutSeconds: 300,
		Workspace:      WorkspaceFile,
		WorkspaceDir:   filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "edutranscribe", "workspaces"),
		Audio:          AudioRemote,
		Language:       "hi",
		Method:         "google",
		LogLevel:       "warn",
	}
}

// DefaultCLIPath is $XDG_CONFIG_HOME/edutranscribe/config.toml.
func DefaultCLIPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "edutranscribe", "config.toml")
}

// LoadCLI reads path (or the default location). A missing file is not an
// error; the defaults apply.
func LoadCLI(path string) (CLIConfig, string, error) {
	cfg := DefaultCLI()
	if strings.TrimSpace(path) == "" {
		path = DefaultCLIPath()
	}
	path, err := expandHome(path)
	if err != nil {
		return CLIConfig{}, "", err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return CLIConfig{}, "", fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return CLIConfig{}, "", fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if cfg.WorkspaceDir, err = expandHome(cfg.WorkspaceDir); err != nil {
		return CLIConfig{}, "", err
	}
	return cfg, path, cfg.Validate()
}

func (c *CLIConfig) applyEnv() {
	for env, dst := range map[string]*string{
		"EDUTRANSCRIBE_SERVER":        &c.Server,
		"EDUTRANSCRIBE_TOKEN":         &c.Token,
		"EDUTRANSCRIBE_AUDIO":         &c.Audio,
		"EDUTRANSCRIBE_WORKSPACE":     &c.Workspace,
		"EDUTRANSCRIBE_WORKSPACE_DIR": &c.WorkspaceDir,
		"EDUTRANSCRIBE_REDIS_URL":     &c.RedisURL,
		"EDUTRANSCRIBE_LOG_LEVEL":     &c.LogLevel,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
	c.Audio = strings.ToLower(c.Audio)
	c.Workspace = strings.ToLower(c.Workspace)
}

func (c CLIConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server) == "" {
		errs = append(errs, errors.New("server must be set"))
	}
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("timeout_seconds must be positive"))
	}
	switch c.Audio {
	case AudioLocal, AudioRemote:
	default:
		errs = append(errs, fmt.Errorf("audio must be %q or %q, got %q", AudioLocal, AudioRemote, c.Audio))
	}
	switch c.Workspace {
	case WorkspaceFile:
		if c.WorkspaceDir == "" {
			errs = append(errs, errors.New("workspace_dir must be set"))
		}
	case WorkspaceRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis_url is required for the redis workspace"))
		}
	default:
		errs = append(errs, fmt.Errorf("workspace must be %q or %q, got %q", WorkspaceFile, WorkspaceRedis, c.Workspace))
	}
	return errors.Join(errs...)
}

func (c CLIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func xdgDir(env string, fallback ...string) string {
	if base := strings.TrimSpace(os.Getenv(env)); base != "" {
		return base
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(append([]string{os.TempDir()}, fallback...)...)
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
