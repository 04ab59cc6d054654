package doku

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/tailscale/hujson"
)

// SyncConfig holds the command lines run by the sync operations. Each entry
// is parsed like a shell command line; the commands of one operation run in
// order and stop at the first failure.
type SyncConfig struct {
	Status []string `json:"status,omitempty"`
	Pull   []string `json:"pull,omitempty"`
	Push   []string `json:"push,omitempty"`
}

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	DataDir  string     `json:"data_dir"`
	Listen   string     `json:"listen,omitempty"`
	LogLevel string     `json:"log_level,omitempty"`
	Sync     SyncConfig `json:"sync"`

	// Resolved (computed, not serialized)
	EffectiveCwd string        `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	DataDirAbs   string        `json:"-"` // Absolute path to the data directory
	Sources      ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DataDir:  "data",
		Listen:   "127.0.0.1:5050",
		LogLevel: "info",
		Sync: SyncConfig{
			Status: []string{"git status --short"},
			Pull:   []string{"git pull"},
			Push:   []string{"git add -A", `git commit -m "doku sync"`, "git push"},
		},
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".doku.json"

// Environment variables that override config files.
const (
	EnvDataDir = "DOKU_DATA_DIR"
	EnvListen  = "DOKU_LISTEN"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/doku/config.json if set, otherwise ~/.config/doku/config.json.
// Returns empty string if home directory cannot be determined.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "doku", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "doku", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	DataDirOverride string            // --data-dir flag value; empty means no override
	Env             map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/doku/config.json or $XDG_CONFIG_HOME/doku/config.json)
// 3. Project config file at default location (.doku.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty)
// 5. Environment (DOKU_DATA_DIR, DOKU_LISTEN)
// 6. CLI overrides (--data-dir).
//
// All paths in the returned Config are resolved to absolute paths.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	globalCfg, globalPath, err := loadGlobalConfig(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	cfg = mergeConfig(cfg, Config{DataDir: input.Env[EnvDataDir], Listen: input.Env[EnvListen]})
	cfg = mergeConfig(cfg, Config{DataDir: input.DataDirOverride})

	validateErr := validateConfig(cfg)
	if validateErr != nil {
		return Config{}, validateErr
	}

	cfg.EffectiveCwd = workDir
	cfg.DataDirAbs = resolvePath(workDir, cfg.DataDir)

	return cfg, nil
}

func resolvePath(workDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(workDir, path)
}

// loadGlobalConfig loads the global user config file if it exists.
func loadGlobalConfig(env map[string]string) (Config, string, error) {
	globalCfgPath := getGlobalConfigPath(env)
	if globalCfgPath == "" {
		return Config{}, "", nil
	}

	globalCfg, loaded, err := loadConfigFile(globalCfgPath, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return globalCfg, globalCfgPath, nil
}

// loadProjectConfig loads the project config file (.doku.json) or an explicit config file.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	cfgFile := filepath.Join(workDir, ConfigFileName)
	mustExist := false

	if configPath != "" {
		cfgFile = resolvePath(workDir, configPath)
		mustExist = true

		if _, statErr := os.Stat(cfgFile); statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	}

	fileCfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return fileCfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files return zero config.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, false, nil
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	// An explicit "data_dir": "" would otherwise be indistinguishable from
	// an absent key after unmarshalling.
	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	if val, exists := raw["data_dir"]; exists {
		if str, ok := val.(string); ok && str == "" {
			return Config{}, ErrDataDirEmpty
		}
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.DataDir != "" {
		base.DataDir = overlay.DataDir
	}

	if overlay.Listen != "" {
		base.Listen = overlay.Listen
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	if overlay.Sync.Status != nil {
		base.Sync.Status = overlay.Sync.Status
	}

	if overlay.Sync.Pull != nil {
		base.Sync.Pull = overlay.Sync.Pull
	}

	if overlay.Sync.Push != nil {
		base.Sync.Push = overlay.Sync.Push
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrDataDirEmpty
	}

	if cfg.Listen == "" {
		return ErrListenEmpty
	}

	if !slices.Contains(logLevels, cfg.LogLevel) {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, cfg.LogLevel)
	}

	return nil
}

// FormatConfig renders cfg as indented JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}

	return string(data), nil
}
