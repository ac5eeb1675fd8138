package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/seqcat/config.yml.
type GlobalConfig struct {
	Blastn      string `yaml:"blastn,omitempty"`
	Makeblastdb string `yaml:"makeblastdb,omitempty"`
	RepoPath    string `yaml:"repo_path,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "seqcat"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// EnvBlastn overrides the configured blastn executable.
	EnvBlastn = "SEQCAT_BLASTN"
	// EnvMakeblastdb overrides the configured makeblastdb executable.
	EnvMakeblastdb = "SEQCAT_MAKEBLASTDB"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/seqcat/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("parsing: %w", err)}
	}

	cfg.Blastn = ExpandPath(cfg.Blastn)
	cfg.Makeblastdb = ExpandPath(cfg.Makeblastdb)
	cfg.RepoPath = ExpandPath(cfg.RepoPath)

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// LoadDotEnv loads a .env file from dir, if one exists. Variables already
// set in the environment win.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Executables are the resolved BLAST+ tool paths. An empty field means the
// tool is not configured.
type Executables struct {
	Blastn      string `json:"blastn"`
	Makeblastdb string `json:"makeblastdb"`
}

// ResolveExecutables applies environment overrides to the global config.
func ResolveExecutables(g *GlobalConfig) Executables {
	var ex Executables
	if g != nil {
		ex.Blastn = g.Blastn
		ex.Makeblastdb = g.Makeblastdb
	}
	if v := os.Getenv(EnvBlastn); v != "" {
		ex.Blastn = ExpandPath(v)
	}
	if v := os.Getenv(EnvMakeblastdb); v != "" {
		ex.Makeblastdb = ExpandPath(v)
	}
	return ex
}

// ErrRepoPathNotConfigured is returned when repo_path is not set in config.
var ErrRepoPathNotConfigured = errors.New("repo_path not configured")

// DefaultRepository returns the configured repo_path after checking that it
// holds a seqcat repository.
func DefaultRepository() (string, error) {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return "", err
	}
	if cfg.RepoPath == "" {
		return "", ErrRepoPathNotConfigured
	}
	if !IsRepository(cfg.RepoPath) {
		return "", fmt.Errorf("%w: %s", ErrNotRepository, cfg.RepoPath)
	}
	return cfg.RepoPath, nil
}

// HelpfulConfigMessage explains how to point seqcat at the BLAST+ tools.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`BLAST+ executables are not configured.

Tip: Create %s:
  mkdir -p %s
  printf 'blastn: /usr/bin/blastn\nmakeblastdb: /usr/bin/makeblastdb\n' > %s

or set %s and %s (a .env file in the repository is read too).`,
		configPath,
		filepath.Dir(configPath),
		configPath,
		EnvBlastn, EnvMakeblastdb)
}
