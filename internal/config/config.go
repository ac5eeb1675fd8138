// Package config handles repository configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/matsen/seqcat/internal/blast"
	"github.com/matsen/seqcat/internal/classify"
)

// Config represents repository configuration stored in .seqcat/config.yml.
type Config struct {
	References  []string            `yaml:"references"`
	Categories  []classify.Category `yaml:"categories"`
	Search      SearchConfig        `yaml:"search,omitempty"`
	Threads     int                 `yaml:"threads,omitempty"`      // blastn -num_threads and index build workers
	ProcessRate float64             `yaml:"process_rate,omitempty"` // external launches per second, 0 = unlimited
}

// SearchConfig holds the numeric blastn options applied to every search.
type SearchConfig struct {
	Options map[string]float64 `yaml:"options,omitempty"`
}

const (
	SeqcatDir      = ".seqcat"
	ConfigFile     = "config.yml"
	SequencesFile  = "sequences.jsonl"
	CacheDir       = "cache"
	DBFile         = "sequences.db"
	IndicesDir     = "indices"
	DefaultThreads = 1
)

// ErrNotRepository is returned when no .seqcat directory is found.
var ErrNotRepository = errors.New("not in a seqcat repository (no .seqcat directory found)")

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Path  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SeqcatPath returns the path to the .seqcat directory from a root path.
func SeqcatPath(root string) string {
	return filepath.Join(root, SeqcatDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, SeqcatDir, ConfigFile)
}

// SequencesPath returns the path to sequences.jsonl from a root path.
func SequencesPath(root string) string {
	return filepath.Join(root, SeqcatDir, SequencesFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, SeqcatDir, CacheDir)
}

// DBPath returns the path to sequences.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, SeqcatDir, CacheDir, DBFile)
}

// IndexRoot returns the directory holding cached search indices.
func IndexRoot(root string) string {
	return filepath.Join(root, SeqcatDir, CacheDir, IndicesDir)
}

// IsRepository checks if the given path contains a seqcat repository.
func IsRepository(root string) bool {
	info, err := os.Stat(SeqcatPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a seqcat repository.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

// Load reads and validates configuration from the repository at root.
func Load(root string) (*Config, error) {
	path := ConfigPath(root)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("parsing: %w", err)}
	}

	if err := cfg.Validate(); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
			return nil, ce
		}
		return nil, &ConfigError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks the references, categories and search options.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.References))
	for _, ref := range c.References {
		if ref == "" {
			return &ConfigError{Field: "references", Err: errors.New("empty reference name")}
		}
		if seen[ref] {
			return &ConfigError{Field: "references", Err: fmt.Errorf("duplicate reference %q", ref)}
		}
		seen[ref] = true
	}

	ids := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		field := "categories." + cat.ID
		if cat.ID == "" {
			return &ConfigError{Field: "categories", Err: errors.New("category without id")}
		}
		if slices.Contains(ids, cat.ID) {
			return &ConfigError{Field: "categories", Err: fmt.Errorf("duplicate category id %q", cat.ID)}
		}
		ids = append(ids, cat.ID)

		if cat.MaxEValue != nil && *cat.MaxEValue < 0 {
			return &ConfigError{Field: field + ".max_evalue", Err: errors.New("must not be negative")}
		}
		if cat.MinBitScore != nil && *cat.MinBitScore < 0 {
			return &ConfigError{Field: field + ".min_bit_score", Err: errors.New("must not be negative")}
		}
		if cat.MinScore != nil && *cat.MinScore < 0 {
			return &ConfigError{Field: field + ".min_score", Err: errors.New("must not be negative")}
		}
		if cat.MinTotalAlignLength != nil && *cat.MinTotalAlignLength < 0 {
			return &ConfigError{Field: field + ".min_total_align_length", Err: errors.New("must not be negative")}
		}
	}

	if len(c.Categories) > 0 {
		if err := classify.ValidatePartition(c.References, c.Categories); err != nil {
			return &ConfigError{Field: "categories", Err: err}
		}
	}

	if _, err := c.SearchOptions(); err != nil {
		return &ConfigError{Field: "search.options", Err: err}
	}
	if c.Threads < 0 {
		return &ConfigError{Field: "threads", Err: errors.New("must not be negative")}
	}
	if c.ProcessRate < 0 {
		return &ConfigError{Field: "process_rate", Err: errors.New("must not be negative")}
	}
	return nil
}

// SearchOptions returns the validated blastn options in name order.
func (c *Config) SearchOptions() ([]blast.Option, error) {
	return blast.ValidateOptions(c.Search.Options)
}

// Workers returns the configured thread count, at least one.
func (c *Config) Workers() int {
	if c.Threads <= 0 {
		return DefaultThreads
	}
	return c.Threads
}

// Category returns the category with the given id.
func (c *Config) Category(id string) (classify.Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return classify.Category{}, false
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
