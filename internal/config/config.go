package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"sigs.k8s.io/yaml"
)

// Config is the statusd configuration file
type Config struct {
	Listen    string `json:"listen"`
	StateFile string `json:"state_file"`
	Log       Log    `json:"log"`
	Paths     Paths  `json:"paths"`
}

type Log struct {
	Level  string `json:"level"`
	SeqURL string `json:"seq_url,omitempty"`
}

// Paths are the base paths of the blob columns. An empty or missing path
// turns the corresponding columns into empty blobs.
type Paths struct {
	Inventory           string `json:"inventory"`
	StructuredStatus    string `json:"structured_status"`
	CrashReports        string `json:"crash_reports"`
	LicenseUsageHistory string `json:"license_usage_history"`
}

// Default returns the configuration used for unset fields
func Default() *Config {
	return &Config{
		Listen: "localhost:6557",
		Log:    Log{Level: "info"},
	}
}

// Parse reads YAML (or JSON) configuration on top of the defaults
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration file at path
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields that cannot be defaulted
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	for name, p := range map[string]string{
		"paths.inventory":             c.Paths.Inventory,
		"paths.structured_status":     c.Paths.StructuredStatus,
		"paths.crash_reports":         c.Paths.CrashReports,
		"paths.license_usage_history": c.Paths.LicenseUsageHistory,
	} {
		if p != "" && !filepath.IsAbs(p) {
			return fmt.Errorf("%s must be an absolute path, got '%s'", name, p)
		}
	}
	return nil
}

// Store holds the current configuration and swaps it atomically on reload
type Store struct {
	path    string
	current atomic.Pointer[Config]
}

// NewStore creates a store holding cfg; path is used by Reload
func NewStore(path string, cfg *Config) *Store {
	s := &Store{path: path}
	s.current.Store(cfg)
	return s
}

// Current returns the configuration in effect
func (s *Store) Current() *Config {
	return s.current.Load()
}

// Reload rereads the file; on error the previous configuration stays
func (s *Store) Reload() error {
	cfg, err := Load(s.path)
	if err != nil {
		return err
	}
	s.current.Store(cfg)
	return nil
}

// Path returns a provider for one configured base path that always
// reflects the current configuration
func (s *Store) Path(pick func(Paths) string) func() string {
	return func() string {
		return pick(s.Current().Paths)
	}
}
