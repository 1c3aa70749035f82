package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	WatchPaths    []string      `toml:"watch_paths"`
	PythonVersion PythonVersion `toml:"python_version"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	DB            Database      `toml:"db"`
	Observability Observability `toml:"observability"`
	Performance   Performance   `toml:"performance"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// Rate limit for re-analysis bursts (files per second, with burst size).
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

type Database struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

type Performance struct {
	MaxHeapMB int `toml:"max_heap_mb"`
}

// PythonVersion is the target language version; it decides which hard-coded
// stdlib classes exist and under which module.
type PythonVersion struct {
	Major int `toml:"major"`
	Minor int `toml:"minor"`
}

func (v PythonVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v is the given version or newer.
func (v PythonVersion) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RateLimit == 0 {
		cfg.Watch.RateLimit = 200
	}
	if cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 50
	}
	if len(cfg.WatchPaths) == 0 {
		cfg.WatchPaths = []string{"."}
	}
	if cfg.PythonVersion.Major == 0 {
		cfg.PythonVersion = PythonVersion{Major: 3, Minor: 13}
	}
	if cfg.Observability.Address == "" {
		cfg.Observability.Address = ":9090"
	}
	if cfg.DB.Path == "" {
		cfg.DB.Path = ".typewalk/history.db"
	}
	if cfg.Performance.MaxHeapMB == 0 {
		cfg.Performance.MaxHeapMB = 1024
	}
}
