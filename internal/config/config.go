// Package config loads codemap settings from YAML with .env and
// environment-variable overrides.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"codemap/internal/cache"
	"codemap/internal/rank"
)

type Config struct {
	Cache struct {
		Location string `yaml:"location"`
	} `yaml:"cache"`
	Crawl struct {
		Workers int `yaml:"workers"`
		// Ignore lists directory names skipped in addition to the
		// built-in set (.git, vendor, node_modules, ...).
		Ignore []string `yaml:"ignore"`
	} `yaml:"crawl"`
	Rank     rank.Config `yaml:"rank"`
	LogLevel string      `yaml:"log_level"`
}

// Default returns the configuration used when no file exists: user-scoped
// cache location and the documented ranking constants.
func Default() *Config {
	cfg := &Config{}
	if loc, err := cache.DefaultLocation(); err == nil {
		cfg.Cache.Location = loc
	}
	cfg.Rank = rank.DefaultConfig()
	return cfg
}

// Load reads the YAML config at path, layered over defaults. A missing file
// is not an error. `.env` is loaded first; CODEMAP_CACHE_DIR and
// CODEMAP_LOG_LEVEL override their file counterparts last.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if dir := os.Getenv("CODEMAP_CACHE_DIR"); dir != "" {
		cfg.Cache.Location = dir
	}
	if level := os.Getenv("CODEMAP_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}
