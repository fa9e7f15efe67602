package app

import (
	"errors"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
// Non-zero fields override the values loaded from configuration files.
type Config struct {
	ConfigPaths []string // hcl files or directories

	Listen      string
	Goal        string // run this goal headless instead of serving
	NATSURL     string
	AnalysisURL string
	Seed        uint64

	LogFormat string
	LogLevel  string
	Color     bool // colour severity tags in the printed feed
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Goal != "" && strings.TrimSpace(cfg.Goal) == "" {
		return nil, errors.New("goal must not be blank")
	}
	return &cfg, nil
}

// Headless reports whether the app runs a single goal and exits.
func (c *Config) Headless() bool {
	return c.Goal != ""
}
