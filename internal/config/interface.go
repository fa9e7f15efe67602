package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and merges it over the
	// built-in defaults. Files and directories that do not exist are skipped.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
