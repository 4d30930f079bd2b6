package config

import "context"

// Loader is the interface for a format-specific circuit loader.
type Loader interface {
	// Load reads circuit descriptions from the given paths (files,
	// directories or glob patterns), merges them and returns the
	// format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
