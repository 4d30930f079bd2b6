// Package config defines the format-agnostic circuit description model along
// with the Loader interface for reading it from various sources.
//
// The `config.Model` is the single source of truth for the `builder`
// package. Concrete loaders, such as for HCL and YAML, are provided in
// separate packages.
package config
