// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for file discovery, parsing, evaluation of
// device settings and translation of `transport`, `device` and `wire` blocks
// into the format-agnostic model.
package hcl
