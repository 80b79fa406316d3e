// Package startup handles configuration loading and build metadata for
// the SnapStream service. Configuration comes from environment
// variables, optionally seeded from .env files.
package startup
