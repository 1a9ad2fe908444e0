// Package config handles configuration loading, parsing, and validation
// from environment variables and optional config files. It provides
// type-safe access to the worker and broker settings while keeping
// configuration details separate from the engine.
package config
