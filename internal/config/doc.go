// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to application settings needed by different components while keeping
// configuration details separate from business logic.
//
// Every key has a default, so an empty environment yields a runnable
// configuration backed by a local SQLite file. Environment variables use the
// TODO_ prefix with dots replaced by underscores, e.g. TODO_DATABASE_URL.
package config
