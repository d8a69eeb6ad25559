// Package config loads the OpenForma configuration: YAML file first,
// then FORMA_* environment variables on top. Every caller goes through
// Load so the precedence order is the same everywhere.
package config
