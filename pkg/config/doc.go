// Package config loads application configuration from LODESTONE_*
// environment variables, with defaults suitable for local development and
// validation for values the process cannot start without.
package config
