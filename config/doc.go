// Package config provides configuration loading and validation for
// flowkit services.
//
// It uses Viper to load configuration from files and environment
// variables, supporting YAML files, .env files, and environment-specific
// overrides.
//
// # Usage
//
//	var cfg ServerConfig
//	err := config.LoadConfig("scoring", &cfg)
//
// Environment variables override file values; SCORING_AUTH_SECRET binds
// to the auth.secret key and its underscore variants.
package config
