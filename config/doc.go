// Package config handles application configuration loading and validation.
//
// Configuration is loaded from farecard.yml and validated using struct tags.
// Environment variables (optionally from a .env file) override the station
// database, archive path and log level.
package config
