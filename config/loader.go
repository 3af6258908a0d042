package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/theoremus-urban-solutions/farecard-decoder/decoder"
	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
)

// Environment variables overriding the file.
const (
	EnvLogLevel   = "FARECARD_LOG_LEVEL"
	EnvStationsDB = "FARECARD_STATIONS_DB"
	EnvArchive    = "FARECARD_ARCHIVE"
)

// DefaultArchivePath is used when no archive path is configured.
const DefaultArchivePath = "farecard-archive.db"

// Config is the global application configuration
var Config AppConfig

// Defaults returns the configuration used when no file is present.
func Defaults() AppConfig {
	var cfg AppConfig
	cfg.Log.Level = "warn"
	cfg.Archive.Path = DefaultArchivePath
	return cfg
}

// LoadAppConfig loads and validates the application configuration from
// farecard.yml. A missing file leaves the defaults in place.
func LoadAppConfig() error {
	loadDotEnv()
	paths := []string{"farecard.yml", "./config/farecard.yml"}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	cfg := Defaults()
	if err == nil {
		if cfg, err = parse(data); err != nil {
			return err
		}
	}
	if err := cfg.finish(); err != nil {
		return err
	}
	Config = cfg
	return nil
}

// LoadFile loads and validates an explicit configuration file.
func LoadFile(path string) (AppConfig, error) {
	loadDotEnv()
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	cfg, err := parse(data)
	if err != nil {
		return AppConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.finish(); err != nil {
		return AppConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func parse(data []byte) (AppConfig, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// loadDotEnv reads .env when present; variables already set win.
func loadDotEnv() {
	_ = godotenv.Load()
}

func (c *AppConfig) finish() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvStationsDB); v != "" {
		c.Stations.DB = v
	}
	if v := os.Getenv(EnvArchive); v != "" {
		c.Archive.Path = v
	}
	if c.Archive.Path == "" {
		c.Archive.Path = DefaultArchivePath
	}
	return c.Validate()
}

// Validate checks the struct tags of the whole tree.
func (c AppConfig) Validate() error {
	return validator.New().Struct(c)
}

// Registry builds the decoder registry: the configured order first, then
// the remaining families, minus the disabled ones.
func (c AppConfig) Registry(provider stations.Provider) (*decoder.Registry, error) {
	r := decoder.Default(provider)
	if len(c.Decoders.Order) > 0 {
		var err error
		if r, err = r.Reorder(c.Decoders.Order...); err != nil {
			return nil, err
		}
	}
	return r.Filter(c.Decoders.Disabled...), nil
}

// OpenStations loads the configured station tables and database. Tables
// take precedence over the database. The returned function closes the
// database.
func (c AppConfig) OpenStations(ctx context.Context) (stations.Provider, func() error, error) {
	var ps stations.Providers
	for _, path := range c.Stations.Tables {
		ns, table, err := stations.LoadTableFile(path)
		if err != nil {
			return nil, nil, err
		}
		ps = append(ps, stations.Tables{ns: table})
	}
	closer := func() error { return nil }
	if c.Stations.DB != "" {
		db, err := stations.OpenSQLite(ctx, c.Stations.DB)
		if err != nil {
			return nil, nil, err
		}
		ps = append(ps, db)
		closer = db.Close
	}
	return ps, closer, nil
}
