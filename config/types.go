package config

import "github.com/theoremus-urban-solutions/farecard-decoder/internal/logging"

// StationsConfig contains station database configuration
type StationsConfig struct {
	// DB is a SQLite station database; empty disables it.
	DB string `yaml:"db"`
	// Tables are YAML station lists loaded in memory, each naming its
	// namespace.
	Tables []string `yaml:"tables" validate:"dive,required"`
}

// ArchiveConfig contains scan archive configuration
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// DecodersConfig controls which card families are tried and in what order
type DecodersConfig struct {
	Order    []string `yaml:"order" validate:"dive,oneof=orca clipper hsl ovchip suica edy ezlink"`
	Disabled []string `yaml:"disabled" validate:"dive,oneof=orca clipper hsl ovchip suica edy ezlink"`
}

// DisplayConfig contains ledger rendering options
type DisplayConfig struct {
	// CurrencySymbols overrides the symbol printed for an ISO 4217 code.
	CurrencySymbols map[string]string `yaml:"currency_symbols" validate:"dive,keys,len=3,endkeys,required"`
	ShowRaw         bool              `yaml:"show_raw"`
}

// ExportConfig contains GTFS-Realtime export configuration
type ExportConfig struct {
	AgencyPrefix string `yaml:"agency_prefix" validate:"omitempty,alphanum"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Log      logging.Config `yaml:"log"`
	Stations StationsConfig `yaml:"stations"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Decoders DecodersConfig `yaml:"decoders"`
	Display  DisplayConfig  `yaml:"display"`
	Export   ExportConfig   `yaml:"export"`
}
