// Command farecard decodes transit smartcard dumps.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theoremus-urban-solutions/farecard-decoder/config"
	"github.com/theoremus-urban-solutions/farecard-decoder/decoder"
	"github.com/theoremus-urban-solutions/farecard-decoder/internal/logging"
)

var (
	cfgFile    string
	logLevel   string
	pretty     bool
	stationsDB string
	archiveDB  string
)

var rootCmd = &cobra.Command{
	Use:   "farecard",
	Short: "Decode transit smartcard dumps",
	Long: `farecard reads dumps of transit smartcards and shows balances, trips,
refills and passes.

Supported cards: ORCA, Clipper, HSL, OV-chipkaart, Suica family, Edy and
EZ-Link. Dumps are JSON or YAML files, URLs, or "-" for stdin.

Example:
  farecard decode orca.json
  farecard decode --format json --save *.yml
  farecard archive list`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger := logging.Init(config.Config.Log)
		cmd.SetContext(logging.WithContext(cmd.Context(), logger))
		logger.Debug().Str("archive", config.Config.Archive.Path).Str("stations_db", config.Config.Stations.DB).Msg("configuration loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is farecard.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace|debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "human readable logs")
	rootCmd.PersistentFlags().StringVar(&stationsDB, "stations-db", "", "SQLite station database")
	rootCmd.PersistentFlags().StringVar(&archiveDB, "archive", "", "scan archive path")

	rootCmd.AddCommand(decodeCmd, identifyCmd, stationsCmd, archiveCmd, exportCmd)
}

// loadConfig fills config.Config from the file and the global flags.
func loadConfig() error {
	if cfgFile != "" {
		cfg, err := config.LoadFile(cfgFile)
		if err != nil {
			return err
		}
		config.Config = cfg
	} else if err := config.LoadAppConfig(); err != nil {
		return err
	}
	if logLevel != "" {
		config.Config.Log.Level = logLevel
	}
	if pretty {
		config.Config.Log.Pretty = true
	}
	if stationsDB != "" {
		config.Config.Stations.DB = stationsDB
	}
	if archiveDB != "" {
		config.Config.Archive.Path = archiveDB
	}
	return config.Config.Validate()
}

// openRegistry builds the configured registry. The returned function
// releases the station database.
func openRegistry(ctx context.Context) (*decoder.Registry, func() error, error) {
	provider, closeFn, err := config.Config.OpenStations(ctx)
	if err != nil {
		return nil, nil, err
	}
	r, err := config.Config.Registry(provider)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return r, closeFn, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
