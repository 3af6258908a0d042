package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theoremus-urban-solutions/farecard-decoder/config"
	"github.com/theoremus-urban-solutions/farecard-decoder/internal/logging"
	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
)

var importNamespace string

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Manage the station database",
}

var stationsImportCmd = &cobra.Command{
	Use:   "import <file.yml>...",
	Short: "Import YAML station lists into the station database",
	Long: `Import YAML station lists into the SQLite station database set by
--stations-db or stations.db in the configuration. Each file names its
namespace (orca, clipper, ovc, suica, ezlink); --namespace overrides it.

Example:
  farecard stations import --stations-db stations.db bart.yml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.Config.Stations.DB == "" {
			return errors.New("no station database configured")
		}
		ctx := cmd.Context()
		db, err := stations.OpenSQLite(ctx, config.Config.Stations.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		for _, path := range args {
			ns, table, err := stations.LoadTableFile(path)
			if err != nil {
				return err
			}
			if importNamespace != "" {
				ns = importNamespace
			}
			n, err := db.Import(ctx, ns, table.Entries())
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			total, err := db.Count(ctx, ns)
			if err != nil {
				return err
			}
			logging.FromContext(ctx).Info().Str("file", path).Str("namespace", ns).Int("imported", n).Msg("stations imported")
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d stations imported into %s (%d total)\n", path, n, ns, total)
		}
		return nil
	},
}

func init() {
	stationsImportCmd.Flags().StringVarP(&importNamespace, "namespace", "n", "", "namespace to import into")
	stationsCmd.AddCommand(stationsImportCmd)
}
