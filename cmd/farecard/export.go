package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theoremus-urban-solutions/farecard-decoder/archive"
	"github.com/theoremus-urban-solutions/farecard-decoder/config"
	"github.com/theoremus-urban-solutions/farecard-decoder/export"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

var exportOpts struct {
	output   string
	archived bool
}

var exportCmd = &cobra.Command{
	Use:   "export [dump]...",
	Short: "Write card trips as a GTFS-Realtime TripUpdates feed",
	Long: `Decode dumps, or read every archived scan with --archived, and write
their trips as a GTFS-Realtime protobuf feed.

Example:
  farecard export -o trips.pb orca.json clipper.json
  farecard export --archived -o archive.pb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var ledgers []*transit.Ledger
		switch {
		case exportOpts.archived:
			err := withStore(func(store *archive.Store) error {
				scans, err := store.List()
				if err != nil {
					return err
				}
				for _, s := range scans {
					l, err := store.Get(s.ScanID)
					if err != nil {
						return err
					}
					ledgers = append(ledgers, l)
				}
				return nil
			})
			if err != nil {
				return err
			}
		case len(args) > 0:
			var err error
			if ledgers, _, err = decodeDumps(ctx, args, 0); err != nil {
				return err
			}
		default:
			return errors.New("no dumps given; pass dump files or --archived")
		}

		msg := export.Options{AgencyPrefix: config.Config.Export.AgencyPrefix}.FeedMessage(ledgers...)
		b, err := export.Marshal(msg)
		if err != nil {
			return err
		}
		if exportOpts.output == "" || exportOpts.output == "-" {
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}
		if err := os.WriteFile(exportOpts.output, b, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d trips from %d cards written to %s\n", len(msg.GetEntity()), len(ledgers), exportOpts.output)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOpts.output, "output", "o", "", "output file (default stdout)")
	exportCmd.Flags().BoolVar(&exportOpts.archived, "archived", false, "export every archived scan")
}
