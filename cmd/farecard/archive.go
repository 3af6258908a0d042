package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/theoremus-urban-solutions/farecard-decoder/archive"
	"github.com/theoremus-urban-solutions/farecard-decoder/config"
	"github.com/theoremus-urban-solutions/farecard-decoder/formatter"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect archived scans",
}

func withStore(fn func(*archive.Store) error) error {
	store, err := archive.Open(config.Config.Archive.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived scans, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *archive.Store) error {
			scans, err := store.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer tw.Flush()
			for _, s := range scans {
				balance := "-"
				if s.Balance != nil {
					balance = transit.FormatAmount(*s.Balance, s.Currency)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d trips\n",
					s.ScanID, s.ScannedAt.Format("2006-01-02 15:04"), s.Name, s.Serial, balance, s.Trips)
			}
			return nil
		})
	},
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Print an archived scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid scan id: %w", err)
		}
		return withStore(func(store *archive.Store) error {
			l, err := store.Get(id)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), l)
		})
	},
}

var archiveHistoryCmd = &cobra.Command{
	Use:   "history <family> <serial>",
	Short: "Show how the balance of one card changed across scans",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *archive.Store) error {
			scans, err := store.History(args[0], args[1])
			if err != nil {
				return err
			}
			if len(scans) == 0 {
				return fmt.Errorf("no scans of %s %s", args[0], args[1])
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer tw.Flush()
			for _, l := range scans {
				balance := "-"
				if l.Balance != nil {
					balance = formatter.Wrap(l, formatOptions()).Balance
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d trips\n", l.ScannedAt.Format("2006-01-02 15:04"), l.ScanID, balance, len(l.Trips))
			}
			return nil
		})
	},
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete <scan-id>...",
	Short: "Delete archived scans",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *archive.Store) error {
			for _, arg := range args {
				id, err := uuid.Parse(arg)
				if err != nil {
					return fmt.Errorf("invalid scan id %q: %w", arg, err)
				}
				if err := store.Delete(id); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	archiveShowCmd.Flags().StringVarP(&decodeOpts.format, "format", "f", "text", "output format: text|json")
	archiveCmd.AddCommand(archiveListCmd, archiveShowCmd, archiveHistoryCmd, archiveDeleteCmd)
}
