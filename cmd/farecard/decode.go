package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theoremus-urban-solutions/farecard-decoder/archive"
	"github.com/theoremus-urban-solutions/farecard-decoder/config"
	"github.com/theoremus-urban-solutions/farecard-decoder/decoder"
	"github.com/theoremus-urban-solutions/farecard-decoder/formatter"
	"github.com/theoremus-urban-solutions/farecard-decoder/internal/logging"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

var decodeOpts struct {
	format        string
	save          bool
	jobs          int
	mode          string
	agency        string
	since         string
	transportOnly bool
	raw           bool
}

var decodeCmd = &cobra.Command{
	Use:   "decode <dump>...",
	Short: "Decode card dumps and print their ledgers",
	Long: `Decode one or more card dumps. Dumps are decoded in parallel; a dump
that cannot be decoded is reported and the others are still printed.

Example:
  farecard decode clipper.json
  farecard decode --format json --mode bus ezlink.yml
  cat dump.json | farecard decode -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	f := decodeCmd.Flags()
	f.StringVarP(&decodeOpts.format, "format", "f", "text", "output format: text|json")
	f.BoolVar(&decodeOpts.save, "save", false, "store decoded ledgers in the archive")
	f.IntVarP(&decodeOpts.jobs, "jobs", "j", 0, "parallel decodes (default: number of CPUs)")
	f.StringVar(&decodeOpts.mode, "mode", "", "only show trips of this mode (bus, metro, ...)")
	f.StringVar(&decodeOpts.agency, "agency", "", "only show trips of this agency")
	f.StringVar(&decodeOpts.since, "since", "", "only show trips on or after this date (YYYY-MM-DD)")
	f.BoolVar(&decodeOpts.transportOnly, "transport-only", false, "hide machine and shop transactions")
	f.BoolVar(&decodeOpts.raw, "raw", false, "include minor-unit amounts")
}

func formatOptions() formatter.Options {
	return formatter.Options{
		Symbols: config.Config.Display.CurrencySymbols,
		ShowRaw: config.Config.Display.ShowRaw || decodeOpts.raw,
	}
}

func tripFilter() (formatter.TripFilter, error) {
	filter := formatter.TripFilter{
		Mode:          decodeOpts.mode,
		Agency:        decodeOpts.agency,
		TransportOnly: decodeOpts.transportOnly,
	}
	if decodeOpts.since != "" {
		since, err := time.ParseInLocation(time.DateOnly, decodeOpts.since, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --since: %w", err)
		}
		filter.Since = since
	}
	return filter, nil
}

// decodeDumps loads and decodes every location. Decode failures are logged
// and counted; the ledgers that could be built are returned in input order.
func decodeDumps(ctx context.Context, locations []string, jobs int) ([]*transit.Ledger, int, error) {
	dumps, err := newFetcher().fetchAll(ctx, locations)
	if err != nil {
		return nil, 0, err
	}
	registry, closeFn, err := openRegistry(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer closeFn()

	results, err := decoder.DecodeAll(ctx, registry, dumps, jobs)
	if err != nil {
		return nil, 0, err
	}
	log := logging.FromContext(ctx)
	var ledgers []*transit.Ledger
	failed := 0
	for i, res := range results {
		if res.Err != nil {
			failed++
			log.Error().Err(res.Err).Str("dump", locations[i]).Msg("failed to decode card")
			if errors.Is(res.Err, decoder.ErrUnsupportedCard) {
				fmt.Fprintf(os.Stderr, "%s: unsupported card\n", locations[i])
			} else {
				fmt.Fprintf(os.Stderr, "%s: %v\n", locations[i], res.Err)
			}
			continue
		}
		for _, f := range res.Ledger.Failures {
			log.Warn().Str("dump", locations[i]).Str("subsystem", string(f.Subsystem)).Msg(f.Message)
		}
		ledgers = append(ledgers, res.Ledger)
	}
	return ledgers, failed, nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	filter, err := tripFilter()
	if err != nil {
		return err
	}
	ledgers, failed, err := decodeDumps(ctx, args, decodeOpts.jobs)
	if err != nil {
		return err
	}

	if decodeOpts.save && len(ledgers) > 0 {
		if err := saveLedgers(ctx, ledgers); err != nil {
			return err
		}
	}

	for _, l := range ledgers {
		shown := *l
		shown.Trips = formatter.FilterTrips(l.Trips, filter)
		if err := render(cmd.OutOrStdout(), &shown); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d dumps could not be decoded", failed, len(args))
	}
	return nil
}

func render(w io.Writer, l *transit.Ledger) error {
	switch decodeOpts.format {
	case "json":
		b, err := formatter.JSON(l, formatOptions())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "text":
		if err := formatter.Text(w, l, formatOptions()); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	}
	return fmt.Errorf("unknown format %q", decodeOpts.format)
}

func saveLedgers(ctx context.Context, ledgers []*transit.Ledger) error {
	store, err := archive.Open(config.Config.Archive.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	for _, l := range ledgers {
		if err := store.Put(l); err != nil {
			return fmt.Errorf("failed to archive scan %s: %w", l.ScanID, err)
		}
		logging.FromContext(ctx).Info().Str("scan_id", l.ScanID.String()).Str("family", l.Family).Msg("scan archived")
	}
	return nil
}
