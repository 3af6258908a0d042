package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// Text writes a human readable report of a ledger.
func Text(w io.Writer, l *transit.Ledger, opts Options) error {
	v := Wrap(l, opts)
	var b strings.Builder

	b.WriteString(v.Name)
	if v.Serial != "" {
		b.WriteString(" ")
		b.WriteString(v.Serial)
	}
	fmt.Fprintf(&b, " (%s)\n", v.Family)
	fmt.Fprintf(&b, "Scanned %s, scan %s\n", v.ScannedAt, v.ScanID)
	if v.Balance != "" {
		fmt.Fprintf(&b, "Balance: %s\n", v.Balance)
	}

	if len(v.Trips) > 0 {
		fmt.Fprintf(&b, "\nTrips (%d)\n", len(v.Trips))
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, t := range v.Trips {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
				t.Start, t.Mode, t.Agency, route(t), fare(t), t.Balance)
		}
		tw.Flush()
	}

	if len(v.Refills) > 0 {
		fmt.Fprintf(&b, "\nRefills (%d)\n", len(v.Refills))
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, r := range v.Refills {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.Time, r.Amount, r.Agency, r.Machine)
		}
		tw.Flush()
	}

	if len(v.Subscriptions) > 0 {
		b.WriteString("\nSubscriptions\n")
		for _, s := range v.Subscriptions {
			fmt.Fprintf(&b, "  %s", s.Name)
			if s.Agency != "" {
				fmt.Fprintf(&b, " (%s)", s.Agency)
			}
			if s.ValidFrom != "" || s.ValidTo != "" {
				fmt.Fprintf(&b, " %s..%s", s.ValidFrom, s.ValidTo)
			}
			if s.Price != "" {
				fmt.Fprintf(&b, " %s", s.Price)
			}
			if s.Description != "" {
				fmt.Fprintf(&b, ": %s", s.Description)
			}
			b.WriteString("\n")
		}
	}

	if len(v.Info) > 0 {
		b.WriteString("\nInfo\n")
		for _, it := range v.Info {
			if it.Header {
				fmt.Fprintf(&b, "  [%s]\n", it.Label)
				continue
			}
			fmt.Fprintf(&b, "    %s: %s\n", it.Label, it.Value)
		}
	}

	if len(v.Failures) > 0 {
		b.WriteString("\nUnreadable\n")
		for _, f := range v.Failures {
			fmt.Fprintf(&b, "  %s: %s\n", f.Subsystem, f.Error)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func route(t TripView) string {
	var parts []string
	if t.Route != "" {
		parts = append(parts, t.Route)
	}
	switch {
	case t.From != "" && t.To != "":
		parts = append(parts, t.From+" -> "+t.To)
	case t.From != "":
		parts = append(parts, t.From)
	case t.To != "":
		parts = append(parts, "-> "+t.To)
	}
	return strings.Join(parts, " ")
}

func fare(t TripView) string {
	if t.Cancelled {
		return t.Fare + " (cancelled)"
	}
	return t.Fare
}
