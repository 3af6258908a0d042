package formatter

import (
	"encoding/json"

	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// JSON serializes the display view of a ledger.
func JSON(l *transit.Ledger, opts Options) ([]byte, error) {
	return json.MarshalIndent(Wrap(l, opts), "", "  ")
}

// JSONAll serializes several ledgers as one array.
func JSONAll(ls []*transit.Ledger, opts Options) ([]byte, error) {
	views := make([]LedgerView, 0, len(ls))
	for _, l := range ls {
		views = append(views, Wrap(l, opts))
	}
	return json.MarshalIndent(views, "", "  ")
}
