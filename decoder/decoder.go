// Package decoder selects the card family decoder for a dump and runs it.
//
// Families are tried in a fixed priority order; the first whose Check
// accepts the dump decodes it. Registries can be reordered and filtered from
// configuration.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/decoder/clipper"
	"github.com/theoremus-urban-solutions/farecard-decoder/decoder/edy"
	"github.com/theoremus-urban-solutions/farecard-decoder/decoder/ezlink"
	"github.com/theoremus-urban-solutions/farecard-decoder/decoder/hsl"
	"github.com/theoremus-urban-solutions/farecard-decoder/decoder/orca"
	"github.com/theoremus-urban-solutions/farecard-decoder/decoder/ovchip"
	"github.com/theoremus-urban-solutions/farecard-decoder/decoder/suica"
	"github.com/theoremus-urban-solutions/farecard-decoder/internal/logging"
	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// ErrUnsupportedCard is returned when no registered family accepts a dump.
var ErrUnsupportedCard = errors.New("unsupported card")

// Decoder decodes one card family.
type Decoder interface {
	// Name is the family id used in configuration and ledgers.
	Name() string
	// Check reports whether the dump belongs to this family. It must be
	// cheap and must not fail.
	Check(dump *card.Dump) bool
	// Identify returns the card name and serial without a full decode.
	Identify(dump *card.Dump) (transit.Identity, error)
	// Decode builds the ledger. Subsystem failures are recorded in the
	// ledger; an error means no ledger could be built at all.
	Decode(ctx context.Context, dump *card.Dump) (*transit.Ledger, error)
}

// Registry is an ordered set of decoders.
type Registry struct {
	decoders []Decoder
}

// NewRegistry returns a registry trying decoders in the given order.
func NewRegistry(decoders ...Decoder) *Registry {
	return &Registry{decoders: slices.Clone(decoders)}
}

// Default returns every supported family in priority order. provider may be
// nil.
func Default(provider stations.Provider) *Registry {
	return NewRegistry(
		orca.New(provider),
		clipper.New(provider),
		hsl.New(),
		ovchip.New(provider),
		suica.New(provider),
		edy.New(),
		ezlink.New(provider),
	)
}

// Names lists the families in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.decoders))
	for i, d := range r.decoders {
		names[i] = d.Name()
	}
	return names
}

// Lookup returns the decoder of a family.
func (r *Registry) Lookup(name string) (Decoder, bool) {
	for _, d := range r.decoders {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// Reorder returns a registry trying the named families first, in the given
// order, followed by the rest in their current order.
func (r *Registry) Reorder(names ...string) (*Registry, error) {
	out := make([]Decoder, 0, len(r.decoders))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		d, ok := r.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown card family %q", name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, d)
	}
	for _, d := range r.decoders {
		if !seen[d.Name()] {
			out = append(out, d)
		}
	}
	return &Registry{decoders: out}, nil
}

// Filter returns a registry without the named families. Unknown names are
// ignored.
func (r *Registry) Filter(disabled ...string) *Registry {
	out := make([]Decoder, 0, len(r.decoders))
	for _, d := range r.decoders {
		if !slices.Contains(disabled, d.Name()) {
			out = append(out, d)
		}
	}
	return &Registry{decoders: out}
}

// Select returns the first decoder accepting the dump.
func (r *Registry) Select(dump *card.Dump) (Decoder, error) {
	if dump == nil {
		return nil, fmt.Errorf("nil dump: %w", ErrUnsupportedCard)
	}
	for _, d := range r.decoders {
		if d.Check(dump) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%s card: %w", dump.Kind, ErrUnsupportedCard)
}

// Identify returns the family, name and serial of a dump.
func (r *Registry) Identify(dump *card.Dump) (transit.Identity, error) {
	d, err := r.Select(dump)
	if err != nil {
		return transit.Identity{}, err
	}
	return d.Identify(dump)
}

// Decode selects a decoder and decodes the dump.
func (r *Registry) Decode(ctx context.Context, dump *card.Dump) (*transit.Ledger, error) {
	d, err := r.Select(dump)
	if err != nil {
		return nil, err
	}
	log := logging.FromContext(ctx)
	log.Debug().Str("family", d.Name()).Str("kind", string(dump.Kind)).Msg("decoding card")

	ledger, err := d.Decode(ctx, dump)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name(), err)
	}
	log.Debug().
		Str("family", d.Name()).
		Str("scan_id", ledger.ScanID.String()).
		Int("trips", len(ledger.Trips)).
		Int("failures", len(ledger.Failures)).
		Msg("card decoded")
	return ledger, nil
}
