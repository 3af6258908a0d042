// Package farecard decodes dumps of transit smartcards into ledgers of
// balances, trips, refills and passes.
//
// The package-level functions use every supported card family with no
// station database. Use decoder.NewRegistry or config.AppConfig.Registry
// for control over families and station lookups.
//
//	dump, err := card.LoadFile("orca.json")
//	if err != nil {
//		return err
//	}
//	ledger, err := farecard.Decode(ctx, dump)
package farecard

import (
	"context"
	"sync"

	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/decoder"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

var defaultRegistry = sync.OnceValue(func() *decoder.Registry {
	return decoder.Default(nil)
})

// Families lists the supported card families in the order they are tried.
func Families() []string {
	return defaultRegistry().Names()
}

// Decode decodes a dump with the default registry.
func Decode(ctx context.Context, dump *card.Dump) (*transit.Ledger, error) {
	return defaultRegistry().Decode(ctx, dump)
}

// DecodeFile loads and decodes a JSON or YAML dump.
func DecodeFile(ctx context.Context, path string) (*transit.Ledger, error) {
	dump, err := card.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(ctx, dump)
}

// Identify returns the family, name and serial of a dump.
func Identify(dump *card.Dump) (transit.Identity, error) {
	return defaultRegistry().Identify(dump)
}
