package decoder

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// Result is the outcome of decoding one dump in a batch.
type Result struct {
	Dump   *card.Dump
	Ledger *transit.Ledger
	Err    error
}

// DecodeAll decodes dumps concurrently with at most limit decodes in
// flight; limit <= 0 uses the number of CPUs. Results keep the input order
// and carry per-dump errors. The returned error is only set when ctx is
// cancelled.
func DecodeAll(ctx context.Context, r *Registry, dumps []*card.Dump, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	results := make([]Result, len(dumps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, dump := range dumps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ledger, err := r.Decode(gctx, dump)
			results[i] = Result{Dump: dump, Ledger: ledger, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
