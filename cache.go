package farecard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/decoder"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// LedgerCache memoizes decodes of identical dumps, for readers that see the
// same card many times. Cached ledgers are shared and must not be modified.
type LedgerCache struct {
	registry *decoder.Registry

	mu      sync.Mutex
	ledgers map[string]*transit.Ledger
}

// NewLedgerCache wraps r; nil uses the default registry.
func NewLedgerCache(r *decoder.Registry) *LedgerCache {
	if r == nil {
		r = defaultRegistry()
	}
	return &LedgerCache{registry: r, ledgers: map[string]*transit.Ledger{}}
}

// memoKey hashes the card content. Scan time and label do not take part.
func (lc *LedgerCache) memoKey(dump *card.Dump) (string, error) {
	content := *dump
	content.ScannedAt = time.Time{}
	content.Label = ""
	b, err := json.Marshal(content)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Decode returns the cached ledger of an identical dump or decodes it.
// Failed decodes are not cached.
func (lc *LedgerCache) Decode(ctx context.Context, dump *card.Dump) (*transit.Ledger, bool, error) {
	if dump == nil {
		_, err := lc.registry.Select(dump)
		return nil, false, err
	}
	key, err := lc.memoKey(dump)
	if err != nil {
		return nil, false, err
	}
	lc.mu.Lock()
	l, ok := lc.ledgers[key]
	lc.mu.Unlock()
	if ok {
		return l, true, nil
	}

	l, err = lc.registry.Decode(ctx, dump)
	if err != nil {
		return nil, false, err
	}
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if cached, ok := lc.ledgers[key]; ok {
		return cached, true, nil
	}
	lc.ledgers[key] = l
	return l, false, nil
}

// Len returns the number of cached ledgers.
func (lc *LedgerCache) Len() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return len(lc.ledgers)
}

// Reset drops every cached ledger.
func (lc *LedgerCache) Reset() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	clear(lc.ledgers)
}
