package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/card"
)

// fetcher loads card dumps from files, URLs or stdin.
// This is CLI-specific logic and is not part of the core library.
type fetcher struct {
	httpClient *http.Client
	stdin      io.Reader
}

func newFetcher() *fetcher {
	return &fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		stdin:      os.Stdin,
	}
}

// fetch loads one dump. "-" reads stdin; http and https locations are
// downloaded.
func (f *fetcher) fetch(ctx context.Context, urlOrPath string) (*card.Dump, error) {
	if urlOrPath == "-" {
		d, err := card.Parse(f.stdin)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return d, nil
	}

	if !strings.HasPrefix(urlOrPath, "http://") && !strings.HasPrefix(urlOrPath, "https://") {
		return card.LoadFile(urlOrPath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlOrPath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlOrPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, urlOrPath)
	}
	d, err := card.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", urlOrPath, err)
	}
	return d, nil
}

// fetchAll loads every dump, stopping at the first failure.
func (f *fetcher) fetchAll(ctx context.Context, locations []string) ([]*card.Dump, error) {
	dumps := make([]*card.Dump, 0, len(locations))
	for _, loc := range locations {
		d, err := f.fetch(ctx, loc)
		if err != nil {
			return nil, err
		}
		dumps = append(dumps, d)
	}
	return dumps, nil
}
