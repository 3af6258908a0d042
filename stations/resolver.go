package stations

import (
	"context"
	"errors"
	"fmt"

	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// ErrNotFound is returned when no station matches a code.
var ErrNotFound = errors.New("station not found")

// Resolver maps an (agency, code) pair to a station.
type Resolver interface {
	ResolveStation(ctx context.Context, agency, code int) (transit.Station, error)
}

// Provider hands out a Resolver per card family namespace.
type Provider interface {
	For(namespace string) Resolver
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, agency, code int) (transit.Station, error)

func (f ResolverFunc) ResolveStation(ctx context.Context, agency, code int) (transit.Station, error) {
	return f(ctx, agency, code)
}

type chain []Resolver

// Chain queries resolvers in order. Nil entries are ignored. Errors other
// than ErrNotFound stop the search.
func Chain(resolvers ...Resolver) Resolver {
	var c chain
	for _, r := range resolvers {
		if r != nil {
			c = append(c, r)
		}
	}
	return c
}

func (c chain) ResolveStation(ctx context.Context, agency, code int) (transit.Station, error) {
	for _, r := range c {
		s, err := r.ResolveStation(ctx, agency, code)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return transit.Station{}, err
		}
	}
	return transit.Station{}, fmt.Errorf("agency %#x code %#x: %w", agency, code, ErrNotFound)
}

// Lookup resolves a station and falls back to an unknown placeholder named
// by fallbackID. Lookup errors other than not-found are returned.
func Lookup(ctx context.Context, r Resolver, agency, code int, fallbackID string) (transit.Station, error) {
	if r == nil {
		return transit.UnknownStation(fallbackID), nil
	}
	s, err := r.ResolveStation(ctx, agency, code)
	if errors.Is(err, ErrNotFound) {
		return transit.UnknownStation(fallbackID), nil
	}
	if err != nil {
		return transit.Station{}, err
	}
	return s, nil
}

// CodeFromString packs up to 8 ASCII characters into an int so that letter
// codes (EZ-Link "DBG") can be used as station codes.
func CodeFromString(s string) int {
	code := 0
	for i := 0; i < len(s) && i < 8; i++ {
		code = code<<8 | int(s[i])
	}
	return code
}

// NoProvider resolves nothing.
type NoProvider struct{}

func (NoProvider) For(string) Resolver { return nil }

// Providers combines providers; for each namespace the resolvers are
// chained in order.
type Providers []Provider

func (ps Providers) For(namespace string) Resolver {
	var rs []Resolver
	for _, p := range ps {
		if p == nil {
			continue
		}
		if r := p.For(namespace); r != nil {
			rs = append(rs, r)
		}
	}
	switch len(rs) {
	case 0:
		return nil
	case 1:
		return rs[0]
	}
	return Chain(rs...)
}
