package stations

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

type key struct {
	agency int
	code   int
}

// Entry is one station row as stored in YAML files and the database.
type Entry struct {
	Agency    int      `yaml:"agency"`
	Code      int      `yaml:"code"`
	Name      string   `yaml:"name"`
	ShortName string   `yaml:"short_name,omitempty"`
	Company   string   `yaml:"company,omitempty"`
	Lines     []string `yaml:"lines,omitempty"`
	Latitude  *float64 `yaml:"latitude,omitempty"`
	Longitude *float64 `yaml:"longitude,omitempty"`
}

// Station converts the entry to transit.Station.
func (e Entry) Station() transit.Station {
	s := transit.Station{
		ID:        strconv.Itoa(e.Code),
		Name:      e.Name,
		ShortName: e.ShortName,
		Company:   e.Company,
		Lines:     e.Lines,
	}
	if e.Latitude != nil && e.Longitude != nil {
		s.Latitude, s.Longitude, s.HasLocation = *e.Latitude, *e.Longitude, true
	}
	return s
}

// Table is an in-memory station table.
type Table struct {
	entries map[key]Entry
}

// NewTable builds a table from entries. Later duplicates win.
func NewTable(entries ...Entry) *Table {
	t := &Table{entries: make(map[key]Entry, len(entries))}
	for _, e := range entries {
		t.entries[key{e.Agency, e.Code}] = e
	}
	return t
}

// Len returns the number of stations.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns all entries ordered by agency then code.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Agency != out[j].Agency {
			return out[i].Agency < out[j].Agency
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func (t *Table) ResolveStation(_ context.Context, agency, code int) (transit.Station, error) {
	e, ok := t.entries[key{agency, code}]
	if !ok {
		return transit.Station{}, fmt.Errorf("agency %#x code %#x: %w", agency, code, ErrNotFound)
	}
	return e.Station(), nil
}

// File is the YAML layout of a station file.
type File struct {
	Namespace string  `yaml:"namespace"`
	Stations  []Entry `yaml:"stations"`
}

// LoadTable reads a YAML station file.
func LoadTable(r io.Reader) (string, *Table, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return "", nil, fmt.Errorf("failed to decode station file: %w", err)
	}
	if f.Namespace == "" {
		return "", nil, fmt.Errorf("station file has no namespace")
	}
	return f.Namespace, NewTable(f.Stations...), nil
}

// LoadTableFile reads a YAML station file from path.
func LoadTableFile(path string) (string, *Table, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer fh.Close()
	return LoadTable(fh)
}

// Tables is a Provider backed by in-memory tables.
type Tables map[string]*Table

func (ts Tables) For(namespace string) Resolver {
	if t, ok := ts[namespace]; ok {
		return t
	}
	return nil
}

// Coord is a helper for built-in tables.
func Coord(v float64) *float64 { return &v }
