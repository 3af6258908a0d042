package card

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse reads a dump in JSON or YAML form.
func Parse(r io.Reader) (*Dump, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	var d Dump
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &d); err != nil {
			return nil, fmt.Errorf("failed to decode JSON dump: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &d); err != nil {
			return nil, fmt.Errorf("failed to decode YAML dump: %w", err)
		}
	}
	if d.Kind == "" {
		return nil, fmt.Errorf("dump has no kind")
	}
	return &d, nil
}

// LoadFile reads a dump from path.
func LoadFile(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump %s: %w", path, err)
	}
	defer f.Close()
	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// WriteJSON writes d as indented JSON.
func (d *Dump) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
