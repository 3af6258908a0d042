package transit

import "fmt"

// Station is resolved station metadata.
type Station struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ShortName   string   `json:"short_name,omitempty"`
	Company     string   `json:"company,omitempty"`
	Lines       []string `json:"lines,omitempty"`
	Latitude    float64  `json:"latitude,omitempty"`
	Longitude   float64  `json:"longitude,omitempty"`
	HasLocation bool     `json:"has_location,omitempty"`
	// Unknown is set when the code could not be resolved and Name is a
	// placeholder.
	Unknown bool `json:"unknown,omitempty"`
}

// UnknownStation is the placeholder for an unresolved station code.
func UnknownStation(id string) Station {
	return Station{ID: id, Name: fmt.Sprintf("Unknown (%s)", id), Unknown: true}
}

// DisplayName prefers the short name.
func (s Station) DisplayName() string {
	if s.ShortName != "" {
		return s.ShortName
	}
	return s.Name
}
