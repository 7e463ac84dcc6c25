package cluster

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Params configures a clustering run.
type Params struct {
	// Regions is the number of regions to build.
	Regions int `json:"regions" yaml:"regions"`
	// Depot is the home-base postcode; it is kept out of every region.
	Depot string `json:"depot" yaml:"depot"`
	// ServiceHours is the time spent at each customer.
	ServiceHours float64 `json:"service_hours" yaml:"service_hours"`
	// WorkHours is the length of a working day.
	WorkHours float64 `json:"work_hours" yaml:"work_hours"`
	// MinSize is the smallest region the balancer will leave behind.
	MinSize int `json:"min_size" yaml:"min_size"`
	// ProximityPercentile selects the pairwise distance under which
	// customers are pulled into the same region.
	ProximityPercentile float64 `json:"proximity_percentile" yaml:"proximity_percentile"`
	// CompactnessFactor is how much closer another centroid must be before an
	// outlier is moved to it.
	CompactnessFactor float64 `json:"compactness_factor" yaml:"compactness_factor"`
}

// SetDefaults applies the standard planning assumptions.
func (p *Params) SetDefaults() {
	if p.Regions == 0 {
		p.Regions = 6
	}
	if p.ServiceHours == 0 {
		p.ServiceHours = 1.0
	}
	if p.WorkHours == 0 {
		p.WorkHours = 8
	}
	if p.MinSize == 0 {
		p.MinSize = 3
	}
	if p.ProximityPercentile == 0 {
		p.ProximityPercentile = 10
	}
	if p.CompactnessFactor == 0 {
		p.CompactnessFactor = 0.8
	}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if p.Regions < 1 {
		return fmt.Errorf("regions must be positive")
	}
	if strings.TrimSpace(p.Depot) == "" {
		return fmt.Errorf("depot postcode is required")
	}
	if p.ServiceHours <= 0 || p.WorkHours <= 0 {
		return fmt.Errorf("service and work hours must be positive")
	}
	if p.ProximityPercentile < 0 || p.ProximityPercentile > 100 {
		return fmt.Errorf("proximity percentile must be within [0,100]")
	}
	if p.CompactnessFactor <= 0 || p.CompactnessFactor > 1 {
		return fmt.Errorf("compactness factor must be within (0,1]")
	}
	return nil
}

// LoadParams reads Params from a JSON or YAML file and applies defaults.
func LoadParams(path string) (Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return Params{}, err
	}
	defer f.Close()
	return DecodeParams(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// DecodeParams reads Params in the given format from r.
func DecodeParams(r io.Reader, format string) (Params, error) {
	var p Params
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&p); err != nil && err != io.EOF {
			return p, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&p); err != nil && err != io.EOF {
			return p, err
		}
	default:
		return p, fmt.Errorf("unsupported format: %s", format)
	}
	p.SetDefaults()
	return p, nil
}

// SaveParams writes Params as YAML.
func SaveParams(path string, p Params) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
