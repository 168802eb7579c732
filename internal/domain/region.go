package domain

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var embeddedRegions []byte

// DefaultBaseline is returned for region ids that are not in the table.
var DefaultBaseline = ClimateState{Temperature: 25, Rainfall: 100, Humidity: 65, CO2Level: 410}

// Region is a selectable region and its baseline climate.
type Region struct {
	ID       string       `json:"id" yaml:"id"`
	Name     string       `json:"name" yaml:"name"`
	Country  string       `json:"country" yaml:"country"`
	Baseline ClimateState `json:"baseline" yaml:"baseline"`
}

// RegionTable maps region ids to baseline climate readings. It is read-only
// after construction and safe for concurrent use.
type RegionTable struct {
	regions  []Region
	byID     map[string]int
	fallback ClimateState
}

type regionFile struct {
	Default *ClimateState `yaml:"default"`
	Regions []Region      `yaml:"regions"`
}

// LoadRegionTable parses a YAML region table.
func LoadRegionTable(r io.Reader) (*RegionTable, error) {
	var f regionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse region table: %w", err)
	}
	if len(f.Regions) == 0 {
		return nil, errors.New("parse region table: no regions defined")
	}

	t := &RegionTable{
		regions:  make([]Region, 0, len(f.Regions)),
		byID:     make(map[string]int, len(f.Regions)),
		fallback: DefaultBaseline,
	}
	if f.Default != nil {
		t.fallback = f.Default.Clamp()
	}
	for _, reg := range f.Regions {
		reg.ID = strings.ToLower(strings.TrimSpace(reg.ID))
		if reg.ID == "" {
			return nil, errors.New("parse region table: region without id")
		}
		if _, dup := t.byID[reg.ID]; dup {
			return nil, fmt.Errorf("parse region table: duplicate region %q", reg.ID)
		}
		if !reg.Baseline.InBounds() {
			return nil, fmt.Errorf("parse region table: region %q baseline out of bounds", reg.ID)
		}
		t.byID[reg.ID] = len(t.regions)
		t.regions = append(t.regions, reg)
	}
	return t, nil
}

// LoadRegionFile reads a region table from path, or the embedded table when
// path is empty.
func LoadRegionFile(path string) (*RegionTable, error) {
	if path == "" {
		return DefaultRegionTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open region table: %w", err)
	}
	defer f.Close()
	return LoadRegionTable(f)
}

// DefaultRegionTable returns the embedded region table.
func DefaultRegionTable() *RegionTable {
	t, err := LoadRegionTable(bytes.NewReader(embeddedRegions))
	if err != nil {
		panic(fmt.Sprintf("embedded region table: %v", err))
	}
	return t
}

// Lookup returns the baseline for a region id. Unknown ids silently return
// the table's default baseline.
func (t *RegionTable) Lookup(id string) ClimateState {
	if r, ok := t.Region(id); ok {
		return r.Baseline
	}
	return t.fallback
}

// Region returns the full region record for an id.
func (t *RegionTable) Region(id string) (Region, bool) {
	i, ok := t.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Region{}, false
	}
	return t.regions[i], true
}

// Regions returns every region in file order.
func (t *RegionTable) Regions() []Region {
	out := make([]Region, len(t.regions))
	copy(out, t.regions)
	return out
}

// Len is the number of known regions.
func (t *RegionTable) Len() int { return len(t.regions) }
