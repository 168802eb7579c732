package domain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegionTable(t *testing.T) {
	table := DefaultRegionTable()

	assert.Equal(t, 18, table.Len())

	r, ok := table.Region(testDelhi)
	require.True(t, ok)
	assert.Equal(t, "Delhi", r.Name)
	assert.Equal(t, "India", r.Country)

	for _, reg := range table.Regions() {
		assert.True(t, reg.Baseline.InBounds(), "region %s", reg.ID)
	}
}

func TestRegionTable_Lookup(t *testing.T) {
	table := DefaultRegionTable()

	t.Run("known region", func(t *testing.T) {
		assert.Equal(t, ClimateState{Temperature: 32, Rainfall: 65, Humidity: 60, CO2Level: 450}, table.Lookup(testDelhi))
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		assert.Equal(t, table.Lookup(testDelhi), table.Lookup("  India-Delhi "))
	})

	t.Run("unknown region falls back", func(t *testing.T) {
		assert.Equal(t, ClimateState{Temperature: 25, Rainfall: 100, Humidity: 65, CO2Level: 410}, table.Lookup("mars-colony"))
		_, ok := table.Region("mars-colony")
		assert.False(t, ok)
	})

	t.Run("empty id falls back", func(t *testing.T) {
		assert.Equal(t, DefaultBaseline, table.Lookup(""))
	})
}

func TestLoadRegionTable(t *testing.T) {
	t.Run("custom default", func(t *testing.T) {
		src := `
default: {temperature: 10, rainfall: 50, humidity: 40, co2_level: 400}
regions:
  - id: Test-Region
    name: Test
    country: Nowhere
    baseline: {temperature: 12, rainfall: 60, humidity: 45, co2_level: 405}
`
		table, err := LoadRegionTable(strings.NewReader(src))
		require.NoError(t, err)
		assert.Equal(t, 1, table.Len())
		assert.Equal(t, 12.0, table.Lookup("test-region").Temperature)
		assert.Equal(t, 10.0, table.Lookup("elsewhere").Temperature)
	})

	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"no regions", "regions: []\n", "no regions"},
		{"missing id", "regions:\n  - name: X\n    baseline: {temperature: 1, rainfall: 1, humidity: 10, co2_level: 300}\n", "without id"},
		{
			"duplicate id",
			"regions:\n  - id: a\n    baseline: {temperature: 1, rainfall: 1, humidity: 10, co2_level: 300}\n  - id: A\n    baseline: {temperature: 1, rainfall: 1, humidity: 10, co2_level: 300}\n",
			"duplicate",
		},
		{"out of bounds", "regions:\n  - id: a\n    baseline: {temperature: 99, rainfall: 1, humidity: 10, co2_level: 300}\n", "out of bounds"},
		{"unknown field", "regions:\n  - id: a\n    elevation: 3\n", "parse region table"},
		{"not yaml", "{{{", "parse region table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegionTable(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRegionFile(t *testing.T) {
	t.Run("empty path uses embedded table", func(t *testing.T) {
		table, err := LoadRegionFile("")
		require.NoError(t, err)
		assert.Equal(t, DefaultRegionTable().Len(), table.Len())
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "regions.yaml")
		src := "regions:\n  - id: x\n    baseline: {temperature: 1, rainfall: 1, humidity: 10, co2_level: 300}\n"
		require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

		table, err := LoadRegionFile(path)
		require.NoError(t, err)
		assert.Equal(t, 1, table.Len())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRegionFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
