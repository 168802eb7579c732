package domain

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// ExportFormat selects the snapshot encoding.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// ParseExportFormat accepts "json" (default when empty) or "csv".
func ParseExportFormat(s string) (ExportFormat, error) {
	switch s {
	case "", "json":
		return ExportJSON, nil
	case "csv":
		return ExportCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	if f == ExportCSV {
		return "text/csv"
	}
	return "application/json"
}

// Export writes a snapshot of sim in the requested format.
func Export(w io.Writer, sim Simulation, format ExportFormat) error {
	switch format {
	case ExportCSV:
		return WriteCSV(w, sim)
	default:
		return WriteJSON(w, sim)
	}
}

// WriteJSON writes sim as indented JSON.
func WriteJSON(w io.Writer, sim Simulation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sim); err != nil {
		return fmt.Errorf("encode simulation: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"region", "target", "year", "value", "lower_band", "upper_band",
	"flood_risk", "drought_risk", "heatwave_risk",
}

// WriteCSV writes one row per projected year. Risk columns repeat on every row
// so each line stands alone in a spreadsheet.
func WriteCSV(w io.Writer, sim Simulation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	p := sim.Projection
	for i := range p.Values {
		row := []string{
			sim.RegionID,
			string(sim.Target),
			p.Labels[i],
			formatFloat(p.Values[i]),
			formatFloat(p.LowerBand[i]),
			formatFloat(p.UpperBand[i]),
			formatFloat(sim.Risk.Flood),
			formatFloat(sim.Risk.Drought),
			formatFloat(sim.Risk.Heatwave),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
