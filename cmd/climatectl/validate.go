package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/climatesphere/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

var errValidationFailed = errors.New("validation failed")

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [fixture-file]",
		Short: "Check a simulation fixture file for bounds, band and reproducibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sims, err := loadSnapshots(args[0])
			if err != nil {
				return err
			}
			if !report(cmd.OutOrStdout(), validateSnapshots(sims), len(sims)) {
				return errValidationFailed
			}
			return nil
		},
	}
}

func loadSnapshots(path string) ([]domain.Simulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sims []domain.Simulation
	if err := json.Unmarshal(data, &sims); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return sims, nil
}

func validateSnapshots(sims []domain.Simulation) []*phase {
	return []*phase{
		validateShape(sims),
		validateClimate(sims),
		validateRisk(sims),
		validateProjection(sims),
		validateReproducible(sims),
	}
}

// report prints a pass/fail line per phase followed by error details.
func report(w io.Writer, phases []*phase, n int) bool {
	fmt.Fprintln(w, "=== Simulation Fixture Validation ===")
	fmt.Fprintln(w)

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-32s %s\n", p.name, status)
	}
	fmt.Fprintf(w, "\nSimulations: %d\n", n)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return true
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return false
}

// ── Phases ──

func validateShape(sims []domain.Simulation) *phase {
	p := &phase{name: "Snapshot shape"}
	if len(sims) == 0 {
		p.errorf("no simulations")
	}
	seen := make(map[string]int, len(sims))
	for i := range sims {
		s := &sims[i]
		if s.ID == "" {
			p.errorf("[%d] missing id", i)
		} else if j, dup := seen[s.ID]; dup {
			p.errorf("[%d] duplicate id %s (first at %d)", i, s.ID, j)
		} else {
			seen[s.ID] = i
		}
		if _, ok := domain.ParseTarget(string(s.Target)); !ok {
			p.errorf("[%d] %s: unknown target %q", i, s.ID, s.Target)
		}
		if s.Years != s.Projection.Len() {
			p.errorf("[%d] %s: years=%d but projection has %d steps", i, s.ID, s.Years, s.Projection.Len())
		}
		if s.Projection.Target != s.Target {
			p.errorf("[%d] %s: projection target %q != %q", i, s.ID, s.Projection.Target, s.Target)
		}
		if _, err := selectionOf(s); err != nil {
			p.errorf("[%d] %s: %v", i, s.ID, err)
		}
	}
	return p
}

func validateClimate(sims []domain.Simulation) *phase {
	p := &phase{name: "Climate bounds"}
	for i := range sims {
		s := &sims[i]
		if !s.Baseline.InBounds() {
			p.errorf("[%d] %s: baseline out of bounds: %+v", i, s.ID, s.Baseline)
		}
		if !s.Adjusted.InBounds() {
			p.errorf("[%d] %s: adjusted state out of bounds: %+v", i, s.ID, s.Adjusted)
		}
	}
	return p
}

func validateRisk(sims []domain.Simulation) *phase {
	p := &phase{name: "Risk probabilities"}
	for i := range sims {
		s := &sims[i]
		for name, v := range map[string]float64{"flood": s.Risk.Flood, "drought": s.Risk.Drought, "heatwave": s.Risk.Heatwave} {
			if !domain.RiskRange.Contains(v) {
				p.errorf("[%d] %s: %s risk %.2f outside [0, 100]", i, s.ID, name, v)
			}
		}
		if s.RiskLevels != s.Risk.Levels() {
			p.errorf("[%d] %s: levels %+v do not match risk %+v", i, s.ID, s.RiskLevels, s.Risk)
		}
		if s.RiskSource != domain.RiskSourceRemote && s.RiskSource != domain.RiskSourceFallback {
			p.errorf("[%d] %s: unknown risk source %q", i, s.ID, s.RiskSource)
		}
	}
	return p
}

func validateProjection(sims []domain.Simulation) *phase {
	p := &phase{name: "Projection band"}
	for i := range sims {
		if err := sims[i].Projection.Check(); err != nil {
			p.errorf("[%d] %s: %v", i, sims[i].ID, err)
		}
	}
	return p
}

// validateReproducible recomputes fallback runs from their recorded inputs.
// Remote-sourced runs depend on the model service and are skipped.
func validateReproducible(sims []domain.Simulation) *phase {
	p := &phase{name: "Reproducibility"}
	for i := range sims {
		s := &sims[i]
		if s.RiskSource != domain.RiskSourceFallback {
			continue
		}
		sel, err := selectionOf(s)
		if err != nil {
			continue // reported by validateShape
		}

		adjusted := domain.Adjust(s.Baseline, sel.Impacts()...)
		if !statesEqual(adjusted, s.Adjusted) {
			p.errorf("[%d] %s: adjusted %+v, recomputed %+v", i, s.ID, s.Adjusted, adjusted)
			continue
		}
		if risk := domain.Aggregate(nil, sel, adjusted); !risksEqual(risk, s.Risk) {
			p.errorf("[%d] %s: risk %+v, recomputed %+v", i, s.ID, s.Risk, risk)
		}

		proj := domain.NewProjector(s.CreatedAt.UTC().Year(), domain.NewSeededNoise(s.Seed)).
			Project(adjusted, s.Target, s.Years, nil)
		for j := range proj.Values {
			if j >= len(s.Projection.Values) || !floatEq(proj.Values[j], s.Projection.Values[j]) {
				p.errorf("[%d] %s: projection diverges at step %d", i, s.ID, j)
				break
			}
		}
	}
	return p
}

func selectionOf(s *domain.Simulation) (domain.Selection, error) {
	values := make(map[string]float64, len(s.Sliders))
	for _, st := range s.Sliders {
		values[string(st.Slider)] = st.Value
	}
	return domain.NewSelection(s.Target, values)
}

func statesEqual(a, b domain.ClimateState) bool {
	return floatEq(a.Temperature, b.Temperature) && floatEq(a.Rainfall, b.Rainfall) &&
		floatEq(a.Humidity, b.Humidity) && floatEq(a.CO2Level, b.CO2Level)
}

func risksEqual(a, b domain.RiskTriple) bool {
	return floatEq(a.Flood, b.Flood) && floatEq(a.Drought, b.Drought) && floatEq(a.Heatwave, b.Heatwave)
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
