package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/climatesphere/internal/adapter/mlapi"
	"github.com/couchcryptid/climatesphere/internal/domain"
	"github.com/couchcryptid/climatesphere/internal/observability"
)

type simulateOptions struct {
	region      string
	target      string
	sliders     map[string]string
	years       int
	seed        uint64
	format      string
	regionsFile string
	mlURL       string
	mlTimeout   time.Duration
}

func simulateCmd() *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one scenario and print the snapshot as JSON or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.region, "region", "r", "", "region id (unknown ids use the default baseline)")
	f.StringVarP(&opts.target, "target", "t", string(domain.TargetTemperature), "target variable")
	f.StringToStringVarP(&opts.sliders, "slider", "s", nil, "slider values, e.g. co2Reduction=40")
	f.IntVarP(&opts.years, "years", "y", 10, "projection horizon in years")
	f.Uint64Var(&opts.seed, "seed", 1, "noise seed")
	f.StringVarP(&opts.format, "format", "f", string(domain.ExportJSON), "output format: json or csv")
	f.StringVar(&opts.regionsFile, "regions-file", "", "YAML region table (defaults to the built-in table)")
	f.StringVar(&opts.mlURL, "ml-url", "", "remote ML API base URL (local risk model when empty)")
	f.DurationVar(&opts.mlTimeout, "ml-timeout", 4*time.Second, "remote ML API timeout")
	return cmd
}

func runSimulate(ctx context.Context, w io.Writer, opts simulateOptions) error {
	format, err := domain.ParseExportFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.years < 0 || opts.years > 100 {
		return fmt.Errorf("years must be between 0 and 100, got %d", opts.years)
	}

	values := make(map[string]float64, len(opts.sliders))
	for k, v := range opts.sliders {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("slider %s: %w", k, err)
		}
		values[k] = f
	}
	sel, err := domain.NewSelection(domain.NormalizeTarget(opts.target), values)
	if err != nil {
		return err
	}

	regions, err := loadRegions(opts.regionsFile)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	var predictor domain.Predictor
	if opts.mlURL != "" {
		predictor = mlapi.NewClient(opts.mlURL, mlapi.Options{Timeout: opts.mlTimeout},
			observability.NewMetricsWith(prometheus.NewRegistry()), logger)
	}

	sim := domain.RunScenario(ctx, regions, predictor, opts.mlTimeout, domain.ScenarioInput{
		RegionID:  opts.region,
		Selection: sel,
		Years:     opts.years,
		Seed:      opts.seed,
	}, logger)
	sim.ID = runID(sim.RegionID, sim.Target, sim.Seed)

	return domain.Export(w, sim, format)
}

func loadRegions(path string) (*domain.RegionTable, error) {
	if path == "" {
		return domain.DefaultRegionTable(), nil
	}
	return domain.LoadRegionFile(path)
}

// runID is a reproducible id for offline runs.
func runID(region string, target domain.TargetVariable, seed uint64) string {
	if region == "" {
		region = "default"
	}
	return fmt.Sprintf("%s-%s-%d", region, target, seed)
}
