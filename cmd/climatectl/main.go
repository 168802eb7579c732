// Command climatectl runs climate scenarios from the command line, generates
// reproducible simulation fixtures and validates fixture files.
//
// Usage:
//
//	climatectl simulate --region india-delhi --target temperature \
//	  --slider co2Reduction=40 --years 10 --format csv
//	climatectl fixtures --out data/fixtures/simulations.json
//	climatectl validate data/fixtures/simulations.json
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "climatectl",
		Short:        "Climate scenario simulation toolkit",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(fixturesCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
