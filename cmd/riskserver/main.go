// Command riskserver is the urban risk inference service's process
// entrypoint: a cobra CLI exposing serve, config inspection, and a
// one-shot local cascade debugging command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "riskserver",
	Short: "Urban multi-domain risk inference service",
	Long: `riskserver runs the real-time environmental/health/food risk
inference service: ingestion, cascading classification, scenario
simulation, and policy evaluation behind an HTTP API.`,
}

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a TOML config file (defaults apply if omitted)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
