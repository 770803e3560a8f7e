package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"riskcore/internal/cascade"
	"riskcore/internal/classifier"
	"riskcore/internal/daemon"
	"riskcore/internal/domain"
	"riskcore/internal/preprocessor"
)

var cascadeInputFile string

func init() {
	rootCmd.AddCommand(cascadeCmd)
	cascadeCmd.Flags().StringVarP(&cascadeInputFile, "file", "f", "", "JSON metric bag to read (defaults to stdin)")
}

var cascadeCmd = &cobra.Command{
	Use:   "cascade",
	Short: "Run one cascade inference over a JSON metric bag",
	Long: `Reads a raw metric bag as JSON from a file or stdin, runs it through
the same cascade inference pipeline the server uses, and prints the
resulting prediction record as JSON. Intended for local debugging.`,
	RunE: runCascade,
}

func runCascade(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if cascadeInputFile != "" {
		f, err := os.Open(cascadeInputFile)
		if err != nil {
			return fmt.Errorf("open %s: %w", cascadeInputFile, err)
		}
		defer f.Close()
		r = f
	}

	var raw domain.RawMetrics
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return fmt.Errorf("decode metric bag: %w", err)
	}

	cfg, err := daemon.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	engine := cascade.New(
		preprocessor.New(),
		classifier.New(),
		cascade.WithResilienceWeights(cascade.ResilienceWeights{
			Env:    cfg.Resilience.WeightEnv,
			Health: cfg.Resilience.WeightHealth,
			Food:   cfg.Resilience.WeightFood,
		}),
		cascade.WithConfidenceWeights(cascade.ConfidenceWeights{
			Negentropy: cfg.Confidence.NegentropyWeight,
			Margin:     cfg.Confidence.MarginWeight,
		}),
	)

	pred := engine.Infer(raw)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pred)
}
