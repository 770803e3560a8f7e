package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"riskcore/internal/api"
	"riskcore/internal/cascade"
	"riskcore/internal/classifier"
	"riskcore/internal/daemon"
	"riskcore/internal/fanout"
	"riskcore/internal/preprocessor"
	"riskcore/internal/state"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long:  `Loads configuration, wires the cascade engine and state manager, and blocks serving the HTTP API.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
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

	mgr := state.New(engine, state.Config{
		WindowSize:       cfg.Window.Size,
		MaxInferenceRate: cfg.RateGate.MaxPerSecond,
	})

	hub := fanout.NewHub(mgr)
	mgr.SetBroadcaster(hub)

	server := api.NewServer(engine, mgr, hub)
	if cfg.Server.MetricsEnabled {
		server.EnableMetrics()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("[riskserver] listening on %s", addr)
	return http.ListenAndServe(addr, server.Handler())
}
