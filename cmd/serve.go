// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package cmd

import (
	"net/http"

	"github.com/openois/oishub/oisconfig"
	"github.com/openois/oishub/oismetrics"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an OIS session with the metrics/status side-car forced on",
	Long: `Equivalent to "host" or "device" (dispatched by the config's role),
but forces the metrics side-car on regardless of the config file's
metrics.enabled setting, so ad-hoc monitoring doesn't require editing
the config.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := oisconfig.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Metrics.Enabled = true
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9480"
	}

	switch cfg.Role {
	case oisconfig.RoleDevice:
		return runDeviceWithConfig(cfg)
	default:
		return runHostWithConfig(cfg)
	}
}

// serveMetrics runs the oismetrics HTTP router until the process exits;
// meant to be launched on its own goroutine alongside a Poll loop.
func serveMetrics(m *oismetrics.Metrics, addr string) {
	logger.Info().Str("addr", addr).Msg("metrics side-car listening")
	if err := http.ListenAndServe(addr, m.Router()); err != nil {
		logger.Error().Err(err).Msg("metrics side-car stopped")
	}
}
