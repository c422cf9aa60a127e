// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openois/oishub/ois"
	"github.com/openois/oishub/oisconfig"
	"github.com/openois/oishub/oismetrics"
	"github.com/openois/oishub/oisrecorder"
	"github.com/spf13/cobra"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run the host (application) side of an OIS session",
	Long: `Run the host/application endpoint of an OIS session: connects to a
device over the configured transport, negotiates the handshake, and
polls the connection until interrupted (Ctrl+C).`,
	RunE: runHost,
}

func init() {
	rootCmd.AddCommand(hostCmd)
}

func runHost(cmd *cobra.Command, args []string) error {
	cfg, err := oisconfig.Load(configPath)
	if err != nil {
		return err
	}
	return runHostWithConfig(cfg)
}

func runHostWithConfig(cfg oisconfig.Config) error {
	tr, err := openTransport(cfg.Transport)
	if err != nil {
		return err
	}
	if cfg.Recorder.Enabled {
		f, err := os.Create(cfg.Recorder.Path)
		if err != nil {
			return err
		}
		defer f.Close()
		tr = oisrecorder.NewRecordingTransport(tr, f)
	}

	host := ois.NewHostEndpoint(tr, cfg.Name, cfg.GameVersion, cfg.GameName)
	host.SetLogFunc(zerologLogFunc(logger))

	var metrics *oismetrics.Metrics
	if cfg.Metrics.Enabled {
		metrics = oismetrics.New(host)
		host.SetStatsHook(metrics)
		go serveMetrics(metrics, cfg.Metrics.ListenAddr)
	}

	logger.Info().Str("name", cfg.Name).Str("transport", string(cfg.Transport.Kind)).Msg("host starting")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	lastState := ois.State(-1)
	for {
		select {
		case <-sigCh:
			logger.Info().Msg("host shutting down")
			return nil
		case <-ticker.C:
			host.Poll()
			if state := host.State(); state != lastState {
				logger.Info().Str("state", state.String()).Str("device", host.DeviceName()).Msg("connection state changed")
				lastState = state
			}
			if metrics != nil {
				metrics.Sync()
			}
		}
	}
}
