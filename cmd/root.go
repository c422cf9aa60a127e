// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logger     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "oishub",
	Short: "OIS protocol hub",
	Long: `oishub drives the Open Input Stream protocol: a host (game/application)
side and a device (peripheral) side exchanging a catalog of numeric
values and events over a serial or WebSocket transport.

Subcommands:
  host     run the host/application endpoint
  device   run the device/peripheral endpoint
  catalog  dump a running endpoint's catalog as a table
  serve    run the metrics/status side-car alongside an endpoint
  archive  upload a recorder journal to object storage

Configuration is read from a TOML file given with --config; see
oisconfig.Config for the full set of keys.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ois.toml", "Path to the session TOML config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug-level logging")

	cobra.OnInitialize(initLogger)
}

var verbose bool

// initLogger sets up a console zerolog writer, grounded on
// danmuck-edgectl's internal/observability.InitLogger.
func initLogger() {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger = zerolog.New(output).Level(level).With().Timestamp().Str("app", "oishub").Logger()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
