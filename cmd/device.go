// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package cmd

import (
	"fmt"
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

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Run the device (peripheral) side of an OIS session",
	Long: `Run the device/peripheral endpoint of an OIS session: declares the
catalog from the config's [[channels]] entries, connects to the host
over the configured transport, and polls the connection until
interrupted (Ctrl+C).`,
	RunE: runDevice,
}

func init() {
	rootCmd.AddCommand(deviceCmd)
}

func runDevice(cmd *cobra.Command, args []string) error {
	cfg, err := oisconfig.Load(configPath)
	if err != nil {
		return err
	}
	return runDeviceWithConfig(cfg)
}

func numericTypeFromString(s string) (ois.NumericType, error) {
	switch s {
	case "boolean":
		return ois.Boolean, nil
	case "number":
		return ois.Number, nil
	case "fraction":
		return ois.Fraction, nil
	default:
		return 0, fmt.Errorf("cmd: unknown channel type %q", s)
	}
}

func declareChannels(d *ois.DeviceEndpoint, channels []oisconfig.ChannelConfig) error {
	for _, ch := range channels {
		switch ch.Kind {
		case oisconfig.ChannelInput:
			t, err := numericTypeFromString(ch.Type)
			if err != nil {
				return err
			}
			if err := d.DeclareInput(ch.Name, ch.Channel, t); err != nil {
				return fmt.Errorf("cmd: declare input %q: %w", ch.Name, err)
			}
		case oisconfig.ChannelOutput:
			t, err := numericTypeFromString(ch.Type)
			if err != nil {
				return err
			}
			if err := d.DeclareOutput(ch.Name, ch.Channel, t); err != nil {
				return fmt.Errorf("cmd: declare output %q: %w", ch.Name, err)
			}
		case oisconfig.ChannelEvent:
			if err := d.DeclareEvent(ch.Channel, ch.Name); err != nil {
				return fmt.Errorf("cmd: declare event %q: %w", ch.Name, err)
			}
		}
	}
	return nil
}

func runDeviceWithConfig(cfg oisconfig.Config) error {
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

	device := ois.NewDeviceEndpoint(tr, cfg.Name, cfg.ProductID, cfg.VendorID)
	device.SetLogFunc(zerologLogFunc(logger))
	device.RequestBinary(cfg.RequestBinary)

	if err := declareChannels(device, cfg.Channels); err != nil {
		return err
	}

	var metrics *oismetrics.Metrics
	if cfg.Metrics.Enabled {
		metrics = oismetrics.New(device)
		device.SetStatsHook(metrics)
		go serveMetrics(metrics, cfg.Metrics.ListenAddr)
	}

	logger.Info().Str("name", cfg.Name).Str("transport", string(cfg.Transport.Kind)).Int("channels", len(cfg.Channels)).Msg("device starting")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	lastState := ois.State(-1)
	for {
		select {
		case <-sigCh:
			logger.Info().Msg("device shutting down")
			return nil
		case <-ticker.C:
			device.Poll()
			if state := device.State(); state != lastState {
				logger.Info().Str("state", state.String()).Str("host", device.HostGameName()).Msg("connection state changed")
				lastState = state
			}
			if metrics != nil {
				metrics.Sync()
			}
		}
	}
}
