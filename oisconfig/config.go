// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

// Package oisconfig loads session configuration from a TOML file, grounded
// on danmuck-edgectl's miragectl config loader: decode into a raw struct,
// overlay defined fields onto a DefaultConfig(), validate invariants before
// returning.
package oisconfig

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Role selects which endpoint a session config configures.
type Role string

const (
	RoleHost   Role = "host"
	RoleDevice Role = "device"
)

// TransportKind selects the concrete oistransport implementation to wire up.
type TransportKind string

const (
	TransportSerial    TransportKind = "serial"
	TransportWebSocket TransportKind = "websocket"
)

// TransportConfig configures whichever TransportKind is selected; fields for
// the other kind are simply left zero.
type TransportConfig struct {
	Kind TransportKind

	SerialPort string
	BaudRate   int

	WebSocketURL  string
	WebSocketUser string
	SkipTLSVerify bool
}

// RecorderConfig enables capturing every frame to a journal for offline
// replay (see oisrecorder).
type RecorderConfig struct {
	Enabled bool
	Path    string
}

// MetricsConfig enables the HTTP status/metrics side-car (see oismetrics).
type MetricsConfig struct {
	Enabled    bool
	ListenAddr string
}

// Config is a fully-resolved session configuration, ready to construct an
// ois.HostEndpoint or ois.DeviceEndpoint plus its supporting transport and
// side-cars.
type Config struct {
	Role Role

	Name            string // local identifier for logging
	GameVersion     int    // host role: advertised in ACK
	GameName        string // host role
	ProductID       uint32 // device role: advertised in PID
	VendorID        uint32 // device role
	RequestBinary   bool   // device role: ask for protocol v2 binary framing

	MaxNameLength    int
	MaxCommandLength int

	EnableErrorLogging bool

	Transport TransportConfig
	Recorder  RecorderConfig
	Metrics   MetricsConfig

	// Channels is the device role's catalog, declared up front since a
	// device has no other way to describe its inputs/outputs/events to
	// the generic "device" command (a real firmware build would declare
	// these in code; a CLI simulator needs them in the config instead).
	Channels []ChannelConfig
}

// ChannelKind selects which catalog a ChannelConfig is declared into.
type ChannelKind string

const (
	ChannelInput  ChannelKind = "input"
	ChannelOutput ChannelKind = "output"
	ChannelEvent  ChannelKind = "event"
)

// ChannelConfig declares one device-role catalog entry. Type is ignored
// (and should be omitted) for Kind == "event".
type ChannelConfig struct {
	Kind    ChannelKind
	Name    string
	Channel uint16
	Type    string // "boolean" | "number" | "fraction"
}

// DefaultConfig returns the baseline a loaded file is overlaid onto.
func DefaultConfig() Config {
	return Config{
		Role:               RoleHost,
		Name:               "ois-session",
		GameVersion:        1,
		GameName:           "OisHub",
		RequestBinary:      true,
		MaxNameLength:      120,
		EnableErrorLogging: true,
		Transport: TransportConfig{
			Kind:     TransportSerial,
			BaudRate: 115200,
		},
	}
}

// fileConfig is the TOML document shape. Nested tables mirror the teacher's
// flat-key-with-prefix style adapted to TOML's native table support.
type fileConfig struct {
	Role               string `toml:"role"`
	Name               string `toml:"name"`
	GameVersion        int    `toml:"game_version"`
	GameName           string `toml:"game_name"`
	ProductID          uint32 `toml:"product_id"`
	VendorID           uint32 `toml:"vendor_id"`
	RequestBinary      bool   `toml:"request_binary"`
	MaxNameLength      int    `toml:"max_name_length"`
	EnableErrorLogging bool   `toml:"enable_error_logging"`

	Transport struct {
		Kind          string `toml:"kind"`
		SerialPort    string `toml:"serial_port"`
		BaudRate      int    `toml:"baud_rate"`
		WebSocketURL  string `toml:"websocket_url"`
		WebSocketUser string `toml:"websocket_user"`
		SkipTLSVerify bool   `toml:"skip_tls_verify"`
	} `toml:"transport"`

	Recorder struct {
		Enabled bool   `toml:"enabled"`
		Path    string `toml:"path"`
	} `toml:"recorder"`

	Metrics struct {
		Enabled    bool   `toml:"enabled"`
		ListenAddr string `toml:"listen_addr"`
	} `toml:"metrics"`

	Channels []struct {
		Kind    string `toml:"kind"`
		Name    string `toml:"name"`
		Channel uint16 `toml:"channel"`
		Type    string `toml:"type"`
	} `toml:"channels"`
}

// Load decodes a session config from a TOML file at path, overlaying
// defined fields onto DefaultConfig and validating role-dependent
// invariants.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("oisconfig: load %q: %w", path, err)
	}

	if meta.IsDefined("role") {
		cfg.Role = Role(strings.TrimSpace(raw.Role))
	}
	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("game_version") {
		cfg.GameVersion = raw.GameVersion
	}
	if meta.IsDefined("game_name") {
		cfg.GameName = strings.TrimSpace(raw.GameName)
	}
	if meta.IsDefined("product_id") {
		cfg.ProductID = raw.ProductID
	}
	if meta.IsDefined("vendor_id") {
		cfg.VendorID = raw.VendorID
	}
	if meta.IsDefined("request_binary") {
		cfg.RequestBinary = raw.RequestBinary
	}
	if meta.IsDefined("max_name_length") {
		cfg.MaxNameLength = raw.MaxNameLength
	}
	if meta.IsDefined("enable_error_logging") {
		cfg.EnableErrorLogging = raw.EnableErrorLogging
	}
	// MaxCommandLength always derives from MaxNameLength (it is never an
	// independent dial in the wire protocol: opcode + numeric payload +
	// name + NUL), so it is recomputed here rather than separately
	// overlaid from the file.
	cfg.MaxCommandLength = 4 + 6 + cfg.MaxNameLength + 1

	if meta.IsDefined("transport", "kind") {
		cfg.Transport.Kind = TransportKind(strings.TrimSpace(raw.Transport.Kind))
	}
	if meta.IsDefined("transport", "serial_port") {
		cfg.Transport.SerialPort = strings.TrimSpace(raw.Transport.SerialPort)
	}
	if meta.IsDefined("transport", "baud_rate") {
		cfg.Transport.BaudRate = raw.Transport.BaudRate
	}
	if meta.IsDefined("transport", "websocket_url") {
		cfg.Transport.WebSocketURL = strings.TrimSpace(raw.Transport.WebSocketURL)
	}
	if meta.IsDefined("transport", "websocket_user") {
		cfg.Transport.WebSocketUser = strings.TrimSpace(raw.Transport.WebSocketUser)
	}
	if meta.IsDefined("transport", "skip_tls_verify") {
		cfg.Transport.SkipTLSVerify = raw.Transport.SkipTLSVerify
	}

	if meta.IsDefined("recorder", "enabled") {
		cfg.Recorder.Enabled = raw.Recorder.Enabled
	}
	if meta.IsDefined("recorder", "path") {
		cfg.Recorder.Path = strings.TrimSpace(raw.Recorder.Path)
	}

	if meta.IsDefined("metrics", "enabled") {
		cfg.Metrics.Enabled = raw.Metrics.Enabled
	}
	if meta.IsDefined("metrics", "listen_addr") {
		cfg.Metrics.ListenAddr = strings.TrimSpace(raw.Metrics.ListenAddr)
	}

	for _, ch := range raw.Channels {
		cfg.Channels = append(cfg.Channels, ChannelConfig{
			Kind:    ChannelKind(strings.TrimSpace(ch.Kind)),
			Name:    strings.TrimSpace(ch.Name),
			Channel: ch.Channel,
			Type:    strings.TrimSpace(ch.Type),
		})
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Role {
	case RoleHost, RoleDevice:
	default:
		return fmt.Errorf("oisconfig: role must be %q or %q, got %q", RoleHost, RoleDevice, c.Role)
	}

	switch c.Transport.Kind {
	case TransportSerial:
		if c.Transport.SerialPort == "" {
			return fmt.Errorf("oisconfig: transport.serial_port is required for transport.kind=%q", TransportSerial)
		}
	case TransportWebSocket:
		if c.Transport.WebSocketURL == "" {
			return fmt.Errorf("oisconfig: transport.websocket_url is required for transport.kind=%q", TransportWebSocket)
		}
	default:
		return fmt.Errorf("oisconfig: transport.kind must be %q or %q, got %q", TransportSerial, TransportWebSocket, c.Transport.Kind)
	}

	if c.Role == RoleDevice && (c.ProductID == 0 && c.VendorID == 0) {
		return fmt.Errorf("oisconfig: product_id/vendor_id are required for role=%q", RoleDevice)
	}

	if c.Recorder.Enabled && c.Recorder.Path == "" {
		return fmt.Errorf("oisconfig: recorder.path is required when recorder.enabled=true")
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("oisconfig: metrics.listen_addr is required when metrics.enabled=true")
	}

	for _, ch := range c.Channels {
		switch ch.Kind {
		case ChannelInput, ChannelOutput:
			switch ch.Type {
			case "boolean", "number", "fraction":
			default:
				return fmt.Errorf("oisconfig: channel %q: type must be boolean, number, or fraction, got %q", ch.Name, ch.Type)
			}
		case ChannelEvent:
		default:
			return fmt.Errorf("oisconfig: channel %q: kind must be input, output, or event, got %q", ch.Name, ch.Kind)
		}
	}

	return nil
}
