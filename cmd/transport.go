// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package cmd

import (
	"fmt"

	"github.com/openois/oishub/ois"
	"github.com/openois/oishub/oisconfig"
	"github.com/openois/oishub/oistransport"
)

// openTransport constructs the ois.Transport named by cfg, prompting
// interactively for a WebSocket password when a username is configured
// but OIS_WS_PASSWORD is unset — mirrors the teacher's OpenConnection
// dispatch in spirit, generalized over oisconfig.TransportConfig instead
// of package-level cobra flags.
func openTransport(cfg oisconfig.TransportConfig) (ois.Transport, error) {
	switch cfg.Kind {
	case oisconfig.TransportSerial:
		return oistransport.NewSerialTransport(cfg.SerialPort, cfg.BaudRate), nil

	case oisconfig.TransportWebSocket:
		password := ""
		if cfg.WebSocketUser != "" {
			var err error
			password, err = oistransport.PromptPassword()
			if err != nil {
				return nil, fmt.Errorf("cmd: read websocket password: %w", err)
			}
		}
		return oistransport.NewWebSocketTransport(cfg.WebSocketURL, cfg.WebSocketUser, password, cfg.SkipTLSVerify), nil

	default:
		return nil, fmt.Errorf("cmd: unsupported transport kind %q", cfg.Kind)
	}
}
