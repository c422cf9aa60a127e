// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

// Package oistransport supplies concrete ois.Transport implementations: a
// serial port (go.bug.st/serial) and a WebSocket (gorilla/websocket),
// mirroring the teacher's cmd/connection.go Connection interface and
// NCAR-agnoio's serial.go error-wrapping style.
package oistransport

import (
	"fmt"

	"github.com/openois/oishub/ois"
	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// SerialTransport wraps a go.bug.st/serial port as an ois.Transport.
// Connect/Disconnect are idempotent; Read uses a short configured timeout so
// it returns (0, nil) on a quiet line rather than blocking indefinitely,
// matching ois.Transport's non-blocking Read contract.
type SerialTransport struct {
	portName string
	mode     *serial.Mode
	port     serial.Port
}

// NewSerialTransport configures (but does not open) a serial connection at
// 8-N-1 with the given baud rate.
func NewSerialTransport(portName string, baudRate int) *SerialTransport {
	return &SerialTransport{
		portName: portName,
		mode: &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
	}
}

func (s *SerialTransport) IsConnected() bool { return s.port != nil }

func (s *SerialTransport) Connect() error {
	if s.port != nil {
		return nil
	}
	port, err := serial.Open(s.portName, s.mode)
	if err != nil {
		return errors.Wrapf(err, "oistransport: open serial port %q", s.portName)
	}
	if err := port.SetReadTimeout(readPollTimeout); err != nil {
		port.Close()
		return errors.Wrapf(err, "oistransport: set read timeout on %q", s.portName)
	}
	s.port = port
	return nil
}

func (s *SerialTransport) Disconnect() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	if err != nil {
		return errors.Wrapf(err, "oistransport: close serial port %q", s.portName)
	}
	return nil
}

func (s *SerialTransport) Read(buf []byte) (int, error) {
	if s.port == nil {
		return 0, errors.New("oistransport: serial port not connected")
	}
	n, err := s.port.Read(buf)
	if err != nil {
		return n, errors.Wrapf(err, "oistransport: read from %q", s.portName)
	}
	return n, nil
}

func (s *SerialTransport) Write(buf []byte) (int, error) {
	if s.port == nil {
		return 0, errors.New("oistransport: serial port not connected")
	}
	n, err := s.port.Write(buf)
	if err != nil {
		return n, errors.Wrapf(err, "oistransport: write to %q", s.portName)
	}
	return n, nil
}

func (s *SerialTransport) Name() string {
	return fmt.Sprintf("serial:%s@%d", s.portName, s.mode.BaudRate)
}

var _ ois.Transport = (*SerialTransport)(nil)
