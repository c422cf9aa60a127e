// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package ois

// StatsHook receives protocol-level observability events as Poll drives the
// connection. It is the only way an external observer (see oismetrics) can
// learn about frame traffic without touching the endpoint's mutating
// methods, preserving the single-threaded Poll contract of spec.md §5: Poll
// calls hook methods synchronously and never concurrently with itself.
type StatsHook interface {
	// FrameDecoded is called once per inbound frame or ASCII line consumed
	// from the wire, including ones whose opcode turns out to be unknown
	// (UnknownOpcode fires alongside it in that case, as a subset count).
	FrameDecoded()
	// FrameEncoded is called once per outbound frame written to the wire.
	FrameEncoded()
	// Reset is called when the connection state is reset to Handshaking,
	// whether from a handshake violation or an explicit DEN/overflow.
	Reset()
	// UnknownOpcode is called when an inbound frame's opcode is not
	// recognized and the frame is discarded.
	UnknownOpcode()
	// StateViolation is called when a command arrives that is not
	// permitted in the connection's current state.
	StateViolation()
}

func (h *HostEndpoint) frameDecoded() {
	if h.hook != nil {
		h.hook.FrameDecoded()
	}
}

func (h *HostEndpoint) frameEncoded() {
	if h.hook != nil {
		h.hook.FrameEncoded()
	}
}

func (d *DeviceEndpoint) frameDecoded() {
	if d.hook != nil {
		d.hook.FrameDecoded()
	}
}

func (d *DeviceEndpoint) frameEncoded() {
	if d.hook != nil {
		d.hook.FrameEncoded()
	}
}
