// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package ois

import "fmt"

// HostEndpoint is the application-facing side of an OIS connection: the
// game, simulator, or input router that discovers a device's catalog and
// exchanges values and events with it. It is the Go name for what the
// original source calls OisDevice — "use this class on the host to talk to
// a device" — renamed here to match the role it plays rather than the
// confusing original class name (see DESIGN.md).
type HostEndpoint struct {
	transport   Transport
	log         LogFunc
	hook        StatsHook
	localName   string
	gameVersion int
	gameName    string

	protocolVersion int
	binary          bool
	state           State
	buf             *commandBuffer

	deviceNameOverride string
	productID          uint32
	vendorID           uint32

	inputs  []NumericValue
	outputs []NumericValue
	events  []Event

	queuedInputs []int // indices into inputs, pending a VAL frame out
	eventBuffer  []int // indices into events, received and not yet popped
}

// NewHostEndpoint constructs a host-role endpoint. gameVersion/gameName are
// advertised to the device in the v2 ACK; localName is a local identifier
// for logging, not part of the wire protocol.
func NewHostEndpoint(transport Transport, localName string, gameVersion int, gameName string) *HostEndpoint {
	return &HostEndpoint{
		transport:       transport,
		log:             discardLog,
		localName:       localName,
		gameVersion:     gameVersion,
		gameName:        gameName,
		protocolVersion: 1,
		buf:             newCommandBuffer(),
	}
}

// SetLogFunc installs the diagnostic hook. A nil fn installs a no-op.
func (h *HostEndpoint) SetLogFunc(fn LogFunc) {
	if fn == nil {
		fn = discardLog
	}
	h.log = fn
}

// SetStatsHook installs an observer notified of frame-level events as Poll
// drives the connection. A nil hook disables observation.
func (h *HostEndpoint) SetStatsHook(hook StatsHook) {
	h.hook = hook
}

// DeviceName returns the device's self-reported name (via PID), or "" if
// the device hasn't sent one yet.
func (h *HostEndpoint) DeviceName() string { return h.deviceNameOverride }

// ProductID returns the device's self-reported product ID, or 0.
func (h *HostEndpoint) ProductID() uint32 { return h.productID }

// VendorID returns the device's self-reported vendor ID, or 0.
func (h *HostEndpoint) VendorID() uint32 { return h.vendorID }

// Connecting reports whether the handshake has at least started.
func (h *HostEndpoint) Connecting() bool { return h.state != Handshaking }

// Connected reports whether the connection has reached Active.
func (h *HostEndpoint) Connected() bool { return h.state == Active }

// State returns the current connection lifecycle stage.
func (h *HostEndpoint) State() State { return h.state }

// Inputs, Outputs, Events are read-only views of the discovered catalog.
func (h *HostEndpoint) Inputs() []NumericValue  { return h.inputs }
func (h *HostEndpoint) Outputs() []NumericValue { return h.outputs }
func (h *HostEndpoint) Events() []Event         { return h.events }

// SetInput updates the stored value of an inputs-catalog entry and enqueues
// it for transmission if the value actually changed. channel selects the
// entry among those returned by Inputs(). Returns false if no such channel
// is registered.
func (h *HostEndpoint) SetInput(channel uint16, value Value) bool {
	idx := findNumericValue(h.inputs, channel)
	if idx < 0 {
		return false
	}
	if !h.inputs[idx].Value.Equal(value) {
		h.inputs[idx].Value = value
		h.queuedInputs = enqueueIndex(h.queuedInputs, idx)
	}
	return true
}

// PopEvents drains the received-event buffer in FIFO order, invoking fn for
// each. Returns whether any events were drained.
func (h *HostEndpoint) PopEvents(fn func(Event)) bool {
	if len(h.eventBuffer) == 0 {
		return false
	}
	for _, idx := range h.eventBuffer {
		fn(h.events[idx])
	}
	h.eventBuffer = h.eventBuffer[:0]
	return true
}

// Poll drains all currently available inbound bytes, processes every
// complete command found, then flushes queued input values. It never
// blocks beyond what the transport itself blocks on.
func (h *HostEndpoint) Poll() {
	if !h.transport.IsConnected() {
		if err := h.transport.Connect(); err != nil {
			h.log(LogWarn, "%s: connect failed: %v", h.transport.Name(), err)
			return
		}
	}

	for {
		n, err := h.buf.fill(h.transport)
		if err != nil {
			h.log(LogWarn, "%s: read failed: %v", h.transport.Name(), err)
			h.resetConnection()
			return
		}
		h.drainBuffer()
		if n == 0 {
			break
		}
	}

	if h.buf.full() {
		h.log(LogWarn, "%s: command buffer overflow, resetting", h.transport.Name())
		h.sendText(opEND + "\n")
		h.resetConnection()
		return
	}

	for _, idx := range h.queuedInputs {
		v := h.inputs[idx]
		h.sendValue(v)
	}
	h.queuedInputs = h.queuedInputs[:0]
}

func (h *HostEndpoint) sendValue(v NumericValue) {
	// Host-originated VAL frames use the server opcode/shift table (spec
	// §4.2's "Server (host-originated) frame table"); inbound VAL frames
	// decoded in dispatchBinary use the client table because those arrive
	// from the device.
	raw := ToRaw(v.Type, v.Value)
	if h.binary {
		h.sendData(packValueFrame(v.Channel, raw, svPayloadShift, svVAL1, svVAL2, svVAL3, svVAL4))
	} else {
		h.sendText(fmt.Sprintf("%d=%d\n", v.Channel, raw))
	}
	h.log(LogInfo, "-> %d(%s) = %v", v.Channel, v.Name, v.Value)
}

func (h *HostEndpoint) sendText(s string) {
	_, _ = h.transport.Write([]byte(s))
	h.frameEncoded()
}

func (h *HostEndpoint) sendData(b []byte) {
	_, _ = h.transport.Write(b)
	h.frameEncoded()
}

func (h *HostEndpoint) expectState(cmd string, allowed stateMask) bool {
	if allowed.allows(h.state) {
		return true
	}
	h.log(LogWarn, "%s: %s not allowed in state %s", h.transport.Name(), cmd, h.state)
	if h.hook != nil {
		h.hook.StateViolation()
	}
	if h.state == Handshaking {
		h.resetConnection()
	}
	return false
}

func (h *HostEndpoint) resetConnection() {
	if h.hook != nil {
		h.hook.Reset()
	}
	h.state = Handshaking
	h.protocolVersion = 1
	h.binary = false
	h.deviceNameOverride = ""
	h.productID = 0
	h.vendorID = 0
	h.inputs = nil
	h.outputs = nil
	h.events = nil
	h.queuedInputs = nil
	h.eventBuffer = nil
	h.buf.reset()
}

func (h *HostEndpoint) drainBuffer() {
	for {
		buf := h.buf.bytes()
		if len(buf) == 0 {
			return
		}
		if h.binary {
			consumed, fallback := h.processBinary(buf)
			if consumed == 0 && !fallback {
				return // incomplete frame, wait for more bytes
			}
			if fallback {
				h.binary = false
				continue
			}
			h.frameDecoded()
			h.buf.discard(consumed)
			continue
		}
		line, consumed, ok := splitLine(buf)
		if !ok {
			return
		}
		h.frameDecoded()
		h.processAsciiLine(line)
		h.buf.discard(consumed)
	}
}

// processBinary decodes one binary frame from the front of buf. It returns
// (0, false) if buf doesn't yet hold a complete frame, (n, false) having
// consumed n bytes, or (0, true) if the device has reset to ASCII and the
// bytes should be reprocessed as an ASCII line.
func (h *HostEndpoint) processBinary(buf []byte) (consumed int, fallbackToAscii bool) {
	first := buf[0]
	if first == asciiFallbackSYN || first == asciiFallback451 {
		return 0, true
	}
	command := first & clCommandMask
	var frameLen int
	switch command {
	case clCMD, clNIO, clDBG, clPID:
		frameLen = -1 // variable length, terminated by NUL; computed below
	case clACT, clEND:
		frameLen = 1
	case clTNI:
		frameLen = 3
	case clVAL1:
		frameLen = valueFrameLen(clVAL1, clVAL1)
	case clVAL2:
		frameLen = valueFrameLen(clVAL2, clVAL1)
	case clVAL3:
		frameLen = valueFrameLen(clVAL3, clVAL1)
	case clVAL4:
		frameLen = valueFrameLen(clVAL4, clVAL1)
	case clEXC0:
		frameLen = excFrameLen(clEXC0)
	case clEXC1:
		frameLen = excFrameLen(clEXC1)
	case clEXC2:
		frameLen = excFrameLen(clEXC2)
	default:
		h.log(LogWarn, "%s: unknown binary opcode 0x%02x", h.transport.Name(), first)
		if h.hook != nil {
			h.hook.UnknownOpcode()
		}
		return 1, false
	}

	if frameLen == -1 {
		fixed := fixedPrefixLen(command)
		if len(buf) < fixed {
			return 0, false
		}
		nameStart := fixed
		nameEnd := indexNUL(buf[nameStart:])
		if nameEnd < 0 {
			// No terminator yet; wait for more bytes (or let the overflow
			// path in Poll reset the connection if the buffer is full).
			return 0, false
		}
		frameLen = nameStart + nameEnd + 1
	}

	if len(buf) < frameLen {
		return 0, false
	}
	h.dispatchBinary(command, first, buf[:frameLen])
	return frameLen, false
}

func fixedPrefixLen(command byte) int {
	switch command {
	case clCMD, clNIO:
		return 3 // opcode + 2-byte channel
	case clDBG:
		return 1
	case clPID:
		return 9 // opcode + 4-byte pid + 4-byte vid
	default:
		return 1
	}
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

func (h *HostEndpoint) dispatchBinary(command, first byte, frame []byte) {
	switch command {
	case clPID:
		h.productID = leUint32(frame[1:5])
		h.vendorID = leUint32(frame[5:9])
		h.deviceNameOverride = cString(frame[9:])
		h.log(LogInfo, "<- PID: %d/%d %s", h.productID, h.vendorID, h.deviceNameOverride)
	case clCMD:
		if !h.expectState("CMD", maskOf(Synchronisation, Active)) {
			return
		}
		channel := leUint16(frame[1:3])
		name := cString(frame[3:])
		h.events = append(h.events, Event{Channel: channel, Name: name})
		h.log(LogInfo, "<- CMD: %d %s", channel, name)
	case clNIO:
		allowed := maskOf(Synchronisation)
		if h.protocolVersion > 1 {
			allowed = maskOf(Synchronisation, Active)
		}
		if !h.expectState("NIO", allowed) {
			return
		}
		payload := first &^ clCommandMask
		output := payload&nioPayloadOutput != 0
		nt := Boolean
		switch {
		case payload&nioPayloadFraction != 0:
			nt = Fraction
		case payload&nioPayloadNumber != 0:
			nt = Number
		}
		channel := leUint16(frame[1:3])
		name := cString(frame[3:])
		entry := NumericValue{Name: name, Channel: channel, Active: true, Type: nt, Value: zeroValue(nt)}
		if output {
			h.outputs = append(h.outputs, entry)
		} else {
			h.inputs = append(h.inputs, entry)
		}
		h.log(LogInfo, "<- NIO: %d %s (%v %v)", channel, name, output, nt)
	case clACT:
		if !h.expectState("ACT", maskOf(Synchronisation)) {
			return
		}
		h.state = Active
		h.log(LogInfo, "<- ACT")
	case clTNI:
		if !h.expectState("TNI", maskOf(Synchronisation, Active)) {
			return
		}
		channel := leUint16(frame[1:3])
		idx := findNumericValue(h.inputs, channel)
		if idx >= 0 {
			h.inputs[idx].Active = first&tniPayloadActive != 0
		}
		h.log(LogInfo, "<- TNI %d", channel)
	case clDBG:
		h.log(LogInfo, "<- DBG: %s", cString(frame[1:]))
	case clEXC0, clEXC1, clEXC2:
		if !h.expectState("EXC", maskOf(Active)) {
			return
		}
		var width int
		switch command {
		case clEXC0:
			width = 0
		case clEXC1:
			width = 1
		default:
			width = 2
		}
		channel := unpackEventFrame(first, frame[1:], width)
		idx := findEvent(h.events, channel)
		if idx >= 0 {
			h.eventBuffer = append(h.eventBuffer, idx)
			h.log(LogInfo, "<- EXC: %d (%s)", channel, h.events[idx].Name)
		} else {
			h.log(LogWarn, "<- EXC: invalid channel %d", channel)
		}
	case clVAL1, clVAL2, clVAL3, clVAL4:
		if !h.expectState("VAL", maskOf(Active)) {
			return
		}
		var width int
		switch command {
		case clVAL1:
			width = 1
		case clVAL2:
			width = 2
		case clVAL3:
			width = 3
		default:
			width = 4
		}
		channel, raw := unpackValueFrame(first, frame[1:], width, clPayloadShift)
		h.applyInboundValue(channel, raw)
	case clEND:
		h.log(LogInfo, "<- END")
		h.handleEnd()
	}
}

func (h *HostEndpoint) applyInboundValue(channel uint16, raw int16) {
	idx := findNumericValue(h.outputs, channel)
	if idx < 0 {
		h.log(LogWarn, "received value for unregistered channel %d", channel)
		return
	}
	v := &h.outputs[idx]
	v.Value = FromRaw(v.Type, raw)
	h.log(LogInfo, "<- %d(%s) = %v", channel, v.Name, v.Value)
}

func (h *HostEndpoint) handleEnd() {
	if h.state != Handshaking {
		h.resetConnection()
	}
	_ = h.transport.Disconnect()
}

func (h *HostEndpoint) processAsciiLine(line []byte) {
	if len(line) == 0 {
		return
	}
	key, payload, isValue := parseLine(line)
	if isValue {
		if !h.expectState("<value>", maskOf(Active)) {
			return
		}
		channel, err := atoiU16(key)
		if err != nil {
			h.log(LogWarn, "malformed channel %q", key)
			return
		}
		raw, err := atoiI16(string(payload))
		if err != nil {
			h.log(LogWarn, "malformed value %q", string(payload))
			return
		}
		h.applyInboundValue(channel, raw)
		return
	}

	switch key {
	case opSYN:
		h.handleSYN(payload)
	case opPID:
		if !h.expectState(opPID, maskOf(Synchronisation)) {
			return
		}
		pid, rest := splitField(payload, ',')
		vid, name := splitField(rest, ',')
		h.handlePID(pid, vid, name)
	case opCMD:
		allowed := maskOf(Synchronisation)
		if h.protocolVersion > 1 {
			allowed = maskOf(Synchronisation, Active)
		}
		if !h.expectState(opCMD, allowed) {
			return
		}
		name, rest := splitField(payload, ',')
		channel, err := atoiU16(string(rest))
		if err != nil {
			h.log(LogWarn, "malformed CMD channel")
			return
		}
		h.events = append(h.events, Event{Channel: channel, Name: string(name)})
		h.log(LogInfo, "<- CMD: %d %s", channel, name)
	case opNIB, opNIN, opNIF, opNOB, opNON, opNOF:
		h.handleNIO(key, payload)
	case opTNI:
		if !h.expectState(opTNI, maskOf(Synchronisation, Active)) {
			return
		}
		chStr, activeStr := splitField(payload, ',')
		channel, err := atoiU16(string(chStr))
		if err != nil {
			h.log(LogWarn, "malformed TNI channel")
			return
		}
		idx := findNumericValue(h.inputs, channel)
		if idx >= 0 {
			active, _ := atoiI16(string(activeStr))
			h.inputs[idx].Active = active != 0
		}
		h.log(LogInfo, "<- TNI %d", channel)
	case opACT:
		if !h.expectState(opACT, maskOf(Synchronisation)) {
			return
		}
		h.state = Active
		h.log(LogInfo, "<- ACT")
	case opEXC:
		if !h.expectState(opEXC, maskOf(Active)) {
			return
		}
		channel, err := atoiU16(string(payload))
		if err != nil {
			h.log(LogWarn, "malformed EXC channel")
			return
		}
		idx := findEvent(h.events, channel)
		if idx >= 0 {
			h.eventBuffer = append(h.eventBuffer, idx)
			h.log(LogInfo, "<- EXC: %d (%s)", channel, h.events[idx].Name)
		} else {
			h.log(LogWarn, "<- EXC: invalid channel %d", channel)
		}
	case opDBG:
		h.log(LogInfo, "<- DBG: %s", string(payload))
	case opEND:
		h.log(LogInfo, "<- END")
		h.handleEnd()
	default:
		h.log(LogWarn, "unknown command: %s", string(line))
		if h.hook != nil {
			h.hook.UnknownOpcode()
		}
	}
}

func (h *HostEndpoint) handleSYN(payload []byte) {
	if !h.expectState(opSYN, maskOf(Handshaking)) {
		h.resetConnection()
	}
	versionField, modeField := splitField(payload, ',')
	version, _ := atoiI16(string(versionField))
	binary := len(modeField) > 0 && modeField[0] == 'B'

	h.log(LogInfo, "<- SYN: %d/%v", version, binary)
	if !(version == 1 && binary) && version >= 1 && version <= 2 {
		h.binary = binary
		h.protocolVersion = int(version)
		h.state = Synchronisation
		switch version {
		case 1:
			h.sendText(opACK + "\n")
		case 2:
			h.sendText(fmt.Sprintf("%s=%d,%s\n", opACK, h.gameVersion, h.gameName))
		}
		h.log(LogInfo, "-> ACK")
	} else {
		h.sendText(opDEN + "\n")
		h.log(LogInfo, "-> DEN")
		h.resetConnection()
	}
}

func (h *HostEndpoint) handlePID(pid, vid, name []byte) {
	p, err := atoiU32(string(pid))
	if err != nil {
		h.log(LogWarn, "malformed PID product id %q", string(pid))
		return
	}
	v, err := atoiU32(string(vid))
	if err != nil {
		h.log(LogWarn, "malformed PID vendor id %q", string(vid))
		return
	}
	h.productID = p
	h.vendorID = v
	h.deviceNameOverride = string(name)
	h.log(LogInfo, "<- PID: %d/%d %s", h.productID, h.vendorID, h.deviceNameOverride)
}

func (h *HostEndpoint) handleNIO(key string, payload []byte) {
	output := key == opNOB || key == opNON || key == opNOF
	var nt NumericType
	switch key {
	case opNIN, opNON:
		nt = Number
	case opNIF, opNOF:
		nt = Fraction
	default:
		nt = Boolean
	}
	allowed := maskOf(Synchronisation)
	if h.protocolVersion > 1 {
		allowed = maskOf(Synchronisation, Active)
	}
	if !h.expectState(key, allowed) {
		return
	}
	name, chStr := splitField(payload, ',')
	channel, err := atoiU16(string(chStr))
	if err != nil {
		h.log(LogWarn, "malformed %s channel", key)
		return
	}
	entry := NumericValue{Name: string(name), Channel: channel, Active: true, Type: nt, Value: zeroValue(nt)}
	if output {
		h.outputs = append(h.outputs, entry)
	} else {
		h.inputs = append(h.inputs, entry)
	}
	h.log(LogInfo, "<- %s: %d %s", key, channel, name)
}
