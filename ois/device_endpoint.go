// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package ois

import (
	"errors"
	"fmt"
)

// DeviceEndpoint is the peripheral-facing side of an OIS connection: the
// control panel or simulated peripheral that declares a fixed catalog to
// the host and then exchanges values and events with it. It is the Go name
// for what the original source calls OisHost — "use this class on the
// device to talk to a host" — renamed here to match the role it plays (see
// DESIGN.md).
type DeviceEndpoint struct {
	transport Transport
	log       LogFunc
	hook      StatsHook
	localName string
	productID uint32
	vendorID  uint32

	requestBinary bool // whether this device asks for binary mode in its SYN

	protocolVersion int
	binary          bool
	state           State
	buf             *commandBuffer

	hostGameVersion int
	hostGameName    string

	inputs  []NumericValue
	outputs []NumericValue
	events  []Event

	queuedOutputs []int // indices into outputs, pending a VAL frame out
	pendingEvents []int // indices into events, pending an EXC frame out

	synSent          bool
	declarationsSent bool
}

// NewDeviceEndpoint constructs a device-role endpoint. pid/vid are the
// product/vendor identity advertised via PID; localName is a local
// identifier for logging.
func NewDeviceEndpoint(transport Transport, localName string, pid, vid uint32) *DeviceEndpoint {
	return &DeviceEndpoint{
		transport:       transport,
		log:             discardLog,
		localName:       localName,
		productID:       pid,
		vendorID:        vid,
		protocolVersion: 2,
		requestBinary:   true,
		buf:             newCommandBuffer(),
	}
}

// SetLogFunc installs the diagnostic hook. A nil fn installs a no-op.
func (d *DeviceEndpoint) SetLogFunc(fn LogFunc) {
	if fn == nil {
		fn = discardLog
	}
	d.log = fn
}

// SetStatsHook installs an observer notified of frame-level events as Poll
// drives the connection. A nil hook disables observation.
func (d *DeviceEndpoint) SetStatsHook(hook StatsHook) {
	d.hook = hook
}

// RequestBinary configures whether the device asks the host for binary
// framing (protocol version 2) in its SYN. Version 1 is always ASCII.
func (d *DeviceEndpoint) RequestBinary(b bool) { d.requestBinary = b }

var errNotInHandshaking = errors.New("ois: catalog can only be declared before connecting")
var errDuplicateChannel = errors.New("ois: channel already declared")
var errNameTooLong = errors.New("ois: name exceeds MaxNameLength")

// DeclareInput registers a channel the host will write values to (e.g. a
// lamp). Must be called before the connection leaves Handshaking — the
// catalog is fixed once Synchronisation begins.
func (d *DeviceEndpoint) DeclareInput(name string, channel uint16, t NumericType) error {
	return d.declare(&d.inputs, name, channel, t)
}

// DeclareOutput registers a channel this device reports values on (e.g. a
// knob position).
func (d *DeviceEndpoint) DeclareOutput(name string, channel uint16, t NumericType) error {
	return d.declare(&d.outputs, name, channel, t)
}

// DeclareEvent registers a fire-and-forget event channel.
func (d *DeviceEndpoint) DeclareEvent(channel uint16, name string) error {
	if d.state != Handshaking {
		return errNotInHandshaking
	}
	if len(name) > MaxNameLength {
		return errNameTooLong
	}
	if findEvent(d.events, channel) >= 0 {
		return errDuplicateChannel
	}
	d.events = append(d.events, Event{Channel: channel, Name: name})
	return nil
}

func (d *DeviceEndpoint) declare(list *[]NumericValue, name string, channel uint16, t NumericType) error {
	if d.state != Handshaking {
		return errNotInHandshaking
	}
	if len(name) > MaxNameLength {
		return errNameTooLong
	}
	if findNumericValue(*list, channel) >= 0 {
		return errDuplicateChannel
	}
	*list = append(*list, NumericValue{Name: name, Channel: channel, Active: true, Type: t, Value: zeroValue(t)})
	return nil
}

// HostGameVersion and HostGameName report the game identity received in a
// v2 ACK; both are zero-valued until then.
func (d *DeviceEndpoint) HostGameVersion() int    { return d.hostGameVersion }
func (d *DeviceEndpoint) HostGameName() string    { return d.hostGameName }
func (d *DeviceEndpoint) Connecting() bool        { return d.state != Handshaking }
func (d *DeviceEndpoint) Connected() bool         { return d.state == Active }
func (d *DeviceEndpoint) State() State            { return d.state }
func (d *DeviceEndpoint) Inputs() []NumericValue  { return d.inputs }
func (d *DeviceEndpoint) Outputs() []NumericValue { return d.outputs }
func (d *DeviceEndpoint) Events() []Event         { return d.events }

// SetOutput updates the stored value of an outputs-catalog entry and
// enqueues it for transmission if the value actually changed.
func (d *DeviceEndpoint) SetOutput(channel uint16, value Value) bool {
	idx := findNumericValue(d.outputs, channel)
	if idx < 0 {
		return false
	}
	if !d.outputs[idx].Value.Equal(value) {
		d.outputs[idx].Value = value
		d.queuedOutputs = enqueueIndex(d.queuedOutputs, idx)
	}
	return true
}

// FireEvent enqueues channel's event for an EXC frame on the next Poll.
// Returns false if no such event channel is registered.
func (d *DeviceEndpoint) FireEvent(channel uint16) bool {
	idx := findEvent(d.events, channel)
	if idx < 0 {
		return false
	}
	d.pendingEvents = append(d.pendingEvents, idx)
	return true
}

// Poll ensures the transport is connected, drains inbound bytes, drives the
// handshake/declaration sequence forward, and flushes queued outputs and
// events.
func (d *DeviceEndpoint) Poll() {
	if !d.transport.IsConnected() {
		if err := d.transport.Connect(); err != nil {
			d.log(LogWarn, "%s: connect failed: %v", d.transport.Name(), err)
			return
		}
		d.synSent = false
	}

	if d.state == Handshaking && !d.synSent {
		d.sendSYN()
	}

	for {
		n, err := d.buf.fill(d.transport)
		if err != nil {
			d.log(LogWarn, "%s: read failed: %v", d.transport.Name(), err)
			d.resetConnection()
			return
		}
		d.drainBuffer()
		if n == 0 {
			break
		}
	}

	if d.buf.full() {
		d.log(LogWarn, "%s: command buffer overflow, resetting", d.transport.Name())
		d.sendText(opEND + "\n")
		d.resetConnection()
		return
	}

	if d.state == Synchronisation && !d.declarationsSent {
		d.sendDeclarations()
	}

	for _, idx := range d.queuedOutputs {
		d.sendValue(d.outputs[idx])
	}
	d.queuedOutputs = d.queuedOutputs[:0]

	for _, idx := range d.pendingEvents {
		d.sendEvent(d.events[idx])
	}
	d.pendingEvents = d.pendingEvents[:0]
}

func (d *DeviceEndpoint) sendText(s string) {
	_, _ = d.transport.Write([]byte(s))
	d.frameEncoded()
}

func (d *DeviceEndpoint) sendData(b []byte) {
	_, _ = d.transport.Write(b)
	d.frameEncoded()
}

func (d *DeviceEndpoint) sendSYN() {
	version := 1
	binary := false
	if d.requestBinary {
		version = 2
		binary = true
	}
	mode := ""
	if binary {
		mode = ",B"
	}
	d.sendText(fmt.Sprintf("%s=%d%s\n", opSYN, version, mode))
	d.log(LogInfo, "-> SYN: %d/%v", version, binary)
	// Mode is latched at the SYN/ACK exchange (spec.md §4.2), symmetrically
	// on both sides: the host latches it on receipt of SYN, the device
	// latches it here on send, since there's no separate mode-confirmation
	// bit in ACK for the device to read back.
	d.binary = binary
	d.protocolVersion = version
	d.state = Handshaking // stays Handshaking until ACK/DEN arrives
	d.synSent = true
}

func (d *DeviceEndpoint) sendDeclarations() {
	d.sendPID()
	for _, e := range d.events {
		if d.binary {
			frame := append([]byte{clCMD, byte(e.Channel), byte(e.Channel >> 8)}, []byte(e.Name)...)
			frame = append(frame, 0)
			d.sendData(frame)
		} else {
			d.sendText(fmt.Sprintf("%s=%s,%d\n", opCMD, e.Name, e.Channel))
		}
		d.log(LogInfo, "-> CMD: %d %s", e.Channel, e.Name)
	}
	d.declareNumeric(d.inputs, false)
	d.declareNumeric(d.outputs, true)
	if d.binary {
		d.sendData([]byte{clACT})
	} else {
		d.sendText(opACT + "\n")
	}
	d.log(LogInfo, "-> ACT")
	d.state = Active
	d.declarationsSent = true
}

// sendPID advertises this device's product/vendor identity and local name so
// the host can populate HostEndpoint.ProductID/VendorID/DeviceName.
func (d *DeviceEndpoint) sendPID() {
	if d.binary {
		frame := make([]byte, 9, 9+len(d.localName)+1)
		frame[0] = clPID
		putLEUint32(frame[1:5], d.productID)
		putLEUint32(frame[5:9], d.vendorID)
		frame = append(frame, []byte(d.localName)...)
		frame = append(frame, 0)
		d.sendData(frame)
	} else {
		d.sendText(fmt.Sprintf("%s=%d,%d,%s\n", opPID, d.productID, d.vendorID, d.localName))
	}
	d.log(LogInfo, "-> PID: %d/%d %s", d.productID, d.vendorID, d.localName)
}

func (d *DeviceEndpoint) declareNumeric(list []NumericValue, output bool) {
	for _, v := range list {
		if d.binary {
			flags := byte(0)
			switch v.Type {
			case Number:
				flags = nioPayloadNumber
			case Fraction:
				flags = nioPayloadFraction
			}
			if output {
				flags |= nioPayloadOutput
			}
			frame := append([]byte{clNIO | flags, byte(v.Channel), byte(v.Channel >> 8)}, []byte(v.Name)...)
			frame = append(frame, 0)
			d.sendData(frame)
		} else {
			d.sendText(fmt.Sprintf("%s=%s,%d\n", asciiNumericOpcode(v.Type, output), v.Name, v.Channel))
		}
		d.log(LogInfo, "-> NIO: %d %s", v.Channel, v.Name)
	}
}

func asciiNumericOpcode(t NumericType, output bool) string {
	switch {
	case output && t == Number:
		return opNON
	case output && t == Fraction:
		return opNOF
	case output:
		return opNOB
	case t == Number:
		return opNIN
	case t == Fraction:
		return opNIF
	default:
		return opNIB
	}
}

func (d *DeviceEndpoint) sendValue(v NumericValue) {
	// Device-originated VAL frames use the client opcode/shift table
	// (spec §4.2's "Client (device-originated) frame table").
	raw := ToRaw(v.Type, v.Value)
	if d.binary {
		d.sendData(packValueFrame(v.Channel, raw, clPayloadShift, clVAL1, clVAL2, clVAL3, clVAL4))
	} else {
		d.sendText(fmt.Sprintf("%d=%d\n", v.Channel, raw))
	}
	d.log(LogInfo, "-> %d(%s) = %v", v.Channel, v.Name, v.Value)
}

func (d *DeviceEndpoint) sendEvent(e Event) {
	if d.binary {
		d.sendData(packEventFrame(e.Channel))
	} else {
		d.sendText(fmt.Sprintf("%s=%d\n", opEXC, e.Channel))
	}
	d.log(LogInfo, "-> EXC: %d (%s)", e.Channel, e.Name)
}

func (d *DeviceEndpoint) resetConnection() {
	if d.hook != nil {
		d.hook.Reset()
	}
	d.state = Handshaking
	d.protocolVersion = 2
	d.binary = false
	d.hostGameVersion = 0
	d.hostGameName = ""
	d.queuedOutputs = nil
	d.pendingEvents = nil
	d.synSent = false
	d.declarationsSent = false
	d.buf.reset()
	// Unlike HostEndpoint, the device's own catalog is locally configured
	// and outlives any single connection — it is not cleared on reset.
}

func (d *DeviceEndpoint) drainBuffer() {
	for {
		buf := d.buf.bytes()
		if len(buf) == 0 {
			return
		}
		// The host answers SYN with an ASCII ACK/DEN line, so binary
		// decoding only starts once the handshake has left Handshaking.
		if d.binary && d.state != Handshaking {
			consumed := d.processBinary(buf)
			if consumed == 0 {
				return
			}
			d.frameDecoded()
			d.buf.discard(consumed)
			continue
		}
		line, consumed, ok := splitLine(buf)
		if !ok {
			return
		}
		d.frameDecoded()
		d.processAsciiLine(line)
		d.buf.discard(consumed)
	}
}

func (d *DeviceEndpoint) processBinary(buf []byte) int {
	first := buf[0]

	// END is the single literal byte 0x45 ('E'), not a masked opcode — the
	// server table has no payload bits to pack for it, unlike VAL_N.
	if first == svEND {
		if len(buf) < 1 {
			return 0
		}
		d.log(LogInfo, "<- END")
		d.handleEnd()
		return 1
	}

	command := first & svCommandMask
	var width int
	switch command {
	case svVAL1:
		width = 1
	case svVAL2:
		width = 2
	case svVAL3:
		width = 3
	case svVAL4:
		width = 4
	default:
		d.log(LogWarn, "%s: unknown binary opcode 0x%02x", d.transport.Name(), first)
		if d.hook != nil {
			d.hook.UnknownOpcode()
		}
		return 1
	}
	frameLen := 1 + width
	if len(buf) < frameLen {
		return 0
	}
	channel, raw := unpackValueFrame(first, buf[1:frameLen], width, svPayloadShift)
	d.applyInboundValue(channel, raw)
	return frameLen
}

func (d *DeviceEndpoint) applyInboundValue(channel uint16, raw int16) {
	idx := findNumericValue(d.inputs, channel)
	if idx < 0 {
		d.log(LogWarn, "received value for unregistered channel %d", channel)
		return
	}
	v := &d.inputs[idx]
	v.Value = FromRaw(v.Type, raw)
	d.log(LogInfo, "<- %d(%s) = %v", channel, v.Name, v.Value)
}

func (d *DeviceEndpoint) handleEnd() {
	if d.state != Handshaking {
		d.resetConnection()
	}
	_ = d.transport.Disconnect()
}

func (d *DeviceEndpoint) processAsciiLine(line []byte) {
	if len(line) == 0 {
		return
	}
	key, payload, isValue := parseLine(line)
	if isValue {
		channel, err := atoiU16(key)
		if err != nil {
			d.log(LogWarn, "malformed channel %q", key)
			return
		}
		raw, err := atoiI16(string(payload))
		if err != nil {
			d.log(LogWarn, "malformed value %q", string(payload))
			return
		}
		d.applyInboundValue(channel, raw)
		return
	}

	switch key {
	case opACK:
		d.handleACK(payload)
	case opDEN:
		d.log(LogInfo, "<- DEN")
		d.resetConnection()
	case opEND:
		d.log(LogInfo, "<- END")
		d.handleEnd()
	default:
		d.log(LogWarn, "unknown command: %s", string(line))
		if d.hook != nil {
			d.hook.UnknownOpcode()
		}
	}
}

// handleACK parses the host's handshake response. A bare ACK (v1) confirms
// ASCII mode; a v2 "ACK=<gameVersion>,<gameName>" also carries the host's
// identity. This mirrors the SYN/ACK exchange described in spec.md §4.1;
// the retrieved original source's device-side ASCII processor didn't show
// this branch explicitly (see DESIGN.md), so it is reconstructed from the
// symmetric host-side handling and the handshake state transition spec.
func (d *DeviceEndpoint) handleACK(payload []byte) {
	if d.state != Handshaking {
		d.log(LogWarn, "ACK not allowed in state %s", d.state)
		if d.hook != nil {
			d.hook.StateViolation()
		}
		return
	}
	if len(payload) > 0 {
		verField, nameField := splitField(payload, ',')
		if v, err := atoiI16(string(verField)); err == nil {
			d.hostGameVersion = int(v)
		}
		d.hostGameName = string(nameField)
	}
	d.log(LogInfo, "<- ACK")
	d.state = Synchronisation
}
