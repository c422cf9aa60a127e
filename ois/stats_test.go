// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package ois

import "testing"

type countingHook struct {
	decoded, encoded, resets, unknown, violations int
}

func (c *countingHook) FrameDecoded()   { c.decoded++ }
func (c *countingHook) FrameEncoded()   { c.encoded++ }
func (c *countingHook) Reset()          { c.resets++ }
func (c *countingHook) UnknownOpcode()  { c.unknown++ }
func (c *countingHook) StateViolation() { c.violations++ }

// TestStatsHookObservesLiveSession confirms SetStatsHook is actually driven
// by Poll() on both endpoints, not just callable from test code directly.
func TestStatsHookObservesLiveSession(t *testing.T) {
	host, device, _, _ := newLinkedPair(t, 0xABCD, 0xEF01)
	hostHook := &countingHook{}
	deviceHook := &countingHook{}
	host.SetStatsHook(hostHook)
	device.SetStatsHook(deviceHook)

	pollUntilActive(t, host, device)

	if hostHook.decoded == 0 {
		t.Error("host hook saw no FrameDecoded calls during handshake")
	}
	if deviceHook.encoded == 0 {
		t.Error("device hook saw no FrameEncoded calls during handshake")
	}
	if hostHook.encoded == 0 {
		t.Error("host hook saw no FrameEncoded calls during handshake")
	}
	if deviceHook.decoded == 0 {
		t.Error("device hook saw no FrameDecoded calls during handshake")
	}
}

// TestStatsHookUnknownOpcode confirms an unrecognized ASCII command both
// logs a warning and notifies the hook, rather than only the former.
func TestStatsHookUnknownOpcode(t *testing.T) {
	host, device, _, deviceTr := newLinkedPair(t, 0x1111, 0x2222)
	hook := &countingHook{}
	host.SetStatsHook(hook)
	device.RequestBinary(false)
	pollUntilActive(t, host, device)

	if _, err := deviceTr.Write([]byte("BOGUS=1\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	host.Poll()

	if hook.unknown == 0 {
		t.Error("hook saw no UnknownOpcode call for an unrecognized ASCII command")
	}
}

// TestStatsHookStateViolationAndReset confirms a handshake violation fires
// both StateViolation and Reset on the host's hook.
func TestStatsHookStateViolationAndReset(t *testing.T) {
	host, device, _, deviceTr := newLinkedPair(t, 0x1111, 0x2222)
	hook := &countingHook{}
	host.SetStatsHook(hook)
	device.RequestBinary(false)
	pollUntilActive(t, host, device)

	if _, err := deviceTr.Write([]byte("SYN=1\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	host.Poll()

	if hook.violations == 0 {
		t.Error("hook saw no StateViolation call for a SYN received outside Handshaking")
	}
	if hook.resets == 0 {
		t.Error("hook saw no Reset call after the state violation")
	}
}
