// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package ois

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS, default 500.
func getFuzzRounds() int {
	if v := os.Getenv("FUZZ_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 500
}

func getFuzzSeed() int64 {
	if v := os.Getenv("FUZZ_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return time.Now().UnixNano()
}

func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// TestFuzzHostProcessRandomBytes feeds random byte streams through a
// HostEndpoint in both ASCII and binary mode and asserts it never panics,
// regardless of how garbled the input is — spec.md's property that a
// malformed stream degrades to warnings/resets, never a crash.
func TestFuzzHostProcessRandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)

	for i := 0; i < rounds; i++ {
		tr := newMemTransport("fuzz-host")
		h := NewHostEndpoint(tr, "host", 1, "OisHub")
		h.binary = rng.Intn(2) == 0
		h.state = State(rng.Intn(3))

		length := rng.Intn(256) + 1
		data := make([]byte, length)
		rng.Read(data)
		tr.in.Write(data)

		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("round %d: panic processing %q: %v", i, data, r)
				}
			}()
			_, _ = h.buf.fill(tr)
			h.drainBuffer()
		}()
	}
}

// TestFuzzDeviceProcessRandomBytes is the device-side counterpart.
func TestFuzzDeviceProcessRandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)

	for i := 0; i < rounds; i++ {
		tr := newMemTransport("fuzz-device")
		d := NewDeviceEndpoint(tr, "device", 1, 1)
		d.binary = rng.Intn(2) == 0
		d.state = State(rng.Intn(3))

		length := rng.Intn(256) + 1
		data := make([]byte, length)
		rng.Read(data)
		tr.in.Write(data)

		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("round %d: panic processing %q: %v", i, data, r)
				}
			}()
			_, _ = d.buf.fill(tr)
			d.drainBuffer()
		}()
	}
}
