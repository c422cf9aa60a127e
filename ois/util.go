// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package ois

import "strconv"

// leUint16 reads a little-endian uint16 from the first two bytes of b.
// Binary decode must always go through explicit byte reads rather than a
// pointer-cast reinterpretation of the buffer (spec §9 "raw pointer casts"),
// which also sidesteps any alignment assumption.
func leUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// leUint32 reads a little-endian uint32 from the first four bytes of b.
// The original source read multi-byte fields via a direct pointer cast,
// whose byte order depends on host endianness (spec §9 flags this); PID
// frames fix a concrete, explicit little-endian order here instead.
func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLEUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// cString returns the bytes up to (not including) the first NUL, or all of
// b if there is none.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func atoiU16(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

func atoiI16(s string) (int16, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return clampInt16(int32(n)), nil
}

// atoiU32 parses a full-range uint32, for fields like PID's product/vendor
// IDs that are not clamped to int16 the way numeric channel values are.
func atoiU32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}
