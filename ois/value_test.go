// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package ois

import "testing"

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"bool true == bool true", BoolValue(true), BoolValue(true), true},
		{"bool true != bool false", BoolValue(true), BoolValue(false), false},
		{"number equal", NumberValue(42), NumberValue(42), true},
		{"number differ", NumberValue(42), NumberValue(43), false},
		{"fraction equal", FractionValue(0.5), FractionValue(0.5), true},
		{"fraction differ", FractionValue(0.5), FractionValue(0.25), false},
		{"different types never equal", BoolValue(true), NumberValue(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToRawFromRawBoolean(t *testing.T) {
	for _, b := range []bool{true, false} {
		raw := ToRaw(Boolean, BoolValue(b))
		got := FromRaw(Boolean, raw)
		if got.Bool() != b {
			t.Errorf("roundtrip bool %v: got %v", b, got.Bool())
		}
	}
}

func TestToRawFromRawNumber(t *testing.T) {
	tests := []int32{0, 1, -1, 32767, -32768, 40000, -40000}
	for _, n := range tests {
		raw := ToRaw(Number, NumberValue(n))
		got := FromRaw(Number, raw)
		want := clampInt16(n)
		if int16(got.Number()) != want {
			t.Errorf("ToRaw/FromRaw(%d): got %d, want %d", n, got.Number(), want)
		}
	}
}

// TestFromRawNumberSignExtension exercises the spec §9 bug fix: a negative
// int16 read back through FromRaw must sign-extend into a negative int32,
// not an unsigned 16-bit-in-32-bit value.
func TestFromRawNumberSignExtension(t *testing.T) {
	got := FromRaw(Number, -1)
	if got.Number() != -1 {
		t.Errorf("FromRaw(Number, -1).Number() = %d, want -1", got.Number())
	}
}

func TestToRawFractionRounds(t *testing.T) {
	tests := []struct {
		frac float64
		want int16
	}{
		{0.005, 1},  // 0.5 rounds up, not truncates to 0
		{0.125, 13}, // 12.5 rounds up to 13
		{-0.005, -1},
		{0.0, 0},
	}
	for _, tt := range tests {
		got := ToRaw(Fraction, FractionValue(tt.frac))
		if got != tt.want {
			t.Errorf("ToRaw(Fraction, %v) = %d, want %d", tt.frac, got, tt.want)
		}
	}
}

func TestFromRawFractionScale(t *testing.T) {
	got := FromRaw(Fraction, 150)
	if got.Fraction() != 1.5 {
		t.Errorf("FromRaw(Fraction, 150).Fraction() = %v, want 1.5", got.Fraction())
	}
}

func TestClampInt16(t *testing.T) {
	tests := []struct {
		in   int32
		want int16
	}{
		{0, 0},
		{32767, 32767},
		{32768, 32767},
		{1 << 20, 32767},
		{-32768, -32768},
		{-32769, -32768},
		{-(1 << 20), -32768},
	}
	for _, tt := range tests {
		if got := clampInt16(tt.in); got != tt.want {
			t.Errorf("clampInt16(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
