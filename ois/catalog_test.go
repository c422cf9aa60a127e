// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package ois

import "testing"

func TestFindNumericValue(t *testing.T) {
	list := []NumericValue{
		{Name: "a", Channel: 1},
		{Name: "b", Channel: 5},
		{Name: "c", Channel: 9},
	}
	if idx := findNumericValue(list, 5); idx != 1 {
		t.Errorf("findNumericValue(5) = %d, want 1", idx)
	}
	if idx := findNumericValue(list, 42); idx != -1 {
		t.Errorf("findNumericValue(42) = %d, want -1", idx)
	}
}

func TestFindEvent(t *testing.T) {
	list := []Event{{Channel: 3, Name: "x"}, {Channel: 7, Name: "y"}}
	if idx := findEvent(list, 7); idx != 1 {
		t.Errorf("findEvent(7) = %d, want 1", idx)
	}
	if idx := findEvent(list, 100); idx != -1 {
		t.Errorf("findEvent(100) = %d, want -1", idx)
	}
}

// TestEnqueueIndexPermitsDuplicates matches spec.md's explicit statement
// that a dirty queue may hold the same index more than once; dedup happens
// at the value-changed check, not here.
func TestEnqueueIndexPermitsDuplicates(t *testing.T) {
	var q []int
	q = enqueueIndex(q, 3)
	q = enqueueIndex(q, 3)
	q = enqueueIndex(q, 4)
	if len(q) != 3 {
		t.Fatalf("len(q) = %d, want 3", len(q))
	}
	if q[0] != 3 || q[1] != 3 || q[2] != 4 {
		t.Errorf("q = %v, want [3 3 4]", q)
	}
}
