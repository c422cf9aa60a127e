// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package ois

import "testing"

func TestCommandBufferFillAndDiscard(t *testing.T) {
	tr := newMemTransport("t")
	tr.in.WriteString("SYN=1\nrest")

	b := newCommandBuffer()
	n, err := b.fill(tr)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if n != len("SYN=1\nrest") {
		t.Fatalf("fill read %d bytes, want %d", n, len("SYN=1\nrest"))
	}

	line, consumed, ok := splitLine(b.bytes())
	if !ok || string(line) != "SYN=1" {
		t.Fatalf("splitLine = (%q, %v), want SYN=1/true", line, ok)
	}
	b.discard(consumed)
	if string(b.bytes()) != "rest" {
		t.Errorf("after discard, bytes = %q, want rest", b.bytes())
	}
}

func TestCommandBufferFillEmptyReturnsZero(t *testing.T) {
	tr := newMemTransport("t")
	b := newCommandBuffer()
	n, err := b.fill(tr)
	if err != nil || n != 0 {
		t.Fatalf("fill on empty transport = (%d, %v), want (0, nil)", n, err)
	}
}

func TestCommandBufferOverflow(t *testing.T) {
	b := newCommandBuffer()
	cap := len(b.data)
	tr := newMemTransport("t")
	tr.in.Write(make([]byte, cap))

	for !b.full() {
		if _, err := b.fill(tr); err != nil {
			t.Fatalf("fill: %v", err)
		}
	}
	if !b.full() {
		t.Fatal("buffer never reported full")
	}
}

func TestCommandBufferReset(t *testing.T) {
	b := newCommandBuffer()
	tr := newMemTransport("t")
	tr.in.WriteString("abc")
	if _, err := b.fill(tr); err != nil {
		t.Fatalf("fill: %v", err)
	}
	b.reset()
	if len(b.bytes()) != 0 {
		t.Errorf("after reset, bytes = %q, want empty", b.bytes())
	}
}
