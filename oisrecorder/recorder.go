// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

// Package oisrecorder journals the byte traffic of an ois.Transport to a
// CBOR record stream for offline diagnosis, and replays a journal back as
// a read-only ois.Transport so a captured field session can be re-run
// against the live decoder.
package oisrecorder

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/openois/oishub/ois"
)

// Direction marks which side of the wire a Record's bytes travelled.
type Direction uint8

const (
	DirectionRead  Direction = 0
	DirectionWrite Direction = 1
)

// Record is one journaled Read or Write, keyed by integer map keys the way
// the teacher's Fusain payloads are (see pkg/fusain/cbor.go), kept compact
// on the wire via cbor's ",keyasint" struct tag.
type Record struct {
	Direction Direction `cbor:"0,keyasint"`
	ElapsedNS int64     `cbor:"1,keyasint"` // time since the journal started
	Data      []byte    `cbor:"2,keyasint"`
}

// RecordingTransport decorates an ois.Transport, writing a Record for every
// successful Read/Write to journal as a side effect of normal use.
type RecordingTransport struct {
	ois.Transport
	enc     *cbor.Encoder
	started time.Time
	nowFunc func() time.Time
}

// NewRecordingTransport wraps inner, journaling traffic to journal as it
// flows. nowFunc defaults to time.Now; tests may override it.
func NewRecordingTransport(inner ois.Transport, journal io.Writer) *RecordingTransport {
	return &RecordingTransport{
		Transport: inner,
		enc:       cbor.NewEncoder(journal),
		started:   time.Now(),
		nowFunc:   time.Now,
	}
}

func (r *RecordingTransport) elapsed() int64 {
	now := r.nowFunc
	if now == nil {
		now = time.Now
	}
	return now().Sub(r.started).Nanoseconds()
}

func (r *RecordingTransport) Read(p []byte) (int, error) {
	n, err := r.Transport.Read(p)
	if n > 0 {
		if werr := r.write(DirectionRead, p[:n]); werr != nil && err == nil {
			err = werr
		}
	}
	return n, err
}

func (r *RecordingTransport) Write(p []byte) (int, error) {
	n, err := r.Transport.Write(p)
	if n > 0 {
		if werr := r.write(DirectionWrite, p[:n]); werr != nil && err == nil {
			err = werr
		}
	}
	return n, err
}

func (r *RecordingTransport) write(dir Direction, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	rec := Record{Direction: dir, ElapsedNS: r.elapsed(), Data: cp}
	if err := r.enc.Encode(&rec); err != nil {
		return fmt.Errorf("oisrecorder: encode record: %w", err)
	}
	return nil
}

var _ ois.Transport = (*RecordingTransport)(nil)

// ReplayTransport is a read-only ois.Transport that plays a journal's
// DirectionRead records back on successive Read calls. Writes are accepted
// and discarded, matching a passive capture's one-way nature.
type ReplayTransport struct {
	name    string
	reads   [][]byte
	pos     int
	pending []byte
}

// Replay reads an entire CBOR journal from r and returns a ReplayTransport
// that reproduces its inbound (DirectionRead) byte stream.
func Replay(r io.Reader) (*ReplayTransport, error) {
	dec := cbor.NewDecoder(r)
	rt := &ReplayTransport{name: "replay"}
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("oisrecorder: decode record: %w", err)
		}
		if rec.Direction == DirectionRead {
			rt.reads = append(rt.reads, rec.Data)
		}
	}
	return rt, nil
}

func (rt *ReplayTransport) IsConnected() bool { return true }
func (rt *ReplayTransport) Connect() error    { return nil }
func (rt *ReplayTransport) Disconnect() error { return nil }
func (rt *ReplayTransport) Name() string      { return rt.name }

// Read serves the next journaled inbound chunk, a byte slice at a time:
// once pending is exhausted it advances to the next recorded Read. When the
// journal is exhausted it returns (0, nil) forever, per the non-blocking
// Transport contract (there is simply nothing left to deliver).
func (rt *ReplayTransport) Read(p []byte) (int, error) {
	if len(rt.pending) == 0 {
		if rt.pos >= len(rt.reads) {
			return 0, nil
		}
		rt.pending = rt.reads[rt.pos]
		rt.pos++
	}
	n := copy(p, rt.pending)
	rt.pending = rt.pending[n:]
	return n, nil
}

// Write discards outbound bytes; a replay has no live peer to deliver them
// to.
func (rt *ReplayTransport) Write(p []byte) (int, error) { return len(p), nil }

var _ ois.Transport = (*ReplayTransport)(nil)
