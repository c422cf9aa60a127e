// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package ois

import "bytes"

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// splitLine extracts the first '\n'-terminated line from buf. ok is false
// if no newline has arrived yet, in which case the caller must wait for
// more bytes rather than discard anything.
func splitLine(buf []byte) (line []byte, consumed int, ok bool) {
	idx := bytes.IndexByte(buf, '\n')
	if idx < 0 {
		return nil, 0, false
	}
	return buf[:idx], idx + 1, true
}

// parseLine classifies an ASCII line per spec §4.2: either a three-letter
// opcode, with an '=' payload or bare (ACT, END, DEN and a v1 ACK carry
// none), or a digit-led channel=value pair.
func parseLine(line []byte) (key string, payload []byte, isValue bool) {
	if len(line) == 0 {
		return "", nil, false
	}
	if isDigit(line[0]) {
		eq := bytes.IndexByte(line, '=')
		if eq < 0 {
			return "", nil, false
		}
		return string(line[:eq]), line[eq+1:], true
	}
	if len(line) < 3 {
		return string(line), nil, false
	}
	key = string(line[:3])
	if len(line) >= 4 && line[3] == '=' {
		payload = line[4:]
	}
	return key, payload, false
}

// splitField splits a comma-separated payload at the first comma, mirroring
// ZeroDelimiter: field is everything before the comma (or the whole slice
// if there is none), rest is everything after it (or nil).
func splitField(payload []byte, sep byte) (field, rest []byte) {
	idx := bytes.IndexByte(payload, sep)
	if idx < 0 {
		return payload, nil
	}
	return payload[:idx], payload[idx+1:]
}
