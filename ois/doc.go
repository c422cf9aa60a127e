// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

// Package ois implements the Open Input Stream protocol: the connection
// handshake, catalog discovery, value transport, and dual ASCII/binary frame
// codec shared by a host application and a peripheral device talking over a
// byte-oriented full-duplex transport (typically a serial port).
//
// The package is deliberately dependency-free. It consumes a minimal
// Transport abstraction (see transport.go) and a pluggable log hook (see
// log.go); everything else — the frame codec, command buffer, connection
// state machine, and catalogs — lives here so it can be reused regardless of
// what carries the bytes.
//
// HostEndpoint and DeviceEndpoint are the two roles. Both are
// single-threaded: the owner drives progress by calling Poll at its own
// cadence, and Poll never blocks beyond what the Transport itself blocks on.
package ois
