// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package oistransport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
}

func TestWebSocketTransportRoundTrip(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	tr := NewWebSocketTransport(wsURL, "", "", false)
	if err := tr.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer tr.Disconnect()

	if !tr.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}

	if _, err := tr.Write([]byte("SYN=1\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, 64)
	var n int
	var err error
	for i := 0; i < 50 && n == 0; i++ {
		n, err = tr.Read(buf)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if string(buf[:n]) != "SYN=1\n" {
		t.Errorf("Read = %q, want %q", buf[:n], "SYN=1\n")
	}
}

func TestWebSocketTransportRejectsBadScheme(t *testing.T) {
	tr := NewWebSocketTransport("http://example.com", "", "", false)
	if err := tr.Connect(); err == nil {
		t.Error("Connect() with http:// scheme = nil error, want error")
	}
}
