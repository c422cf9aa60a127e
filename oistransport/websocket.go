// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package oistransport

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/openois/oishub/ois"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// WebSocketTransport carries OIS frames as binary WebSocket messages,
// buffering a partially-consumed message across Read calls.
type WebSocketTransport struct {
	url           string
	username      string
	password      string
	skipTLSVerify bool

	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

// NewWebSocketTransport configures (but does not dial) a WebSocket
// connection. username/password supply HTTP Basic auth on the handshake;
// leave both empty to connect unauthenticated.
func NewWebSocketTransport(wsURL, username, password string, skipTLSVerify bool) *WebSocketTransport {
	return &WebSocketTransport{url: wsURL, username: username, password: password, skipTLSVerify: skipTLSVerify}
}

func (w *WebSocketTransport) IsConnected() bool { return w.conn != nil && !w.closed }

func (w *WebSocketTransport) Connect() error {
	if w.conn != nil && !w.closed {
		return nil
	}
	u, err := url.Parse(w.url)
	if err != nil {
		return errors.Wrapf(err, "oistransport: invalid websocket url %q", w.url)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return errors.Errorf("oistransport: unsupported websocket scheme %q (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: w.skipTLSVerify}
	}

	headers := http.Header{}
	if w.username != "" && w.password != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(w.username + ":" + w.password))
		headers.Set("Authorization", "Basic "+creds)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	conn, resp, err := dialer.DialContext(ctx, w.url, headers)
	if err != nil {
		if resp != nil {
			return errors.Wrapf(err, "oistransport: websocket dial %q (HTTP %d)", w.url, resp.StatusCode)
		}
		return errors.Wrapf(err, "oistransport: websocket dial %q", w.url)
	}

	w.conn = conn
	w.closed = false
	w.buf = nil
	w.bufOffset = 0
	return nil
}

func (w *WebSocketTransport) Disconnect() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.closed = true
	if err != nil {
		return errors.Wrapf(err, "oistransport: close websocket %q", w.url)
	}
	return nil
}

var errWebSocketClosed = errors.New("oistransport: websocket connection closed")

// Read drains any buffered remainder of the last binary message before
// pulling the next one; non-binary messages (ping/pong/control frames the
// gorilla library doesn't already absorb) are skipped rather than surfaced.
func (w *WebSocketTransport) Read(p []byte) (int, error) {
	if w.closed || w.conn == nil {
		return 0, errWebSocketClosed
	}
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}
	if err := w.conn.SetReadDeadline(time.Now().Add(readPollTimeout)); err != nil {
		return 0, errors.Wrap(err, "oistransport: set websocket read deadline")
	}
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
				return 0, nil
			}
			w.closed = true
			return 0, errors.Wrap(err, "oistransport: websocket read")
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketTransport) Write(p []byte) (int, error) {
	if w.closed || w.conn == nil {
		return 0, errWebSocketClosed
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, errors.Wrap(err, "oistransport: websocket write")
	}
	return len(p), nil
}

func (w *WebSocketTransport) Name() string { return fmt.Sprintf("websocket:%s", w.url) }

var _ ois.Transport = (*WebSocketTransport)(nil)

// PromptPassword retrieves a WebSocket Basic-auth password from the
// OIS_WS_PASSWORD environment variable, falling back to an interactive,
// echo-free terminal prompt.
func PromptPassword() (string, error) {
	if pw := os.Getenv("OIS_WS_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		reader := bufio.NewReader(os.Stdin)
		password, rerr := reader.ReadString('\n')
		if rerr != nil {
			return "", errors.Wrap(rerr, "oistransport: read password")
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}
	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}
