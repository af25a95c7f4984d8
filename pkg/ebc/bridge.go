// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// ErrBridgeClosed is returned when reading from a closed bridge connection.
var ErrBridgeClosed = errors.New("websocket bridge connection closed")

// BridgeTransport talks to a remote serial bridge over WebSocket binary
// messages, so a device attached to another host can be driven as if it
// were local. Optional HTTP Basic auth; TLS verification can be skipped
// for self-signed bridges.
type BridgeTransport struct {
	URL           string
	Username      string
	Password      string
	SkipTLSVerify bool
	ReadTimeout   time.Duration

	conn     *websocket.Conn
	incoming chan []byte
	buf      []byte
	bufOff   int
}

// NewBridgeTransport returns an unopened bridge transport.
func NewBridgeTransport(wsURL, username, password string, skipTLSVerify bool, readTimeout time.Duration) *BridgeTransport {
	if readTimeout == 0 {
		readTimeout = DefaultReadTimeout
	}
	return &BridgeTransport{
		URL:           wsURL,
		Username:      username,
		Password:      password,
		SkipTLSVerify: skipTLSVerify,
		ReadTimeout:   readTimeout,
	}
}

func (b *BridgeTransport) Open() error {
	u, err := url.Parse(b.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: b.SkipTLSVerify,
		}
	}

	headers := http.Header{}
	if b.Username != "" && b.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(b.Username + ":" + b.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, b.URL, headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("bridge connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("bridge connection failed: %w", err)
	}

	b.conn = conn
	b.incoming = make(chan []byte, 16)
	go b.pump(conn, b.incoming)
	return nil
}

// pump moves binary messages from the socket into the incoming channel
// until the connection dies.
func (b *BridgeTransport) pump(conn *websocket.Conn, incoming chan<- []byte) {
	defer close(incoming)
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		incoming <- data
	}
}

func (b *BridgeTransport) IsOpen() bool {
	return b.conn != nil
}

// Read fills p from buffered message data, waiting up to the read
// timeout for more. A timeout returns what arrived so far with a nil
// error, matching the serial transport semantics.
func (b *BridgeTransport) Read(p []byte) (int, error) {
	if b.conn == nil {
		return 0, ErrNotConnected
	}

	total := 0
	timeout := time.After(b.ReadTimeout)
	for total < len(p) {
		if b.bufOff < len(b.buf) {
			n := copy(p[total:], b.buf[b.bufOff:])
			b.bufOff += n
			total += n
			continue
		}
		select {
		case data, ok := <-b.incoming:
			if !ok {
				if total > 0 {
					return total, nil
				}
				return 0, ErrBridgeClosed
			}
			b.buf = data
			b.bufOff = 0
		case <-timeout:
			return total, nil
		}
	}
	return total, nil
}

func (b *BridgeTransport) Write(p []byte) (int, error) {
	if b.conn == nil {
		return 0, ErrNotConnected
	}
	if err := b.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ResetInputBuffer drops buffered bytes and any messages already queued
// by the pump.
func (b *BridgeTransport) ResetInputBuffer() error {
	if b.conn == nil {
		return ErrNotConnected
	}
	b.buf = nil
	b.bufOff = 0
	for {
		select {
		case _, ok := <-b.incoming:
			if !ok {
				return nil
			}
		default:
			return nil
		}
	}
}

// Close is idempotent.
func (b *BridgeTransport) Close() error {
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}
