// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"errors"
	"fmt"
)

// Sentinel errors for malformed codec input. These indicate caller bugs
// and fail fast; malformed device responses are not errors (see
// Session.ReadMeasurement).
var (
	ErrNotConnected = errors.New("device is not connected")
	ErrNibbleRange  = errors.New("mode and command must be in range 0..15")
	ErrValueRange   = errors.New("value out of encodable range 0..57599")
	ErrValueLength  = errors.New("encoded value must be exactly 2 bytes")
	ErrShortFrame   = errors.New("response frame has wrong length")
	ErrBadFrame     = errors.New("response frame has bad framing bytes")
)

// ConnectionError is a fatal failure to open the transport or complete
// the connect handshake. It is the only error the session surfaces as
// fatal at startup.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to device: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommunicationError is a transport failure mid-operation. The operation
// is aborted; there is no automatic retry of writes.
type CommunicationError struct {
	Op  string
	Err error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("communication error during %s: %v", e.Op, e.Err)
}

func (e *CommunicationError) Unwrap() error { return e.Err }
