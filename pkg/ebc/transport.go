// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Transport is a duplex byte channel to the device. Reads block until
// the buffer is filled or the configured timeout elapses; a timed-out
// read returns what arrived (possibly nothing) with a nil error.
type Transport interface {
	Open() error
	IsOpen() bool
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	ResetInputBuffer() error
	Close() error
}

// DefaultBaudRate is the device's stock serial speed.
const DefaultBaudRate = 9600

// DefaultReadTimeout bounds a single blocking read.
const DefaultReadTimeout = time.Second

// SerialTransport drives the device over a serial port with the fixed
// 8E1 framing the protocol requires. No hardware flow control.
type SerialTransport struct {
	PortName    string
	BaudRate    int
	ReadTimeout time.Duration

	port serial.Port
}

// NewSerialTransport returns an unopened serial transport. Zero baud or
// timeout fall back to the protocol defaults.
func NewSerialTransport(portName string, baudRate int, readTimeout time.Duration) *SerialTransport {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if readTimeout == 0 {
		readTimeout = DefaultReadTimeout
	}
	return &SerialTransport{
		PortName:    portName,
		BaudRate:    baudRate,
		ReadTimeout: readTimeout,
	}
}

func (t *SerialTransport) Open() error {
	mode := &serial.Mode{
		BaudRate: t.BaudRate,
		DataBits: 8,
		Parity:   serial.EvenParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(t.PortName, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", t.PortName, err)
	}
	if err := port.SetReadTimeout(t.ReadTimeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", t.PortName, err)
	}

	t.port = port
	return nil
}

func (t *SerialTransport) IsOpen() bool {
	return t.port != nil
}

// Read fills p until it is full or a read returns nothing within the
// timeout. The port delivers frames in arbitrary chunks, so a single
// port read is not enough for a whole response.
func (t *SerialTransport) Read(p []byte) (int, error) {
	if t.port == nil {
		return 0, ErrNotConnected
	}

	total := 0
	for total < len(p) {
		n, err := t.port.Read(p[total:])
		if err != nil {
			return total, err
		}
		if n == 0 {
			break // read timeout
		}
		total += n
	}
	return total, nil
}

func (t *SerialTransport) Write(p []byte) (int, error) {
	if t.port == nil {
		return 0, ErrNotConnected
	}
	return t.port.Write(p)
}

func (t *SerialTransport) ResetInputBuffer() error {
	if t.port == nil {
		return ErrNotConnected
	}
	return t.port.ResetInputBuffer()
}

// Close is idempotent.
func (t *SerialTransport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}
