// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// ============================================================
// Shared Test Helpers
// ============================================================

// fakeTransport is a scripted in-memory transport. Each Read consumes
// the next chunk from reads; an empty chunk models a read timeout. When
// loop is set the last chunk repeats forever.
type fakeTransport struct {
	open      bool
	failOpen  error
	failRead  error
	failWrite error

	reads  [][]byte
	loop   bool
	writes [][]byte
	resets int
}

func (f *fakeTransport) Open() error {
	if f.failOpen != nil {
		return f.failOpen
	}
	f.open = true
	return nil
}

func (f *fakeTransport) IsOpen() bool { return f.open }

func (f *fakeTransport) Read(p []byte) (int, error) {
	if f.failRead != nil {
		return 0, f.failRead
	}
	if len(f.reads) == 0 {
		return 0, nil
	}
	chunk := f.reads[0]
	if !f.loop || len(f.reads) > 1 {
		f.reads = f.reads[1:]
	}
	return copy(p, chunk), nil
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	if f.failWrite != nil {
		return 0, f.failWrite
	}
	f.writes = append(f.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (f *fakeTransport) ResetInputBuffer() error {
	f.resets++
	return nil
}

func (f *fakeTransport) Close() error {
	f.open = false
	return nil
}

// newTestLogger returns a logger that swallows its output.
func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// testOptions returns options with timings shrunk so control loops run
// in microseconds instead of device time.
func testOptions() Options {
	opts := DefaultOptions()
	opts.ConnectSettle = time.Microsecond
	opts.WriteSettle = time.Microsecond
	opts.StartSettle = time.Microsecond
	opts.PollInterval = time.Microsecond
	return opts
}

func mustEncode(t *testing.T, v int) []byte {
	t.Helper()
	b, err := EncodeValue(v)
	if err != nil {
		t.Fatalf("EncodeValue(%d) failed: %v", v, err)
	}
	return b
}

// buildResponse assembles a valid 19-byte response frame. Values are in
// raw device units (mA, mV, raw charge/time).
func buildResponse(t *testing.T, regime byte, iMeas, uMeas, charge, iSet, uCutoff, maxTime int) []byte {
	t.Helper()
	frame := make([]byte, 0, ResponseLength)
	frame = append(frame, InitByte, regime)
	frame = append(frame, mustEncode(t, iMeas)...)
	frame = append(frame, mustEncode(t, uMeas)...)
	frame = append(frame, mustEncode(t, charge)...)
	frame = append(frame, 0x00, 0x00) // unknown bytes
	frame = append(frame, mustEncode(t, iSet)...)
	frame = append(frame, mustEncode(t, uCutoff)...)
	frame = append(frame, mustEncode(t, maxTime)...)
	frame = append(frame, 0x05) // ident
	frame = append(frame, checksum(frame[1:]))
	frame = append(frame, EndByte)
	if len(frame) != ResponseLength {
		t.Fatalf("buildResponse produced %d bytes", len(frame))
	}
	return frame
}

// regimeByte packs a state and mode the way the device does.
func regimeByte(state State, mode Mode) byte {
	return byte(state)*10 + byte(mode)
}

// workingFrame and completedFrame are convenience frames for loop tests.
func workingFrame(t *testing.T) []byte {
	t.Helper()
	return buildResponse(t, regimeByte(StateWorking, ModeDischargeCC), 1000, 3700, 120, 1000, 300, 0)
}

func completedFrame(t *testing.T) []byte {
	t.Helper()
	return buildResponse(t, regimeByte(StateCompleted, ModeDischargeCC), 0, 3000, 450, 1000, 300, 0)
}
