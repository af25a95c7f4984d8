// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// captureRecord is one read chunk with its wall-clock timestamp. Records
// are appended to the capture file as a plain CBOR stream.
type captureRecord struct {
	TimeMs int64  `cbor:"0,keyasint"`
	Data   []byte `cbor:"1,keyasint"`
}

// CaptureTransport tees everything read from an inner transport into a
// CBOR capture file, for offline replay and protocol archaeology.
type CaptureTransport struct {
	Transport

	file *os.File
	enc  *cbor.Encoder
}

// NewCaptureTransport wraps inner, appending read chunks to the capture
// file at path.
func NewCaptureTransport(inner Transport, path string) (*CaptureTransport, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	return &CaptureTransport{
		Transport: inner,
		file:      file,
		enc:       cbor.NewEncoder(file),
	}, nil
}

func (c *CaptureTransport) Read(p []byte) (int, error) {
	n, err := c.Transport.Read(p)
	if n > 0 {
		rec := captureRecord{
			TimeMs: time.Now().UnixMilli(),
			Data:   append([]byte(nil), p[:n]...),
		}
		if encErr := c.enc.Encode(rec); encErr != nil {
			return n, fmt.Errorf("failed to write capture record: %w", encErr)
		}
	}
	return n, err
}

func (c *CaptureTransport) Close() error {
	err := c.Transport.Close()
	if c.file != nil {
		if closeErr := c.file.Close(); err == nil {
			err = closeErr
		}
		c.file = nil
	}
	return err
}

// ReplayTransport plays a capture file back read-by-read. Writes are
// accepted and discarded so a full session, handshake included, can run
// against it. Once the capture is exhausted reads return io.EOF.
type ReplayTransport struct {
	Path string

	file *os.File
	dec  *cbor.Decoder
	buf  []byte
	off  int
	done bool
}

// NewReplayTransport returns an unopened replay transport for the given
// capture file.
func NewReplayTransport(path string) *ReplayTransport {
	return &ReplayTransport{Path: path}
}

func (r *ReplayTransport) Open() error {
	file, err := os.Open(r.Path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	r.file = file
	r.dec = cbor.NewDecoder(file)
	return nil
}

func (r *ReplayTransport) IsOpen() bool {
	return r.file != nil
}

// Read replays one captured chunk per call, preserving the original
// read boundaries rather than concatenating the whole capture.
func (r *ReplayTransport) Read(p []byte) (int, error) {
	if r.file == nil {
		return 0, ErrNotConnected
	}

	if r.off >= len(r.buf) {
		if r.done {
			return 0, io.EOF
		}
		var rec captureRecord
		if err := r.dec.Decode(&rec); err != nil {
			r.done = true
			if errors.Is(err, io.EOF) {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("corrupt capture record: %w", err)
		}
		r.buf = rec.Data
		r.off = 0
	}

	n := copy(p, r.buf[r.off:])
	r.off += n
	return n, nil
}

func (r *ReplayTransport) Write(p []byte) (int, error) {
	if r.file == nil {
		return 0, ErrNotConnected
	}
	return len(p), nil
}

func (r *ReplayTransport) ResetInputBuffer() error {
	// Replay keeps its position; discarding here would silently skip
	// captured frames after every command.
	return nil
}

func (r *ReplayTransport) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
