// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"fmt"
	"time"
)

// checksum XORs the given bytes. Commands checksum the command byte plus
// the six data bytes; responses checksum everything between INIT and the
// checksum byte itself.
func checksum(data []byte) byte {
	var x byte
	for _, b := range data {
		x ^= b
	}
	return x
}

// BuildCommand builds a 10-byte command frame. Data shorter than six
// bytes is zero-padded on the right, longer data is truncated. The
// checksum and end byte are always appended here; callers cannot
// override them.
func BuildCommand(mode Mode, cmd Command, data []byte) ([]byte, error) {
	if mode > 0xF || cmd > 0xF {
		return nil, fmt.Errorf("%w: mode=%d command=%d", ErrNibbleRange, mode, cmd)
	}

	frame := make([]byte, CommandLength)
	frame[0] = InitByte
	frame[1] = byte(mode)<<4 | byte(cmd)
	copy(frame[2:8], data)
	frame[8] = checksum(frame[1:8])
	frame[9] = EndByte
	return frame, nil
}

// ParseResponse parses a 19-byte response frame into a Measurement.
//
// Frames of the wrong length or with bad INIT/END sentinels are rejected
// with an error; the session demotes those to "no data". A checksum
// mismatch does NOT reject the frame: the device is observed to emit the
// occasional frame with checksum noise, so the measurement is returned
// with ChecksumOK set to false and the caller decides how loudly to
// complain.
func ParseResponse(frame []byte) (*Measurement, error) {
	if len(frame) != ResponseLength {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrShortFrame, ResponseLength, len(frame))
	}
	if frame[0] != InitByte || frame[18] != EndByte {
		return nil, fmt.Errorf("%w: %02x...%02x", ErrBadFrame, frame[0], frame[18])
	}

	regime := frame[1]
	m := &Measurement{
		Time:         time.Now(),
		Regime:       regime,
		Mode:         Mode(regime % 10),
		State:        State(regime / 10),
		CurrentA:     float64(decodeWord(frame[2], frame[3])) / 1000.0,
		VoltageV:     float64(decodeWord(frame[4], frame[5])) / 1000.0,
		StoredCharge: decodeWord(frame[6], frame[7]),
		SettingA:     float64(decodeWord(frame[10], frame[11])) / 1000.0,
		CutoffV:      float64(decodeWord(frame[12], frame[13])) / 100.0,
		MaxTime:      decodeWord(frame[14], frame[15]),
		Ident:        frame[16],
		Unknown:      [2]byte{frame[8], frame[9]},
		ChecksumOK:   frame[17] == checksum(frame[1:17]),
		Raw:          append([]byte(nil), frame...),
	}
	return m, nil
}
