// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import "fmt"

// valueGroup is the width of one encoding group. Every full group of 240
// shifts the encoded value up by 16, which is exactly what keeps the low
// byte out of 0xF0-0xFF.
const valueGroup = 240

// EncodeValue encodes a quantity into the protocol's two-byte big-endian
// representation. Values 0-239 pass through unchanged; every further
// group of 240 adds an offset of 16. The resulting bytes never fall in
// the reserved framing range 0xF0-0xFF.
func EncodeValue(v int) ([]byte, error) {
	if v < 0 || v > MaxValue {
		return nil, fmt.Errorf("%w: %d", ErrValueRange, v)
	}

	encoded := v
	if group := v / valueGroup; group > 0 {
		encoded = v + group*16
	}

	return []byte{byte(encoded >> 8), byte(encoded)}, nil
}

// DecodeValue reverses EncodeValue. Any two bytes decode to some integer;
// corrupted input yields a wrong value rather than an error, which is
// accepted protocol behavior.
func DecodeValue(b []byte) (int, error) {
	if len(b) != 2 {
		return 0, fmt.Errorf("%w: got %d bytes", ErrValueLength, len(b))
	}
	return decodeWord(b[0], b[1]), nil
}

func decodeWord(msb, lsb byte) int {
	return (int(msb)<<8 | int(lsb)) - int(msb)*16
}
