// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeValue_KnownVectors(t *testing.T) {
	tests := []struct {
		name  string
		value int
		want  []byte
	}{
		{"zero", 0, []byte{0x00, 0x00}},
		{"last of first group", 239, []byte{0x00, 0xEF}},
		{"first of second group", 240, []byte{0x01, 0x00}},
		{"last of second group", 479, []byte{0x01, 0xEF}},
		{"first of third group", 480, []byte{0x02, 0x00}},
		{"max", 57599, []byte{0xEF, 0xEF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeValue(tt.value)
			if err != nil {
				t.Fatalf("EncodeValue(%d) failed: %v", tt.value, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeValue(%d) = %02X %02X, want %02X %02X",
					tt.value, got[0], got[1], tt.want[0], tt.want[1])
			}
		})
	}
}

func TestEncodeValue_OutOfRange(t *testing.T) {
	for _, v := range []int{-1, MaxValue + 1, 100000} {
		if _, err := EncodeValue(v); !errors.Is(err, ErrValueRange) {
			t.Errorf("EncodeValue(%d): expected ErrValueRange, got %v", v, err)
		}
	}
}

func TestDecodeValue_InvalidLength(t *testing.T) {
	for _, b := range [][]byte{nil, {}, {0x01}, {0x01, 0x02, 0x03}} {
		if _, err := DecodeValue(b); !errors.Is(err, ErrValueLength) {
			t.Errorf("DecodeValue(% X): expected ErrValueLength, got %v", b, err)
		}
	}
}

func TestDecodeValue_AcceptsArbitraryBytes(t *testing.T) {
	// Corrupted bytes decode to some integer; that is protocol behavior,
	// not an error.
	v, err := DecodeValue([]byte{0xFF, 0xFF})
	if err != nil {
		t.Fatalf("DecodeValue failed: %v", err)
	}
	if v != 0xFFFF-0xFF*16 {
		t.Errorf("DecodeValue(FF FF) = %d, want %d", v, 0xFFFF-0xFF*16)
	}
}

func TestValueCodec_RoundTripFullDomain(t *testing.T) {
	for v := 0; v <= MaxValue; v++ {
		enc, err := EncodeValue(v)
		if err != nil {
			t.Fatalf("EncodeValue(%d) failed: %v", v, err)
		}
		dec, err := DecodeValue(enc)
		if err != nil {
			t.Fatalf("DecodeValue(% X) failed: %v", enc, err)
		}
		if dec != v {
			t.Fatalf("round trip mismatch: %d -> % X -> %d", v, enc, dec)
		}
	}
}

func TestEncodeValue_AvoidsReservedRange(t *testing.T) {
	for v := 0; v <= MaxValue; v++ {
		enc, err := EncodeValue(v)
		if err != nil {
			t.Fatalf("EncodeValue(%d) failed: %v", v, err)
		}
		for _, b := range enc {
			if b >= 0xF0 {
				t.Fatalf("EncodeValue(%d) produced reserved byte 0x%02X", v, b)
			}
		}
	}
}
