// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// ============================================================
// Value Codec Fuzz Tests
// ============================================================

// TestFuzzValueCodec_RandomRoundTrip encodes random in-range values and
// verifies the decode inverts the encode exactly.
func TestFuzzValueCodec_RandomRoundTrip(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		v := rng.Intn(MaxValue + 1)
		enc, err := EncodeValue(v)
		if err != nil {
			t.Fatalf("Round %d: EncodeValue(%d) failed: %v", i, v, err)
		}
		for _, b := range enc {
			if b >= 0xF0 {
				t.Fatalf("Round %d: EncodeValue(%d) produced reserved byte 0x%02X", i, v, b)
			}
		}
		dec, err := DecodeValue(enc)
		if err != nil {
			t.Fatalf("Round %d: DecodeValue(% X) failed: %v", i, enc, err)
		}
		if dec != v {
			t.Fatalf("Round %d: round trip mismatch: %d -> % X -> %d", i, v, enc, dec)
		}
	}
}

// TestFuzzDecodeValue_RandomBytes feeds random byte pairs to the decoder
// and verifies it neither panics nor errors; arbitrary pairs decode to
// some integer by construction.
func TestFuzzDecodeValue_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		pair := []byte{byte(rng.Intn(256)), byte(rng.Intn(256))}
		if _, err := DecodeValue(pair); err != nil {
			t.Errorf("Round %d: DecodeValue(% X) failed: %v", i, pair, err)
		}
	}
}

// ============================================================
// Frame Fuzz Tests
// ============================================================

// TestFuzzBuildCommand_RandomPayloads builds commands with random
// nibbles and payloads and checks framing and checksum invariants.
func TestFuzzBuildCommand_RandomPayloads(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		mode := Mode(rng.Intn(16))
		cmd := Command(rng.Intn(16))
		data := make([]byte, rng.Intn(7))
		rng.Read(data)

		frame, err := BuildCommand(mode, cmd, data)
		if err != nil {
			t.Fatalf("Round %d: BuildCommand failed: %v", i, err)
		}
		if len(frame) != CommandLength {
			t.Fatalf("Round %d: frame length = %d", i, len(frame))
		}
		if frame[0] != InitByte || frame[9] != EndByte {
			t.Errorf("Round %d: bad framing: % X", i, frame)
		}
		if frame[1] != byte(mode)<<4|byte(cmd) {
			t.Errorf("Round %d: command byte = 0x%02X", i, frame[1])
		}
		if frame[8] != checksum(frame[1:8]) {
			t.Errorf("Round %d: checksum mismatch: % X", i, frame)
		}
	}
}

// TestFuzzParseResponse_RandomBytes feeds random 19-byte buffers to the
// parser and verifies it doesn't panic; buffers that happen to carry the
// framing bytes must parse.
func TestFuzzParseResponse_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		frame := make([]byte, ResponseLength)
		rng.Read(frame)

		m, err := ParseResponse(frame)
		if frame[0] == InitByte && frame[18] == EndByte {
			if err != nil {
				t.Errorf("Round %d: framed response rejected: %v", i, err)
			}
		} else if err == nil {
			t.Errorf("Round %d: unframed response accepted: % X", i, frame)
		}
		if m != nil {
			// Every decoded field must render without panicking.
			_ = m.String()
			_ = m.Fields()
		}
	}
}

// TestFuzzParseResponse_RandomLengths verifies the parser rejects every
// length but the correct one.
func TestFuzzParseResponse_RandomLengths(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		length := rng.Intn(64)
		if length == ResponseLength {
			continue
		}
		frame := make([]byte, length)
		rng.Read(frame)
		if _, err := ParseResponse(frame); err == nil {
			t.Errorf("Round %d: accepted %d-byte response", i, length)
		}
	}
}

// TestFuzzParseResponse_CorruptedFrames corrupts one interior byte of a
// valid frame; the parser must still return a measurement, at worst with
// ChecksumOK cleared.
func TestFuzzParseResponse_CorruptedFrames(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		frame := buildResponse(t, byte(rng.Intn(80)),
			rng.Intn(MaxValue+1), rng.Intn(MaxValue+1), rng.Intn(MaxValue+1),
			rng.Intn(MaxValue+1), rng.Intn(MaxValue+1), rng.Intn(MaxValue+1))

		// Corrupt one byte between the framing bytes.
		idx := rng.Intn(17) + 1
		frame[idx] ^= byte(rng.Intn(255) + 1)

		m, err := ParseResponse(frame)
		if err != nil {
			t.Errorf("Round %d: corrupted frame rejected: %v", i, err)
			continue
		}
		if m == nil {
			t.Errorf("Round %d: corrupted frame returned no measurement", i)
		}
	}
}

// ============================================================
// Session Fuzz Tests
// ============================================================

// TestFuzzReadMeasurement_RandomChunks streams random-length garbage
// through a session; ReadMeasurement must never error on garbage, only
// on transport failure.
func TestFuzzReadMeasurement_RandomChunks(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		chunk := make([]byte, rng.Intn(ResponseLength+1))
		rng.Read(chunk)

		ft := &fakeTransport{open: true, reads: [][]byte{chunk}}
		sess := NewSession(ft, newTestLogger(), testOptions())
		if _, err := sess.ReadMeasurement(); err != nil {
			t.Errorf("Round %d: ReadMeasurement errored on garbage: %v", i, err)
		}
	}
}
