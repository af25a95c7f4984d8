// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"bytes"
	"errors"
	"testing"
)

func TestBuildCommand_ConnectVector(t *testing.T) {
	// The connect command with an all-zero payload has checksum 0x05.
	frame, err := BuildCommand(ModeSystem, CmdConnect, nil)
	if err != nil {
		t.Fatalf("BuildCommand failed: %v", err)
	}
	want := []byte{0xFA, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05, 0xF8}
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = % X, want % X", frame, want)
	}
}

func TestBuildCommand_Checksum(t *testing.T) {
	frame, err := BuildCommand(ModeChargeCCCV, CmdStart, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	if err != nil {
		t.Fatalf("BuildCommand failed: %v", err)
	}
	want := byte(0x71) ^ 0x01 ^ 0x02 ^ 0x03 ^ 0x04 ^ 0x05 ^ 0x06
	if frame[8] != want {
		t.Errorf("checksum = 0x%02X, want 0x%02X", frame[8], want)
	}
	if frame[1] != 0x71 {
		t.Errorf("command byte = 0x%02X, want 0x71", frame[1])
	}
}

func TestBuildCommand_DataPadding(t *testing.T) {
	frame, err := BuildCommand(ModeSystem, CmdStop, []byte{0xAA})
	if err != nil {
		t.Fatalf("BuildCommand failed: %v", err)
	}
	if !bytes.Equal(frame[2:8], []byte{0xAA, 0x00, 0x00, 0x00, 0x00, 0x00}) {
		t.Errorf("short data not zero-padded: % X", frame[2:8])
	}
}

func TestBuildCommand_DataTruncation(t *testing.T) {
	frame, err := BuildCommand(ModeSystem, CmdStop, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	if err != nil {
		t.Fatalf("BuildCommand failed: %v", err)
	}
	if len(frame) != CommandLength {
		t.Fatalf("frame length = %d, want %d", len(frame), CommandLength)
	}
	if !bytes.Equal(frame[2:8], []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("long data not truncated: % X", frame[2:8])
	}
}

func TestBuildCommand_InvalidNibble(t *testing.T) {
	if _, err := BuildCommand(Mode(16), CmdStart, nil); !errors.Is(err, ErrNibbleRange) {
		t.Errorf("mode 16: expected ErrNibbleRange, got %v", err)
	}
	if _, err := BuildCommand(ModeSystem, Command(16), nil); !errors.Is(err, ErrNibbleRange) {
		t.Errorf("command 16: expected ErrNibbleRange, got %v", err)
	}
}

func TestParseResponse_ValidFrame(t *testing.T) {
	frame := buildResponse(t, regimeByte(StateWorking, ModeChargeCCCV), 1500, 4100, 350, 2000, 420, 90)
	m, err := ParseResponse(frame)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}

	if m.Mode != ModeChargeCCCV {
		t.Errorf("mode = %s, want C_CCCV", m.Mode)
	}
	if m.State != StateWorking {
		t.Errorf("state = %s, want WORKING", m.State)
	}
	if m.CurrentA != 1.5 {
		t.Errorf("i_measured = %v, want 1.5", m.CurrentA)
	}
	if m.VoltageV != 4.1 {
		t.Errorf("u_measured = %v, want 4.1", m.VoltageV)
	}
	if m.StoredCharge != 350 {
		t.Errorf("stored_charge = %d, want 350", m.StoredCharge)
	}
	if m.SettingA != 2.0 {
		t.Errorf("i_setting = %v, want 2.0", m.SettingA)
	}
	if m.CutoffV != 4.2 {
		t.Errorf("u_cutoff = %v, want 4.2", m.CutoffV)
	}
	if m.MaxTime != 90 {
		t.Errorf("max_time = %d, want 90", m.MaxTime)
	}
	if m.Ident != 0x05 {
		t.Errorf("ident = 0x%02X, want 0x05", m.Ident)
	}
	if !m.ChecksumOK {
		t.Error("ChecksumOK = false for a valid frame")
	}
	if !bytes.Equal(m.Raw, frame) {
		t.Error("Raw does not preserve the original frame")
	}
}

func TestParseResponse_WrongLength(t *testing.T) {
	frame := buildResponse(t, 10, 0, 0, 0, 0, 0, 0)
	for _, in := range [][]byte{nil, {}, frame[:18], append(append([]byte{}, frame...), 0x00)} {
		if _, err := ParseResponse(in); !errors.Is(err, ErrShortFrame) {
			t.Errorf("length %d: expected ErrShortFrame, got %v", len(in), err)
		}
	}
}

func TestParseResponse_BadFraming(t *testing.T) {
	frame := buildResponse(t, 10, 0, 0, 0, 0, 0, 0)

	badInit := append([]byte(nil), frame...)
	badInit[0] = 0x00
	if _, err := ParseResponse(badInit); !errors.Is(err, ErrBadFrame) {
		t.Errorf("bad INIT: expected ErrBadFrame, got %v", err)
	}

	badEnd := append([]byte(nil), frame...)
	badEnd[18] = 0x00
	if _, err := ParseResponse(badEnd); !errors.Is(err, ErrBadFrame) {
		t.Errorf("bad END: expected ErrBadFrame, got %v", err)
	}
}

func TestParseResponse_ChecksumMismatchIsNotFatal(t *testing.T) {
	// The device occasionally produces checksum noise; such frames must
	// still parse, flagged but not rejected.
	frame := buildResponse(t, regimeByte(StateWorking, ModeDischargeCC), 1000, 3700, 0, 1000, 300, 0)
	frame[17] ^= 0xFF

	m, err := ParseResponse(frame)
	if err != nil {
		t.Fatalf("ParseResponse rejected a checksum mismatch: %v", err)
	}
	if m.ChecksumOK {
		t.Error("ChecksumOK = true for a corrupted checksum")
	}
	if m.CurrentA != 1.0 {
		t.Errorf("i_measured = %v, want 1.0", m.CurrentA)
	}
}

func TestMeasurement_FieldOrder(t *testing.T) {
	frame := buildResponse(t, regimeByte(StateIdle, ModeDischargeCC), 0, 3700, 0, 0, 0, 0)
	m, err := ParseResponse(frame)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}

	want := []string{
		"regime", "mode", "state", "i_measured", "u_measured", "stored_charge",
		"i_setting", "u_cutoff", "max_time", "ident", "unk1", "raw_data",
	}
	fields := m.Fields()
	if len(fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(fields), len(want))
	}
	for i, name := range want {
		if fields[i].Name != name {
			t.Errorf("field %d = %s, want %s", i, fields[i].Name, name)
		}
	}
	if fields[1].Value != "D_CC" {
		t.Errorf("mode field = %s, want D_CC", fields[1].Value)
	}
	if fields[2].Value != "IDLE" {
		t.Errorf("state field = %s, want IDLE", fields[2].Value)
	}
	if fields[4].Value != "3.700" {
		t.Errorf("u_measured field = %s, want 3.700", fields[4].Value)
	}
}

func TestRegimeDecoding_UnknownValues(t *testing.T) {
	// Regime 99 decodes to state 9, mode 9; both render as UNKNOWN.
	frame := buildResponse(t, 99, 0, 0, 0, 0, 0, 0)
	m, err := ParseResponse(frame)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if m.Mode.String() != "UNKNOWN_9" {
		t.Errorf("mode = %s, want UNKNOWN_9", m.Mode)
	}
	if m.State.String() != "UNKNOWN_9" {
		t.Errorf("state = %s, want UNKNOWN_9", m.State)
	}
	if m.State.Terminal() {
		t.Error("unknown state must not count as terminal")
	}
}
