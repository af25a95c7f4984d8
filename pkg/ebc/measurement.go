// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Measurement is one decoded response frame. It is a value; nothing in
// this package keeps measurements beyond the moment they are read.
type Measurement struct {
	Time   time.Time
	Regime byte
	Mode   Mode
	State  State

	CurrentA     float64 // measured current, A
	VoltageV     float64 // measured voltage, V
	StoredCharge int     // raw device units
	SettingA     float64 // commanded current, A
	CutoffV      float64 // cutoff voltage, V
	MaxTime      int     // raw device units

	Ident      byte
	Unknown    [2]byte // bytes 8-9, always 0000 so far
	ChecksumOK bool
	Raw        []byte
}

// Field is one named measurement column.
type Field struct {
	Name  string
	Value string
}

// Fields returns the measurement as ordered name/value pairs, in the
// column order sinks are expected to emit.
func (m *Measurement) Fields() []Field {
	return []Field{
		{"regime", fmt.Sprintf("%02x", m.Regime)},
		{"mode", m.Mode.String()},
		{"state", m.State.String()},
		{"i_measured", strconv.FormatFloat(m.CurrentA, 'f', 3, 64)},
		{"u_measured", strconv.FormatFloat(m.VoltageV, 'f', 3, 64)},
		{"stored_charge", strconv.Itoa(m.StoredCharge)},
		{"i_setting", strconv.FormatFloat(m.SettingA, 'f', 3, 64)},
		{"u_cutoff", strconv.FormatFloat(m.CutoffV, 'f', 2, 64)},
		{"max_time", strconv.Itoa(m.MaxTime)},
		{"ident", fmt.Sprintf("%02x", m.Ident)},
		{"unk1", hex.EncodeToString(m.Unknown[:])},
		{"raw_data", hex.EncodeToString(m.Raw)},
	}
}

// String renders a compact one-line summary, used by log output and the
// probe command.
func (m *Measurement) String() string {
	return fmt.Sprintf("%s/%s i=%.3fA u=%.3fV charge=%d set=%.3fA cutoff=%.2fV",
		m.Mode, m.State, m.CurrentA, m.VoltageV, m.StoredCharge, m.SettingA, m.CutoffV)
}
