// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

// Package ebc implements the serial protocol of ZKE EBC-Axx electronic
// loads and battery testers.
//
// The package provides the frame codec (10-byte commands, 19-byte
// responses, XOR checksums, the offset value encoding that keeps data
// bytes out of the reserved 0xF0-0xFF range), a device session on top of
// an abstract byte transport, and the control loops used to run charge
// and discharge operations to completion.
package ebc

import (
	"fmt"
	"strings"
	"time"
)

// Protocol framing bytes
const (
	InitByte = 0xFA
	EndByte  = 0xF8
)

// Frame lengths
const (
	CommandLength  = 10 // INIT + command byte + 6 data bytes + checksum + END
	ResponseLength = 19
)

// MaxValue is the largest quantity representable by the wire encoding.
const MaxValue = 57599

// Unit multipliers: the device expects currents in mA, voltages in 10 mV
// and powers in 10 mW.
const (
	currentMult = 1000
	voltageMult = 100
	powerMult   = 100
)

// Mode is the high nibble of the command byte. On responses the same
// values appear as regime mod 10.
type Mode byte

// Mode nibbles. The system mode shares the value of constant-current
// discharge; which one applies follows from the command nibble.
const (
	ModeSystem      Mode = 0x0
	ModeDischargeCC Mode = 0x0
	ModeDischargeCP Mode = 0x1
	ModeChargeNiMH  Mode = 0x2
	ModeChargeNiCd  Mode = 0x3
	ModeChargeLiPo  Mode = 0x4
	ModeChargeLiFe  Mode = 0x5
	ModeChargePb    Mode = 0x6
	ModeChargeCCCV  Mode = 0x7
)

func (m Mode) String() string {
	switch m {
	case ModeDischargeCC:
		return "D_CC"
	case ModeDischargeCP:
		return "D_CP"
	case ModeChargeNiMH:
		return "C_NIMH"
	case ModeChargeNiCd:
		return "C_NICD"
	case ModeChargeLiPo:
		return "C_LIPO"
	case ModeChargeLiFe:
		return "C_LIFE"
	case ModeChargePb:
		return "C_PB"
	case ModeChargeCCCV:
		return "C_CCCV"
	}
	return fmt.Sprintf("UNKNOWN_%d", byte(m))
}

// ChemistryFromName maps a battery chemistry name to its charge mode.
func ChemistryFromName(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "nimh":
		return ModeChargeNiMH, nil
	case "nicd":
		return ModeChargeNiCd, nil
	case "lipo":
		return ModeChargeLiPo, nil
	case "life":
		return ModeChargeLiFe, nil
	case "pb":
		return ModeChargePb, nil
	}
	return 0, fmt.Errorf("unknown battery chemistry %q", name)
}

// Command is the low nibble of the command byte.
type Command byte

// Command nibbles.
const (
	CmdStart      Command = 0x1
	CmdStop       Command = 0x2
	CmdConnect    Command = 0x5
	CmdDisconnect Command = 0x6
	CmdAdjust     Command = 0x7
	CmdContinue   Command = 0x8
)

// State is the device lifecycle state, regime div 10 on responses.
type State byte

// Lifecycle states.
const (
	StateIdle      State = 0
	StateWorking   State = 1
	StateCompleted State = 2
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateWorking:
		return "WORKING"
	case StateCompleted:
		return "COMPLETED"
	}
	return fmt.Sprintf("UNKNOWN_%d", byte(s))
}

// Terminal reports whether the device has stopped actively charging or
// discharging.
func (s State) Terminal() bool {
	return s == StateIdle || s == StateCompleted
}

// Options carries the timing and ramp tuning of a session. All control
// loop behavior is driven by these named values so that it can be tuned
// without touching the control logic.
type Options struct {
	// ConnectSettle is slept after opening the port and again after the
	// connect handshake command.
	ConnectSettle time.Duration
	// WriteSettle is slept after every command write; the device firmware
	// needs slack time to process a frame.
	WriteSettle time.Duration
	// StartSettle is slept after a start or adjust command before polling
	// resumes.
	StartSettle time.Duration
	// PollInterval is the pause between measurement reads.
	PollInterval time.Duration
	// TerminalReads is the number of terminal-state measurements required
	// before an operation is considered complete.
	TerminalReads int

	// RampSeedCurrent is the current a ramp-to-voltage procedure starts at.
	RampSeedCurrent float64
	// RampDecay multiplies the current on every terminal observation.
	RampDecay float64
	// RampFloorCurrent ends the ramp once the decayed current drops below it.
	RampFloorCurrent float64
}

// DefaultOptions returns the stock device timings.
func DefaultOptions() Options {
	return Options{
		ConnectSettle:    500 * time.Millisecond,
		WriteSettle:      100 * time.Millisecond,
		StartSettle:      2500 * time.Millisecond,
		PollInterval:     time.Second,
		TerminalReads:    4,
		RampSeedCurrent:  5.0,
		RampDecay:        0.8,
		RampFloorCurrent: 0.05,
	}
}
