// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Session owns a Transport exclusively and sequences the protocol's
// handshakes and commands over it. Only one command may be in flight at
// a time: the device never answers commands synchronously, measurements
// are polled separately and are not correlated to any command.
type Session struct {
	transport Transport
	log       logrus.FieldLogger
	opts      Options

	// Stats, when set, accumulates counters for every read through this
	// session.
	Stats *Stats
}

// NewSession wraps a transport. The logger is required; there is no
// package-level fallback.
func NewSession(transport Transport, log logrus.FieldLogger, opts Options) *Session {
	return &Session{
		transport: transport,
		log:       log,
		opts:      opts,
	}
}

// Options returns the session's timing options.
func (s *Session) Options() Options { return s.opts }

// Connect opens the transport and performs the connect handshake. The
// device needs settle time both after the port opens and after the
// handshake command.
func (s *Session) Connect() error {
	s.log.Debug("opening transport")
	if err := s.transport.Open(); err != nil {
		s.log.WithError(err).Error("connection failed")
		return &ConnectionError{Err: err}
	}
	time.Sleep(s.opts.ConnectSettle)

	if err := s.SendCommand(ModeSystem, CmdConnect, nil); err != nil {
		return err
	}
	time.Sleep(s.opts.ConnectSettle)

	s.log.Info("connected to device")
	return nil
}

// Disconnect sends the disconnect command and closes the transport.
// Calling it on an already-closed session is a no-op.
func (s *Session) Disconnect() error {
	if !s.transport.IsOpen() {
		return nil
	}
	s.log.Debug("disconnecting from device")
	sendErr := s.SendCommand(ModeSystem, CmdDisconnect, nil)
	closeErr := s.transport.Close()
	if sendErr != nil {
		return sendErr
	}
	if closeErr != nil {
		return closeErr
	}
	s.log.Info("device disconnected")
	return nil
}

// SendStop stops any ongoing operation. It doubles as the safety reset
// issued before operations and as cleanup on the way out.
func (s *Session) SendStop() error {
	s.log.Debug("sending stop command")
	return s.SendCommand(ModeSystem, CmdStop, nil)
}

// SendCommand builds and writes one command frame, then waits the write
// settle delay the firmware needs before it accepts the next frame.
func (s *Session) SendCommand(mode Mode, cmd Command, data []byte) error {
	if !s.transport.IsOpen() {
		s.log.Error("cannot send command: device is not connected")
		return ErrNotConnected
	}

	frame, err := BuildCommand(mode, cmd, data)
	if err != nil {
		return err
	}

	s.log.WithField("frame", hex.EncodeToString(frame)).Debugf("sending command 0x%02X", frame[1])
	if _, err := s.transport.Write(frame); err != nil {
		s.log.WithError(err).Error("failed to send command")
		return &CommunicationError{Op: "write", Err: err}
	}
	time.Sleep(s.opts.WriteSettle)
	return nil
}

// SendCommand16 encodes three quantities and sends them as the six-byte
// payload of one command.
func (s *Session) SendCommand16(mode Mode, cmd Command, arg1, arg2, arg3 int) error {
	data := make([]byte, 0, 6)
	for _, arg := range []int{arg1, arg2, arg3} {
		enc, err := EncodeValue(arg)
		if err != nil {
			return err
		}
		data = append(data, enc...)
	}
	return s.SendCommand(mode, cmd, data)
}

// ReadMeasurement performs one blocking read of a response frame.
//
// Timeouts, short reads and bad framing all return (nil, nil): "no data"
// is the normal outcome when polling faster than the device reports. A
// checksum mismatch is logged as a warning but the measurement is still
// returned. Only transport failures surface as errors.
func (s *Session) ReadMeasurement() (*Measurement, error) {
	buf := make([]byte, ResponseLength)
	n, err := s.transport.Read(buf)
	if err != nil {
		return nil, &CommunicationError{Op: "read", Err: err}
	}
	if n == 0 {
		if s.Stats != nil {
			s.Stats.RecordNoData()
		}
		return nil, nil
	}
	s.log.WithField("data", hex.EncodeToString(buf[:n])).Debug("received data")

	m, err := ParseResponse(buf[:n])
	if err != nil {
		s.log.WithError(err).Warn("discarding invalid response")
		if s.Stats != nil {
			s.Stats.RecordNoData()
		}
		return nil, nil
	}
	if !m.ChecksumOK {
		s.log.WithField("frame", hex.EncodeToString(m.Raw)).Warn("response checksum mismatch")
	}
	if s.Stats != nil {
		s.Stats.Update(m)
	}
	return m, nil
}

// DiscardUnread drops any buffered unread bytes so the next poll does
// not start on a stale frame.
func (s *Session) DiscardUnread() {
	if !s.transport.IsOpen() {
		return
	}
	s.log.Debug("discarding unread data")
	if err := s.transport.ResetInputBuffer(); err != nil {
		s.log.WithError(err).Debug("failed to reset input buffer")
	}
}

// StartChargePreset starts a charge using the device's built-in profile
// for the given chemistry.
func (s *Session) StartChargePreset(chemistry Mode, current float64, cells int, timeout time.Duration) error {
	return s.sendChargePreset(CmdStart, chemistry, current, cells, timeout)
}

// AdjustChargePreset changes the parameters of a running preset charge.
func (s *Session) AdjustChargePreset(chemistry Mode, current float64, cells int, timeout time.Duration) error {
	return s.sendChargePreset(CmdAdjust, chemistry, current, cells, timeout)
}

func (s *Session) sendChargePreset(cmd Command, chemistry Mode, current float64, cells int, timeout time.Duration) error {
	switch chemistry {
	case ModeChargeNiMH, ModeChargeNiCd, ModeChargeLiPo, ModeChargeLiFe, ModeChargePb:
	default:
		return fmt.Errorf("mode %s is not a preset charge chemistry", chemistry)
	}
	return s.SendCommand16(chemistry, cmd,
		int(current*currentMult),
		cells,
		int(timeout.Minutes()))
}

// StartChargeCCCV starts a constant-current/constant-voltage charge.
func (s *Session) StartChargeCCCV(voltage, current float64, timeout time.Duration) error {
	return s.sendChargeCCCV(CmdStart, voltage, current, timeout)
}

// AdjustChargeCCCV changes the parameters of a running CC-CV charge.
func (s *Session) AdjustChargeCCCV(voltage, current float64, timeout time.Duration) error {
	return s.sendChargeCCCV(CmdAdjust, voltage, current, timeout)
}

func (s *Session) sendChargeCCCV(cmd Command, voltage, current float64, timeout time.Duration) error {
	return s.SendCommand16(ModeChargeCCCV, cmd,
		int(current*currentMult),
		int(voltage*voltageMult),
		int(timeout.Minutes()))
}

// StartDischargeCC starts a constant-current discharge down to the
// cutoff voltage.
func (s *Session) StartDischargeCC(current, cutoffVoltage float64, timeout time.Duration) error {
	return s.sendDischargeCC(CmdStart, current, cutoffVoltage, timeout)
}

// AdjustDischargeCC changes the parameters of a running CC discharge.
func (s *Session) AdjustDischargeCC(current, cutoffVoltage float64, timeout time.Duration) error {
	return s.sendDischargeCC(CmdAdjust, current, cutoffVoltage, timeout)
}

func (s *Session) sendDischargeCC(cmd Command, current, cutoffVoltage float64, timeout time.Duration) error {
	return s.SendCommand16(ModeDischargeCC, cmd,
		int(current*currentMult),
		int(cutoffVoltage*voltageMult),
		int(timeout.Minutes()))
}

// StartDischargeCP starts a constant-power discharge down to the cutoff
// voltage.
func (s *Session) StartDischargeCP(power, cutoffVoltage float64, timeout time.Duration) error {
	return s.sendDischargeCP(CmdStart, power, cutoffVoltage, timeout)
}

// AdjustDischargeCP changes the parameters of a running CP discharge.
func (s *Session) AdjustDischargeCP(power, cutoffVoltage float64, timeout time.Duration) error {
	return s.sendDischargeCP(CmdAdjust, power, cutoffVoltage, timeout)
}

func (s *Session) sendDischargeCP(cmd Command, power, cutoffVoltage float64, timeout time.Duration) error {
	return s.SendCommand16(ModeDischargeCP, cmd,
		int(power*powerMult),
		int(cutoffVoltage*voltageMult),
		int(timeout.Minutes()))
}
