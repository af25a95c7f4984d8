// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sink consumes decoded measurements, one per call, synchronously from
// the polling loop.
type Sink interface {
	Write(m *Measurement) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(m *Measurement) error

func (f SinkFunc) Write(m *Measurement) error { return f(m) }

// sleepCtx pauses for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Controller drives a single command to completion: it issues the start
// command and polls measurements until the device has reported a
// terminal state often enough.
type Controller struct {
	session *Session
	log     logrus.FieldLogger
	opts    Options
}

// NewController wraps a connected session.
func NewController(session *Session, log logrus.FieldLogger, opts Options) *Controller {
	return &Controller{
		session: session,
		log:     log,
		opts:    opts,
	}
}

// WaitComplete polls measurements, forwarding each to the sink, until
// the device has reported a terminal state opts.TerminalReads times.
//
// The terminal counter is deliberately never reset by a WORKING read in
// between: the device occasionally blips back to WORKING right after
// finishing, and requiring strictly consecutive terminal reads would
// stall on that. The loop has no wall-clock bound of its own; the only
// timeout is the one sent to the device in the command payload.
func (c *Controller) WaitComplete(ctx context.Context, sink Sink) error {
	c.session.DiscardUnread()
	terminal := 0
	for terminal < c.opts.TerminalReads {
		if err := sleepCtx(ctx, c.opts.PollInterval); err != nil {
			return err
		}
		m, err := c.session.ReadMeasurement()
		if err != nil {
			return err
		}
		if m == nil {
			continue
		}
		c.log.Debugf("got measurement: %s", m)
		if sink != nil {
			if err := sink.Write(m); err != nil {
				return err
			}
		}
		if m.State.Terminal() {
			terminal++
		}
	}
	c.log.Info("operation completed")
	return nil
}

// start issues the start command and gives the firmware time to switch
// over before polling begins.
func (c *Controller) start(ctx context.Context, issue func() error) error {
	if err := issue(); err != nil {
		return err
	}
	if err := sleepCtx(ctx, c.opts.StartSettle); err != nil {
		return err
	}
	c.session.DiscardUnread()
	return nil
}

// ChargeCCCV runs a CC-CV charge to completion.
func (c *Controller) ChargeCCCV(ctx context.Context, voltage, current float64, timeout time.Duration, sink Sink) error {
	c.log.Infof("starting CC-CV charge: %.3fA up to %.3fV", current, voltage)
	err := c.start(ctx, func() error {
		return c.session.StartChargeCCCV(voltage, current, timeout)
	})
	if err != nil {
		return err
	}
	return c.WaitComplete(ctx, sink)
}

// ChargePreset runs a chemistry-preset charge to completion.
func (c *Controller) ChargePreset(ctx context.Context, chemistry Mode, current float64, cells int, timeout time.Duration, sink Sink) error {
	c.log.Infof("starting %s charge: %.3fA, %d cells", chemistry, current, cells)
	err := c.start(ctx, func() error {
		return c.session.StartChargePreset(chemistry, current, cells, timeout)
	})
	if err != nil {
		return err
	}
	return c.WaitComplete(ctx, sink)
}

// DischargeCC runs a constant-current discharge to completion.
func (c *Controller) DischargeCC(ctx context.Context, current, cutoffVoltage float64, timeout time.Duration, sink Sink) error {
	c.log.Infof("starting CC discharge: %.3fA down to %.3fV", current, cutoffVoltage)
	err := c.start(ctx, func() error {
		return c.session.StartDischargeCC(current, cutoffVoltage, timeout)
	})
	if err != nil {
		return err
	}
	return c.WaitComplete(ctx, sink)
}

// DischargeCP runs a constant-power discharge to completion.
func (c *Controller) DischargeCP(ctx context.Context, power, cutoffVoltage float64, timeout time.Duration, sink Sink) error {
	c.log.Infof("starting CP discharge: %.3fW down to %.3fV", power, cutoffVoltage)
	err := c.start(ctx, func() error {
		return c.session.StartDischargeCP(power, cutoffVoltage, timeout)
	})
	if err != nil {
		return err
	}
	return c.WaitComplete(ctx, sink)
}

// Monitor polls and forwards measurements until the context is
// cancelled or the transport runs dry (replay).
func (c *Controller) Monitor(ctx context.Context, sink Sink) error {
	for {
		if err := sleepCtx(ctx, c.opts.PollInterval); err != nil {
			return err
		}
		m, err := c.session.ReadMeasurement()
		if err != nil {
			return err
		}
		if m == nil {
			continue
		}
		if sink != nil {
			if err := sink.Write(m); err != nil {
				return err
			}
		}
	}
}
