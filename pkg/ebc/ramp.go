// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Ramp implements the adaptive ramp-to-voltage procedures: approach a
// target voltage by geometrically decaying the commanded current every
// time the device reports a terminal state, down to a floor.
type Ramp struct {
	session *Session
	log     logrus.FieldLogger
	opts    Options
}

// NewRamp wraps a connected session.
func NewRamp(session *Session, log logrus.FieldLogger, opts Options) *Ramp {
	return &Ramp{
		session: session,
		log:     log,
		opts:    opts,
	}
}

// DischargeToVoltage discharges down to the target voltage using CC
// mode, lowering the current step by step until it falls below the
// floor. If the battery is already below the target, it logs a warning
// and returns without issuing any command.
func (r *Ramp) DischargeToVoltage(ctx context.Context, targetVoltage float64, sink Sink) error {
	m, err := r.firstMeasurement(ctx)
	if err != nil {
		return err
	}
	if m.VoltageV < targetVoltage {
		r.log.Warnf("voltage %.3fV is already below target %.3fV", m.VoltageV, targetVoltage)
		return nil
	}

	current := r.opts.RampSeedCurrent
	r.log.Infof("starting discharge to %.3fV with initial current %.3fA", targetVoltage, current)
	if err := r.session.StartDischargeCC(current, targetVoltage, 0); err != nil {
		return err
	}
	return r.rampLoop(ctx, sink, current, func(c float64) error {
		r.log.Infof("adjusting discharge current to %.3fA", c)
		return r.session.AdjustDischargeCC(c, targetVoltage, 0)
	})
}

// ChargeToVoltage charges up to the target voltage using CC-CV mode,
// lowering the current step by step until it falls below the floor. If
// the battery is already above the target, it logs a warning and
// returns without issuing any command.
func (r *Ramp) ChargeToVoltage(ctx context.Context, targetVoltage float64, sink Sink) error {
	m, err := r.firstMeasurement(ctx)
	if err != nil {
		return err
	}
	if m.VoltageV > targetVoltage {
		r.log.Warnf("voltage %.3fV is already above target %.3fV", m.VoltageV, targetVoltage)
		return nil
	}

	current := r.opts.RampSeedCurrent
	r.log.Infof("starting charge to %.3fV with initial current %.3fA", targetVoltage, current)
	if err := r.session.StartChargeCCCV(targetVoltage, current, 0); err != nil {
		return err
	}
	return r.rampLoop(ctx, sink, current, func(c float64) error {
		r.log.Infof("adjusting charge current to %.3fA", c)
		return r.session.AdjustChargeCCCV(targetVoltage, c, 0)
	})
}

// firstMeasurement clears stale input and polls until one measurement
// arrives, for the pre-check against the target.
func (r *Ramp) firstMeasurement(ctx context.Context) (*Measurement, error) {
	r.session.DiscardUnread()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := r.session.ReadMeasurement()
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
	}
}

// rampLoop polls measurements, decaying the current on every terminal
// observation and re-issuing an adjust command until the current drops
// below the floor. Unlike Controller.WaitComplete a single terminal
// read triggers a step; the device sits in COMPLETED between steps, so
// waiting for repeats here would only slow the ramp down.
func (r *Ramp) rampLoop(ctx context.Context, sink Sink, current float64, adjust func(float64) error) error {
	if err := r.settle(ctx); err != nil {
		return err
	}
	for {
		if err := sleepCtx(ctx, r.opts.PollInterval); err != nil {
			return err
		}
		m, err := r.session.ReadMeasurement()
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
		if !m.State.Terminal() {
			continue
		}

		current *= r.opts.RampDecay
		if current < r.opts.RampFloorCurrent {
			r.log.Infof("current %.3fA below floor %.3fA, ramp finished", current, r.opts.RampFloorCurrent)
			return nil
		}
		if err := adjust(current); err != nil {
			return err
		}
		if err := r.settle(ctx); err != nil {
			return err
		}
	}
}

func (r *Ramp) settle(ctx context.Context) error {
	if err := sleepCtx(ctx, r.opts.StartSettle); err != nil {
		return err
	}
	r.session.DiscardUnread()
	return nil
}
