// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wirenboard/zke-ebc-axx/pkg/ebc"
)

// stopSettle is slept after the safety stop so the device is quiescent
// before a new operation starts.
const stopSettle = time.Second

// runWithDevice opens the configured transport, connects, runs fn, and
// always stops the device and disconnects on the way out - also when fn
// fails or the user interrupts. Ctrl-C cancels the context; the cleanup
// still talks to the device.
func runWithDevice(fn func(ctx context.Context, sess *ebc.Session) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport, desc, err := openTransport()
	if err != nil {
		return err
	}
	log.Infof("connecting to %s", desc)

	sess := ebc.NewSession(transport, log, cfg.SessionOptions())
	sess.Stats = ebc.NewStats()
	if err := sess.Connect(); err != nil {
		return err
	}
	defer func() {
		if err := sess.SendStop(); err != nil {
			log.WithError(err).Warn("failed to stop device during cleanup")
		}
		if err := sess.Disconnect(); err != nil {
			log.WithError(err).Warn("failed to disconnect")
		}
	}()

	// Safety: whatever the device was doing before we attached, stop it
	// and let it settle before the requested operation starts.
	if err := sess.SendStop(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return finishRun(ctx.Err(), "operation")
	case <-time.After(stopSettle):
	}

	return finishRun(fn(ctx, sess), "operation")
}

// finishRun maps a context cancellation to a clean user-facing exit;
// any other error passes through.
func finishRun(err error, what string) error {
	if errors.Is(err, context.Canceled) {
		log.Infof("%s interrupted by user", what)
		return nil
	}
	return err
}

// runReplay drives fn over a recorded capture instead of live hardware.
// No stop commands are sent; the replay transport swallows writes anyway
// and the capture should be read from its very first byte.
func runReplay(path string, fn func(ctx context.Context, sess *ebc.Session) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("replaying capture %s", path)
	sess := ebc.NewSession(ebc.NewReplayTransport(path), log, replayOptions())
	sess.Stats = ebc.NewStats()
	if err := sess.Connect(); err != nil {
		return err
	}
	defer sess.Disconnect()

	return finishRun(fn(ctx, sess), "replay")
}

// replayOptions drops the device settle delays so a capture plays back
// as fast as it decodes.
func replayOptions() ebc.Options {
	opts := cfg.SessionOptions()
	opts.ConnectSettle = 0
	opts.WriteSettle = 0
	opts.StartSettle = 0
	opts.PollInterval = time.Millisecond
	return opts
}
