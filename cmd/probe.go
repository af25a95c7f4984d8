// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wirenboard/zke-ebc-axx/pkg/ebc"
)

var probeTimeout time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that a device is responding",
	Long: `Connects and waits for the first valid measurement frame. No commands beyond
the handshake are sent, so a running operation is left undisturbed.

Exit codes:
  0 - device responded with a valid measurement
  1 - connected but no measurement arrived within the timeout
  2 - connection failed`,
	RunE: runProbe,
}

func runProbe(cmd *cobra.Command, args []string) error {
	transport, desc, err := openTransport()
	if err != nil {
		log.Error(err)
		os.Exit(2)
	}
	log.Infof("probing %s", desc)

	sess := ebc.NewSession(transport, log, cfg.SessionOptions())
	if err := sess.Connect(); err != nil {
		log.Error(err)
		os.Exit(2)
	}
	defer sess.Disconnect()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess.DiscardUnread()
	deadline := time.Now().Add(probeTimeout)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		m, err := sess.ReadMeasurement()
		if err != nil {
			log.Error(err)
			sess.Disconnect()
			os.Exit(2)
		}
		if m != nil {
			log.Infof("device responded: %s", m)
			sess.Disconnect()
			os.Exit(0)
		}
	}

	log.Error("no measurement received within the timeout")
	sess.Disconnect()
	os.Exit(1)
	return nil
}

func init() {
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "How long to wait for a measurement")
	rootCmd.AddCommand(probeCmd)
}
