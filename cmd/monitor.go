// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/wirenboard/zke-ebc-axx/pkg/ebc"
)

var replayPath string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll and log measurements until interrupted",
	Long: `Connects to the device and logs every measurement it reports, one CSV row
per sample, until interrupted with Ctrl-C.

With --replay the measurements come from a capture file recorded earlier with
--capture instead of live hardware; the run ends when the capture is
exhausted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, closeSink, err := buildSink()
		if err != nil {
			return err
		}
		defer closeSink()

		run := func(ctx context.Context, sess *ebc.Session) error {
			ctrl := ebc.NewController(sess, log, sess.Options())
			err := ctrl.Monitor(ctx, sink)
			if errors.Is(err, io.EOF) {
				log.Info("capture exhausted")
				err = nil
			}
			if sess.Stats != nil {
				log.Info("\n" + sess.Stats.String())
			}
			return err
		}

		if replayPath != "" {
			return runReplay(replayPath, run)
		}
		return runWithDevice(run)
	},
}

func init() {
	monitorCmd.Flags().StringVar(&replayPath, "replay", "", "Replay a capture file instead of connecting")
	rootCmd.AddCommand(monitorCmd)
}
