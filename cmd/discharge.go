// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/wirenboard/zke-ebc-axx/pkg/ebc"
)

var (
	dischargeCurrent float64
	dischargePower   float64
	dischargeCutoff  float64
	dischargeTimeout time.Duration
	dischargeTarget  float64
)

var dischargeCmd = &cobra.Command{
	Use:   "discharge",
	Short: "Run a discharge operation to completion",
}

var dischargeCCCmd = &cobra.Command{
	Use:   "cc",
	Short: "Constant-current discharge down to a cutoff voltage",
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, closeSink, err := buildSink()
		if err != nil {
			return err
		}
		defer closeSink()

		return runWithDevice(func(ctx context.Context, sess *ebc.Session) error {
			ctrl := ebc.NewController(sess, log, sess.Options())
			return ctrl.DischargeCC(ctx, dischargeCurrent, dischargeCutoff, dischargeTimeout, sink)
		})
	},
}

var dischargeCPCmd = &cobra.Command{
	Use:   "cp",
	Short: "Constant-power discharge down to a cutoff voltage",
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, closeSink, err := buildSink()
		if err != nil {
			return err
		}
		defer closeSink()

		return runWithDevice(func(ctx context.Context, sess *ebc.Session) error {
			ctrl := ebc.NewController(sess, log, sess.Options())
			return ctrl.DischargeCP(ctx, dischargePower, dischargeCutoff, dischargeTimeout, sink)
		})
	},
}

var dischargeCVCmd = &cobra.Command{
	Use:   "cv",
	Short: "Discharge down to a target voltage, tapering the current",
	Long: `Discharges toward the target voltage, starting at the configured seed current
and lowering it geometrically each time the device stops, until the current
falls below the configured floor. Useful for bringing a battery to a precise
storage voltage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, closeSink, err := buildSink()
		if err != nil {
			return err
		}
		defer closeSink()

		return runWithDevice(func(ctx context.Context, sess *ebc.Session) error {
			ramp := ebc.NewRamp(sess, log, sess.Options())
			return ramp.DischargeToVoltage(ctx, dischargeTarget, sink)
		})
	},
}

func init() {
	dischargeCCCmd.Flags().Float64VarP(&dischargeCurrent, "current", "c", 0, "Discharge current in A")
	dischargeCCCmd.Flags().Float64VarP(&dischargeCutoff, "voltage", "v", 0, "Cutoff voltage in V")
	dischargeCCCmd.Flags().DurationVar(&dischargeTimeout, "timeout", 0, "Device-side cutoff time (whole minutes, 0 = none)")
	dischargeCCCmd.MarkFlagRequired("current")
	dischargeCCCmd.MarkFlagRequired("voltage")

	dischargeCPCmd.Flags().Float64VarP(&dischargePower, "power", "w", 0, "Discharge power in W")
	dischargeCPCmd.Flags().Float64VarP(&dischargeCutoff, "voltage", "v", 0, "Cutoff voltage in V")
	dischargeCPCmd.Flags().DurationVar(&dischargeTimeout, "timeout", 0, "Device-side cutoff time (whole minutes, 0 = none)")
	dischargeCPCmd.MarkFlagRequired("power")
	dischargeCPCmd.MarkFlagRequired("voltage")

	dischargeCVCmd.Flags().Float64VarP(&dischargeTarget, "voltage", "v", 0, "Target voltage in V")
	dischargeCVCmd.MarkFlagRequired("voltage")

	dischargeCmd.AddCommand(dischargeCCCmd, dischargeCPCmd, dischargeCVCmd)
	rootCmd.AddCommand(dischargeCmd)
}
