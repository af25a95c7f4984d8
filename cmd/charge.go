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
	chargeCurrent   float64
	chargeVoltage   float64
	chargeTimeout   time.Duration
	chargeChemistry string
	chargeCells     int
	chargeTarget    float64
)

var chargeCmd = &cobra.Command{
	Use:   "charge",
	Short: "Run a charge operation to completion",
}

var chargeCCCVCmd = &cobra.Command{
	Use:   "cccv",
	Short: "Constant-current/constant-voltage charge",
	Long: `Charges at the given current until the given voltage is reached, then holds
the voltage while the current tapers. Logs every measurement until the device
reports completion.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, closeSink, err := buildSink()
		if err != nil {
			return err
		}
		defer closeSink()

		return runWithDevice(func(ctx context.Context, sess *ebc.Session) error {
			ctrl := ebc.NewController(sess, log, sess.Options())
			return ctrl.ChargeCCCV(ctx, chargeVoltage, chargeCurrent, chargeTimeout, sink)
		})
	},
}

var chargePresetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Chemistry-preset charge (nimh, nicd, lipo, life, pb)",
	Long: `Charges using the device's built-in profile for the given battery chemistry.
For lithium chemistries --cells selects the series cell count; for nickel
chemistries the device derives it from the charge curve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		chemistry, err := ebc.ChemistryFromName(chargeChemistry)
		if err != nil {
			return err
		}

		sink, closeSink, err := buildSink()
		if err != nil {
			return err
		}
		defer closeSink()

		return runWithDevice(func(ctx context.Context, sess *ebc.Session) error {
			ctrl := ebc.NewController(sess, log, sess.Options())
			return ctrl.ChargePreset(ctx, chemistry, chargeCurrent, chargeCells, chargeTimeout, sink)
		})
	},
}

var chargeCVCmd = &cobra.Command{
	Use:   "cv",
	Short: "Charge up to a target voltage, tapering the current",
	Long: `Charges toward the target voltage, starting at the configured seed current
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
			return ramp.ChargeToVoltage(ctx, chargeTarget, sink)
		})
	},
}

func init() {
	chargeCCCVCmd.Flags().Float64VarP(&chargeCurrent, "current", "c", 0, "Charge current in A")
	chargeCCCVCmd.Flags().Float64VarP(&chargeVoltage, "voltage", "v", 0, "Target voltage in V")
	chargeCCCVCmd.Flags().DurationVar(&chargeTimeout, "timeout", 0, "Device-side cutoff time (whole minutes, 0 = none)")
	chargeCCCVCmd.MarkFlagRequired("current")
	chargeCCCVCmd.MarkFlagRequired("voltage")

	chargePresetCmd.Flags().StringVar(&chargeChemistry, "chemistry", "", "Battery chemistry: nimh, nicd, lipo, life, pb")
	chargePresetCmd.Flags().Float64VarP(&chargeCurrent, "current", "c", 0, "Charge current in A")
	chargePresetCmd.Flags().IntVar(&chargeCells, "cells", 1, "Series cell count (lithium chemistries)")
	chargePresetCmd.Flags().DurationVar(&chargeTimeout, "timeout", 0, "Device-side cutoff time (whole minutes, 0 = none)")
	chargePresetCmd.MarkFlagRequired("chemistry")
	chargePresetCmd.MarkFlagRequired("current")

	chargeCVCmd.Flags().Float64VarP(&chargeTarget, "voltage", "v", 0, "Target voltage in V")
	chargeCVCmd.MarkFlagRequired("voltage")

	chargeCmd.AddCommand(chargeCCCVCmd, chargePresetCmd, chargeCVCmd)
	rootCmd.AddCommand(chargeCmd)
}
