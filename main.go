// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board
//
// ebc-axx - CLI for ZKE EBC-Axx electronic loads and battery testers.
//
// Drives the device over its serial protocol: monitoring, charge and
// discharge operations, and adaptive ramp-to-voltage procedures.

package main

import (
	"os"

	"github.com/wirenboard/zke-ebc-axx/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
