// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wirenboard/zke-ebc-axx/internal/config"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Config and output flags
	configPath  string
	outputPath  string
	forceOutput bool
	appendMode  bool

	// Logging flags
	debugMode bool
	debugFile string

	// Capture and metrics flags
	capturePath   string
	metricsListen string
)

// cfg and log are set up by the persistent pre-run before any command
// body executes.
var (
	cfg *config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ebc-axx",
	Short: "ZKE EBC-Axx electronic load control",
	Long: `ebc-axx - A CLI tool for driving ZKE EBC-Axx electronic loads and battery
testers over their serial protocol.

Provides commands for monitoring measurements, running charge and discharge
operations to completion, adaptive charge/discharge to a target voltage, and a
live dashboard.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the EBC_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
		} else {
			cfg = config.Default()
		}

		// Flags beat the config file.
		if portName != "" {
			cfg.Serial.Port = portName
		}
		if cmd.Flags().Changed("baud") {
			cfg.Serial.BaudRate = baudRate
		}
		if wsURL != "" {
			cfg.Bridge.URL = wsURL
		}
		if wsUsername != "" {
			cfg.Bridge.Username = wsUsername
		}
		if wsNoSSLVerify {
			cfg.Bridge.SkipTLSVerify = true
		}
		if debugMode {
			cfg.Log.Level = "debug"
		}
		if debugFile != "" {
			cfg.Log.DebugFile = debugFile
		}
		if metricsListen != "" {
			cfg.Metrics.Enabled = true
			cfg.Metrics.Listen = metricsListen
		}

		log, err = setupLogging(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 9600, "Baud rate (serial only)")

	// WebSocket bridge flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket bridge URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Config and output flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "CSV output file (default stdout)")
	rootCmd.PersistentFlags().BoolVarP(&forceOutput, "force", "f", false, "Overwrite the output file if it exists")
	rootCmd.PersistentFlags().BoolVarP(&appendMode, "append", "a", false, "Append to the output file if it exists")

	// Logging flags
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging on the console")
	rootCmd.PersistentFlags().StringVar(&debugFile, "debug-file", "", "Write debug logs to a file (console level unchanged)")

	// Capture and metrics flags
	rootCmd.PersistentFlags().StringVar(&capturePath, "capture", "", "Record raw response bytes to a CBOR capture file")
	rootCmd.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if log != nil {
			log.Error(err)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	return err
}
