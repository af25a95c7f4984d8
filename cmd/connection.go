// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/wirenboard/zke-ebc-axx/pkg/ebc"
)

// getPassword retrieves the bridge password from the environment or
// prompts for it
func getPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("EBC_PASSWORD"); pw != "" {
		return pw, nil
	}

	// Prompt user for password (hide input)
	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr) // newline after password
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr) // newline after password
	return string(passwordBytes), nil
}

// openTransport builds the transport selected by flags and config:
// the WebSocket bridge when --url is given, the serial port otherwise.
// With --capture the transport is wrapped in a recording tee.
func openTransport() (ebc.Transport, string, error) {
	var (
		transport ebc.Transport
		desc      string
	)

	if cfg.Bridge.URL != "" {
		password := ""
		if cfg.Bridge.Username != "" {
			var err error
			password, err = getPassword()
			if err != nil {
				return nil, "", err
			}
		}
		transport = ebc.NewBridgeTransport(
			cfg.Bridge.URL,
			cfg.Bridge.Username,
			password,
			cfg.Bridge.SkipTLSVerify,
			time.Duration(cfg.Serial.ReadTimeout),
		)
		desc = fmt.Sprintf("WebSocket: %s", cfg.Bridge.URL)
	} else {
		transport = ebc.NewSerialTransport(
			cfg.Serial.Port,
			cfg.Serial.BaudRate,
			time.Duration(cfg.Serial.ReadTimeout),
		)
		desc = fmt.Sprintf("Serial: %s @ %d baud", cfg.Serial.Port, cfg.Serial.BaudRate)
	}

	if capturePath != "" {
		recorded, err := ebc.NewCaptureTransport(transport, capturePath)
		if err != nil {
			return nil, "", err
		}
		transport = recorded
		desc += fmt.Sprintf(" (capturing to %s)", capturePath)
	}

	return transport, desc, nil
}
