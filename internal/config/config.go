// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

// Package config loads the tool configuration from a YAML file and maps
// it onto session options. Flags override the file; the file overrides
// the built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wirenboard/zke-ebc-axx/pkg/ebc"
)

// Duration accepts "500ms"-style values in YAML, plus bare integers as
// nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	return fmt.Errorf("invalid duration %q", value.Value)
}

func (d Duration) String() string { return time.Duration(d).String() }

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Timing  TimingConfig  `yaml:"timing"`
	Ramp    RampConfig    `yaml:"ramp"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type SerialConfig struct {
	Port        string   `yaml:"port"`
	BaudRate    int      `yaml:"baud_rate"`
	ReadTimeout Duration `yaml:"read_timeout"`
}

// BridgeConfig points at a serial-over-websocket bridge instead of a
// local port. The password is deliberately not a config key; it comes
// from the environment or an interactive prompt.
type BridgeConfig struct {
	URL           string `yaml:"url"`
	Username      string `yaml:"username"`
	SkipTLSVerify bool   `yaml:"skip_tls_verify"`
}

type TimingConfig struct {
	ConnectSettle Duration `yaml:"connect_settle"`
	WriteSettle   Duration `yaml:"write_settle"`
	StartSettle   Duration `yaml:"start_settle"`
	PollInterval  Duration `yaml:"poll_interval"`
	TerminalReads int      `yaml:"terminal_reads"`
}

type RampConfig struct {
	SeedCurrent  float64 `yaml:"seed_current"`
	Decay        float64 `yaml:"decay"`
	FloorCurrent float64 `yaml:"floor_current"`
}

type LogConfig struct {
	Level     string `yaml:"level"`
	DebugFile string `yaml:"debug_file"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Default returns the stock configuration matching the device's factory
// timings.
func Default() *Config {
	opts := ebc.DefaultOptions()
	return &Config{
		Serial: SerialConfig{
			Port:        "/dev/ttyUSB0",
			BaudRate:    ebc.DefaultBaudRate,
			ReadTimeout: Duration(ebc.DefaultReadTimeout),
		},
		Timing: TimingConfig{
			ConnectSettle: Duration(opts.ConnectSettle),
			WriteSettle:   Duration(opts.WriteSettle),
			StartSettle:   Duration(opts.StartSettle),
			PollInterval:  Duration(opts.PollInterval),
			TerminalReads: opts.TerminalReads,
		},
		Ramp: RampConfig{
			SeedCurrent:  opts.RampSeedCurrent,
			Decay:        opts.RampDecay,
			FloorCurrent: opts.RampFloorCurrent,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is an
// error; call Default directly when no file is configured.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the control loops cannot work with.
func (c *Config) Validate() error {
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Serial.BaudRate)
	}
	if c.Timing.TerminalReads <= 0 {
		return fmt.Errorf("terminal_reads must be positive, got %d", c.Timing.TerminalReads)
	}
	if c.Timing.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.Timing.PollInterval)
	}
	if c.Ramp.Decay <= 0 || c.Ramp.Decay >= 1 {
		return fmt.Errorf("ramp decay must be in (0, 1), got %g", c.Ramp.Decay)
	}
	if c.Ramp.FloorCurrent <= 0 || c.Ramp.SeedCurrent < c.Ramp.FloorCurrent {
		return fmt.Errorf("ramp currents out of order: seed %g, floor %g",
			c.Ramp.SeedCurrent, c.Ramp.FloorCurrent)
	}
	return nil
}

// SessionOptions maps the timing and ramp sections onto session options.
func (c *Config) SessionOptions() ebc.Options {
	return ebc.Options{
		ConnectSettle:    time.Duration(c.Timing.ConnectSettle),
		WriteSettle:      time.Duration(c.Timing.WriteSettle),
		StartSettle:      time.Duration(c.Timing.StartSettle),
		PollInterval:     time.Duration(c.Timing.PollInterval),
		TerminalReads:    c.Timing.TerminalReads,
		RampSeedCurrent:  c.Ramp.SeedCurrent,
		RampDecay:        c.Ramp.Decay,
		RampFloorCurrent: c.Ramp.FloorCurrent,
	}
}
