// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/wirenboard/zke-ebc-axx/internal/config"
)

// writerHook routes entries at or above a level to one writer with its
// own formatter, so the console and the debug file can differ.
type writerHook struct {
	writer    io.Writer
	levels    []logrus.Level
	formatter logrus.Formatter
}

func (h *writerHook) Levels() []logrus.Level {
	return h.levels
}

func (h *writerHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

// setupLogging builds the shared logger: console at the configured
// level, plus an optional always-debug file. The logger itself writes
// nowhere; the hooks do all output.
func setupLogging(cfg config.LogConfig) (*logrus.Logger, error) {
	consoleLevel, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.DebugLevel)

	log.AddHook(&writerHook{
		writer: os.Stderr,
		levels: logrus.AllLevels[:consoleLevel+1],
		formatter: &logrus.TextFormatter{
			FullTimestamp: true,
		},
	})

	if cfg.DebugFile != "" {
		file, err := os.OpenFile(cfg.DebugFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open debug log file: %w", err)
		}
		log.AddHook(&writerHook{
			writer: file,
			levels: logrus.AllLevels,
			formatter: &logrus.TextFormatter{
				FullTimestamp:   true,
				DisableColors:   true,
				TimestampFormat: "2006-01-02 15:04:05.000",
			},
		})
	}

	return log, nil
}
