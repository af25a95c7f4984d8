// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/wirenboard/zke-ebc-axx/internal/metrics"
	"github.com/wirenboard/zke-ebc-axx/pkg/ebc"
)

// csvSink writes one CSV row per measurement, a unix timestamp column
// first, flushed after every row so a tail of the file always shows the
// latest sample.
type csvSink struct {
	w           *csv.Writer
	file        *os.File
	wroteHeader bool
}

// newCSVSink opens the output target. An empty path means stdout. An
// existing file is refused unless --force (truncate) or --append is
// given; appending to a non-empty file skips the header.
func newCSVSink(path string, force, appendTo bool) (*csvSink, error) {
	if path == "" {
		return &csvSink{w: csv.NewWriter(os.Stdout)}, nil
	}

	flags := os.O_CREATE | os.O_WRONLY
	skipHeader := false
	switch {
	case appendTo:
		flags |= os.O_APPEND
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			skipHeader = true
		}
	case force:
		flags |= os.O_TRUNC
	default:
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("output file %s exists (use --force to overwrite or --append)", path)
		}
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return &csvSink{
		w:           csv.NewWriter(file),
		file:        file,
		wroteHeader: skipHeader,
	}, nil
}

func (s *csvSink) Write(m *ebc.Measurement) error {
	fields := m.Fields()
	if !s.wroteHeader {
		header := make([]string, 0, len(fields)+1)
		header = append(header, "time")
		for _, f := range fields {
			header = append(header, f.Name)
		}
		if err := s.w.Write(header); err != nil {
			return err
		}
		s.wroteHeader = true
	}

	row := make([]string, 0, len(fields)+1)
	row = append(row, strconv.FormatInt(time.Now().Unix(), 10))
	for _, f := range fields {
		row = append(row, f.Value)
	}
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *csvSink) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if s.file != nil {
		if closeErr := s.file.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

// multiSink fans one measurement out to several sinks; the first error
// wins.
type multiSink []ebc.Sink

func (s multiSink) Write(m *ebc.Measurement) error {
	for _, sink := range s {
		if err := sink.Write(m); err != nil {
			return err
		}
	}
	return nil
}

// buildSink assembles the sink chain from the output flags: the CSV
// sink, plus the Prometheus exporter when metrics are enabled. The
// returned closer flushes and closes the CSV output.
func buildSink() (ebc.Sink, func() error, error) {
	csvOut, err := newCSVSink(outputPath, forceOutput, appendMode)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Metrics.Enabled {
		return csvOut, csvOut.Close, nil
	}

	exporter := metrics.NewExporter(log)
	exporter.Serve(cfg.Metrics.Listen)
	return multiSink{csvOut, exporter}, csvOut.Close, nil
}
