// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stats accumulates polling counters for a session: how many samples
// arrived, how often polls came back empty, and how noisy the link is.
// Safe for concurrent use; readers take a Snapshot.
type Stats struct {
	mu               sync.Mutex
	startTime        time.Time
	samples          int
	noData           int
	checksumWarnings int
	byState          map[string]int
}

// StatsSnapshot is a point-in-time copy of the counters, safe to read
// without further locking.
type StatsSnapshot struct {
	StartTime        time.Time
	Samples          int
	NoData           int
	ChecksumWarnings int
	ByState          map[string]int
}

// NewStats returns zeroed statistics with the clock started.
func NewStats() *Stats {
	return &Stats{
		startTime: time.Now(),
		byState:   make(map[string]int),
	}
}

// Update records one decoded measurement.
func (s *Stats) Update(m *Measurement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples++
	s.byState[m.State.String()]++
	if !m.ChecksumOK {
		s.checksumWarnings++
	}
}

// RecordNoData records one poll that returned nothing usable.
func (s *Stats) RecordNoData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noData++
}

// Snapshot copies the counters, including the per-state map.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	byState := make(map[string]int, len(s.byState))
	for state, count := range s.byState {
		byState[state] = count
	}
	return StatsSnapshot{
		StartTime:        s.startTime,
		Samples:          s.samples,
		NoData:           s.noData,
		ChecksumWarnings: s.checksumWarnings,
		ByState:          byState,
	}
}

// String renders a multi-line summary.
func (s *Stats) String() string {
	return s.Snapshot().String()
}

// SampleRate returns decoded samples per second since StartTime.
func (s StatsSnapshot) SampleRate() float64 {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Samples) / elapsed
}

// String renders a multi-line summary.
func (s StatsSnapshot) String() string {
	var b strings.Builder
	b.WriteString("Polling Statistics:\n")
	fmt.Fprintf(&b, "  Samples:           %d (%.2f/s)\n", s.Samples, s.SampleRate())
	fmt.Fprintf(&b, "  Empty Reads:       %d\n", s.NoData)
	fmt.Fprintf(&b, "  Checksum Warnings: %d\n", s.ChecksumWarnings)

	states := make([]string, 0, len(s.ByState))
	for state := range s.ByState {
		states = append(states, state)
	}
	sort.Strings(states)
	for _, state := range states {
		fmt.Fprintf(&b, "  State %-10s   %d\n", state+":", s.ByState[state])
	}
	return b.String()
}
