// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package ebc

import (
	"strings"
	"sync"
	"testing"
)

func TestStats_ConcurrentUpdates(t *testing.T) {
	stats := NewStats()
	clean := &Measurement{State: StateWorking, ChecksumOK: true}
	noisy := &Measurement{State: StateCompleted}

	const rounds = 500
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			stats.Update(clean)
			stats.Update(noisy)
			stats.RecordNoData()
		}
	}()

	// Read the way the live dashboard does while the polling loop writes.
	for i := 0; i < rounds; i++ {
		snap := stats.Snapshot()
		if snap.NoData > snap.Samples {
			t.Fatalf("NoData = %d outran Samples = %d", snap.NoData, snap.Samples)
		}
		_ = snap.SampleRate()
		_ = stats.String()
	}
	wg.Wait()

	snap := stats.Snapshot()
	if snap.Samples != 2*rounds {
		t.Errorf("Samples = %d, want %d", snap.Samples, 2*rounds)
	}
	if snap.NoData != rounds {
		t.Errorf("NoData = %d, want %d", snap.NoData, rounds)
	}
	if snap.ChecksumWarnings != rounds {
		t.Errorf("ChecksumWarnings = %d, want %d", snap.ChecksumWarnings, rounds)
	}
	if snap.ByState["WORKING"] != rounds || snap.ByState["COMPLETED"] != rounds {
		t.Errorf("ByState = %v", snap.ByState)
	}
}

func TestStats_SnapshotIsDetached(t *testing.T) {
	stats := NewStats()
	stats.Update(&Measurement{State: StateWorking, ChecksumOK: true})

	snap := stats.Snapshot()
	stats.Update(&Measurement{State: StateWorking, ChecksumOK: true})

	if snap.Samples != 1 {
		t.Errorf("Samples = %d, want 1", snap.Samples)
	}
	if snap.ByState["WORKING"] != 1 {
		t.Errorf("snapshot map tracked later updates: %v", snap.ByState)
	}
}

func TestStats_Summary(t *testing.T) {
	stats := NewStats()
	stats.Update(&Measurement{State: StateWorking, ChecksumOK: true})
	stats.Update(&Measurement{State: StateCompleted})
	stats.RecordNoData()

	out := stats.String()
	for _, want := range []string{
		"Samples:           2",
		"Empty Reads:       1",
		"Checksum Warnings: 1",
		"State WORKING:",
		"State COMPLETED:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
