package metrics

import (
	"testing"
	"time"
)

func TestNew_ZeroSnapshot(t *testing.T) {
	m := New()
	snap := m.Snapshot()
	if snap.Calls.Protect != 0 || snap.Findings.ItemsVaulted != 0 {
		t.Errorf("expected zero counters, got %+v", snap)
	}
}

func TestCounters_Increment(t *testing.T) {
	m := New()
	m.ProtectCalls.Add(3)
	m.ItemsVaulted.Add(5)
	m.AlertsFired.Add(1)

	snap := m.Snapshot()
	if snap.Calls.Protect != 3 {
		t.Errorf("Protect = %d, want 3", snap.Calls.Protect)
	}
	if snap.Findings.ItemsVaulted != 5 {
		t.Errorf("ItemsVaulted = %d, want 5", snap.Findings.ItemsVaulted)
	}
	if snap.Findings.AlertsFired != 1 {
		t.Errorf("AlertsFired = %d, want 1", snap.Findings.AlertsFired)
	}
}

func TestRecordVaultLatency_MinMeanMax(t *testing.T) {
	m := New()
	m.RecordVaultLatency(10 * time.Millisecond)
	m.RecordVaultLatency(20 * time.Millisecond)
	m.RecordVaultLatency(30 * time.Millisecond)

	snap := m.Snapshot()
	lat := snap.Latency.VaultMs
	if lat.Count != 3 {
		t.Fatalf("Count = %d, want 3", lat.Count)
	}
	if lat.MinMs != 10 {
		t.Errorf("MinMs = %v, want 10", lat.MinMs)
	}
	if lat.MaxMs != 30 {
		t.Errorf("MaxMs = %v, want 30", lat.MaxMs)
	}
	if lat.MeanMs != 20 {
		t.Errorf("MeanMs = %v, want 20", lat.MeanMs)
	}
}

func TestSnapshot_UptimeIncreases(t *testing.T) {
	m := New()
	time.Sleep(2 * time.Millisecond)
	if m.Snapshot().UptimeSecs <= 0 {
		t.Error("expected positive uptime")
	}
}
