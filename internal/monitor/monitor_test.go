package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
)

func TestMonitor_FetchDoneAggregates(t *testing.T) {
	m := New(logr.Discard(), 2)

	m.FetchDone("executive", 10*time.Millisecond, nil)
	m.FetchDone("executive", 20*time.Millisecond, errors.New("timeout"))
	m.FetchDone("executive", 40*time.Millisecond, nil)
	m.FetchDone("admins", 5*time.Millisecond, nil)

	stats := m.Stats()
	if len(stats) != 2 || stats[0].View != "admins" || stats[1].View != "executive" {
		t.Fatalf("Stats = %+v, want admins then executive", stats)
	}
	exec := stats[1]
	if exec.Fetches != 3 || exec.Failures != 1 || exec.LastError != "timeout" {
		t.Fatalf("executive = %+v, want 3 fetches, 1 failure", exec)
	}
	// window of 2: (20 + 40) / 2
	if exec.AvgLatency != 30*time.Millisecond {
		t.Fatalf("AvgLatency = %v, want 30ms", exec.AvgLatency)
	}
}

func TestMonitor_NilReceiverIgnoresFetches(t *testing.T) {
	var m *Monitor
	m.FetchDone("executive", time.Millisecond, nil)
}

func TestMonitor_StartStop(t *testing.T) {
	m := New(logr.Discard(), 0)
	m.FetchDone("executive", time.Millisecond, nil)

	m.Start(time.Millisecond)
	m.Start(time.Millisecond) // second start is a no-op
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop()
}
