package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCollectorCountsByClass(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(404, 20*time.Millisecond)
	c.Record(429, 0)
	c.Record(503, 30*time.Millisecond)

	snap := c.Snapshot()
	if snap.RequestsTotal != 4 {
		t.Fatalf("expected 4 requests, got %d", snap.RequestsTotal)
	}
	if snap.ClientErrors != 2 || snap.ServerErrors != 1 || snap.RateLimitedTotal != 1 {
		t.Fatalf("unexpected error counters %+v", snap)
	}
	if snap.AvgDurationMs != 15 {
		t.Fatalf("expected avg 15ms, got %v", snap.AvgDurationMs)
	}
	if snap.MaxDurationMs != 30 {
		t.Fatalf("expected max 30ms, got %d", snap.MaxDurationMs)
	}
}

func TestCollectorConcurrentRecord(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Record(200, time.Millisecond)
		}()
	}
	wg.Wait()
	if got := c.Snapshot().RequestsTotal; got != 50 {
		t.Fatalf("expected 50 requests, got %d", got)
	}
}

func TestCollectorBackups(t *testing.T) {
	c := New()
	if c.Snapshot().LastBackupAt != nil {
		t.Fatal("expected no backup timestamp yet")
	}
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.RecordBackup(nil, at)
	c.RecordBackup(errors.New("disk full"), at)

	snap := c.Snapshot()
	if snap.BackupsTotal != 1 || snap.BackupsFailed != 1 {
		t.Fatalf("unexpected backup counters %+v", snap)
	}
	if snap.LastBackupAt == nil || !snap.LastBackupAt.Equal(at) {
		t.Fatalf("unexpected last backup %v", snap.LastBackupAt)
	}
}
