package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps process-wide counters. All methods are safe for concurrent
// use.
type Collector struct {
	startedAt time.Time

	requests    atomic.Uint64
	clientErrs  atomic.Uint64
	serverErrs  atomic.Uint64
	rateLimited atomic.Uint64
	durationMs  atomic.Uint64
	maxMs       atomic.Uint64

	backups       atomic.Uint64
	backupsFailed atomic.Uint64
	lastBackupAt  atomic.Int64
}

func New() *Collector {
	return &Collector{startedAt: time.Now()}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.requests.Add(1)
	switch {
	case status == 429:
		c.rateLimited.Add(1)
		c.clientErrs.Add(1)
	case status >= 500:
		c.serverErrs.Add(1)
	case status >= 400:
		c.clientErrs.Add(1)
	}
	ms := uint64(duration.Milliseconds())
	c.durationMs.Add(ms)
	for {
		cur := c.maxMs.Load()
		if ms <= cur || c.maxMs.CompareAndSwap(cur, ms) {
			break
		}
	}
}

func (c *Collector) RecordBackup(err error, at time.Time) {
	if err != nil {
		c.backupsFailed.Add(1)
		return
	}
	c.backups.Add(1)
	c.lastBackupAt.Store(at.Unix())
}

type Snapshot struct {
	UptimeSeconds    int64      `json:"uptimeSeconds"`
	RequestsTotal    uint64     `json:"requestsTotal"`
	ClientErrors     uint64     `json:"clientErrorsTotal"`
	ServerErrors     uint64     `json:"errorsTotal"`
	RateLimitedTotal uint64     `json:"rateLimitedTotal"`
	AvgDurationMs    float64    `json:"avgDurationMs"`
	MaxDurationMs    uint64     `json:"maxDurationMs"`
	BackupsTotal     uint64     `json:"backupsTotal"`
	BackupsFailed    uint64     `json:"backupsFailedTotal"`
	LastBackupAt     *time.Time `json:"lastBackupAt,omitempty"`
}

func (c *Collector) Snapshot() Snapshot {
	total := c.requests.Load()
	snap := Snapshot{
		UptimeSeconds:    int64(time.Since(c.startedAt).Seconds()),
		RequestsTotal:    total,
		ClientErrors:     c.clientErrs.Load(),
		ServerErrors:     c.serverErrs.Load(),
		RateLimitedTotal: c.rateLimited.Load(),
		MaxDurationMs:    c.maxMs.Load(),
		BackupsTotal:     c.backups.Load(),
		BackupsFailed:    c.backupsFailed.Load(),
	}
	if total > 0 {
		snap.AvgDurationMs = float64(c.durationMs.Load()) / float64(total)
	}
	if last := c.lastBackupAt.Load(); last > 0 {
		at := time.Unix(last, 0).UTC()
		snap.LastBackupAt = &at
	}
	return snap
}
