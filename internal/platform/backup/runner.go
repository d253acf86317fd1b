package backup

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"hrrecords/internal/domain/audit"
	"hrrecords/internal/platform/jobs"
	"hrrecords/internal/platform/metrics"
	"hrrecords/internal/requestctx"
)

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Runner ties backups to the job log, the audit trail and the metrics
// collector. Scheduled and on-demand runs go through the same path.
type Runner struct {
	backups *Service
	jobs    *jobs.Service
	audit   AuditRecorder
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewRunner(backups *Service, jobService *jobs.Service, auditor AuditRecorder, collector *metrics.Collector, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.L()
	}
	return &Runner{backups: backups, jobs: jobService, audit: auditor, metrics: collector, logger: logger.Named("backup.runner")}
}

// Schedule registers the periodic backup job. A zero interval disables it.
func (r *Runner) Schedule(interval time.Duration) {
	r.jobs.Every(jobs.JobBackup, interval, r.job)
}

// RunNow takes a backup immediately and waits for it.
func (r *Runner) RunNow(ctx context.Context) (Result, error) {
	out, err := r.jobs.RunNow(ctx, jobs.JobBackup, r.job)
	if err != nil {
		return Result{}, err
	}
	res, _ := out.(Result)
	return res, nil
}

func (r *Runner) List() ([]Info, error) {
	return r.backups.List()
}

func (r *Runner) job(ctx context.Context) (any, error) {
	res, err := r.backups.Run(ctx)
	if r.metrics != nil {
		r.metrics.RecordBackup(err, time.Now())
	}
	if err != nil {
		return nil, err
	}
	if r.audit != nil {
		entry := audit.Entry{
			Action:     audit.ActionBackupRun,
			EntityType: audit.EntityBackup,
			EntityID:   filepath.Base(res.Path),
			RequestID:  requestctx.GetRequestID(ctx),
			After:      res,
		}
		if err := r.audit.Record(ctx, entry); err != nil {
			r.logger.Warn("audit backup failed", zap.Error(err))
		}
	}
	return res, nil
}
