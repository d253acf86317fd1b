package systemhandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"hrrecords/internal/domain/employee"
	"hrrecords/internal/platform/backup"
	"hrrecords/internal/platform/db"
	"hrrecords/internal/platform/jobs"
	"hrrecords/internal/platform/metrics"
	"hrrecords/internal/transport/http/api"
	"hrrecords/internal/transport/http/middleware"
)

type StatsSource interface {
	Stats(ctx context.Context) (employee.Stats, error)
}

type SchemaSource interface {
	SchemaVersion(ctx context.Context) (db.SchemaInfo, error)
}

type BackupRunner interface {
	RunNow(ctx context.Context) (backup.Result, error)
	List() ([]backup.Info, error)
}

type JobLog interface {
	Recent(ctx context.Context, limit int) ([]jobs.Run, error)
}

type Handler struct {
	Stats   StatsSource
	Schema  SchemaSource
	Backups BackupRunner
	Jobs    JobLog
	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Collector

	logger *zap.Logger
}

type Info struct {
	SchemaVersion     string                              `json:"schemaVersion"`
	MigrationsApplied int                                 `json:"migrationsApplied"`
	EmployeeCount     int64                               `json:"employeeCount"`
	ByStatus          map[employee.EmploymentStatus]int64 `json:"byStatus"`
}

func NewHandler(stats StatsSource, schema SchemaSource, backups BackupRunner, jobLog JobLog, collector *metrics.Collector, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.L()
	}
	return &Handler{Stats: stats, Schema: schema, Backups: backups, Jobs: jobLog, Metrics: collector, logger: logger.Named("system.http")}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/info", h.handleInfo)
		r.Get("/backups", h.handleListBackups)
		r.Post("/backups", h.handleRunBackup)
		r.Get("/jobs", h.handleJobs)
		r.Get("/metrics", h.handleMetrics)
	})
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	rid := middleware.GetRequestID(r.Context())
	schema, err := h.Schema.SchemaVersion(r.Context())
	if err != nil {
		h.logger.Error("schema version lookup failed", zap.String("request_id", rid), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "system_info_failed", "failed to load system info", rid)
		return
	}
	stats, err := h.Stats.Stats(r.Context())
	if err != nil {
		h.logger.Error("employee stats failed", zap.String("request_id", rid), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "system_info_failed", "failed to load system info", rid)
		return
	}
	api.Success(w, Info{
		SchemaVersion:     schema.Version,
		MigrationsApplied: schema.Applied,
		EmployeeCount:     stats.Total,
		ByStatus:          stats.ByStatus,
	}, rid)
}

func (h *Handler) handleRunBackup(w http.ResponseWriter, r *http.Request) {
	rid := middleware.GetRequestID(r.Context())
	res, err := h.Backups.RunNow(r.Context())
	if err != nil {
		h.logger.Error("backup failed", zap.String("request_id", rid), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "backup_failed", "failed to create backup", rid)
		return
	}
	api.Created(w, res, rid)
}

func (h *Handler) handleListBackups(w http.ResponseWriter, r *http.Request) {
	rid := middleware.GetRequestID(r.Context())
	infos, err := h.Backups.List()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "backup_list_failed", "failed to list backups", rid)
		return
	}
	api.Success(w, infos, rid)
}

func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	rid := middleware.GetRequestID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.Jobs.Recent(r.Context(), limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_list_failed", "failed to list job runs", rid)
		return
	}
	api.Success(w, runs, rid)
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	rid := middleware.GetRequestID(r.Context())
	if h.Metrics == nil {
		api.Fail(w, http.StatusNotFound, "not_found", "metrics are disabled", rid)
		return
	}
	api.Success(w, h.Metrics.Snapshot(), rid)
}
