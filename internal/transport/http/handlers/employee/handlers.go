package employeehandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"hrrecords/internal/domain/audit"
	"hrrecords/internal/domain/employee"
	"hrrecords/internal/platform/export"
	"hrrecords/internal/platform/storage"
	"hrrecords/internal/transport/http/api"
	"hrrecords/internal/transport/http/middleware"
	"hrrecords/internal/transport/http/shared"
)

const photoField = "photo"

type Service interface {
	Create(ctx context.Context, form employee.FormData) (employee.Employee, error)
	Get(ctx context.Context, id int64) (employee.Employee, error)
	List(ctx context.Context, filter employee.FilterOptions, page employee.Page) (employee.ListResponse, error)
	Export(ctx context.Context, filter employee.FilterOptions) ([]employee.Employee, error)
	Update(ctx context.Context, id int64, form employee.FormData) (employee.Employee, error)
	Delete(ctx context.Context, id int64) (employee.Employee, error)
	SetPhoto(ctx context.Context, id int64, filename string, r io.Reader) (employee.Employee, error)
	RemovePhoto(ctx context.Context, id int64) (employee.Employee, error)
	OpenPhoto(ctx context.Context, id int64) (*os.File, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type Handler struct {
	Service       Service
	Audit         AuditRecorder
	MaxPhotoBytes int64
	// CreateMiddleware wraps POST /employees only, e.g. idempotency replay.
	CreateMiddleware []func(http.Handler) http.Handler

	logger *zap.Logger
}

func NewHandler(service Service, auditor AuditRecorder, maxPhotoBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.L()
	}
	return &Handler{Service: service, Audit: auditor, MaxPhotoBytes: maxPhotoBytes, logger: logger.Named("employee.http")}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.With(h.CreateMiddleware...).Post("/", h.handleCreate)
		r.Get("/export.csv", h.handleExportCSV)
		r.Get("/export.xlsx", h.handleExportXLSX)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Get("/form", h.handleForm)
			r.Get("/profile.pdf", h.handleProfilePDF)
			r.Get("/photo", h.handleGetPhoto)
			r.Put("/photo", h.handleSetPhoto)
			r.Delete("/photo", h.handleRemovePhoto)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	rid := middleware.GetRequestID(r.Context())
	pagination := shared.ParsePagination(r, employee.DefaultPageLimit, employee.MaxPageLimit)
	page := employee.Page{Page: pagination.Page, Limit: pagination.Limit, Skip: pagination.Offset}

	resp, err := h.Service.List(r.Context(), filterFromQuery(r), page)
	if err != nil {
		h.fail(w, r, err, "employee_list_failed", "failed to list employees")
		return
	}
	page = page.Normalize()
	api.Page(w, resp, api.Meta{Page: page.Page, Limit: page.Limit, Total: resp.TotalCount}, rid)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var form employee.FormData
	if !h.decode(w, r, &form) {
		return
	}

	emp, err := h.Service.Create(r.Context(), form)
	if err != nil {
		h.fail(w, r, err, "employee_create_failed", "failed to create employee")
		return
	}
	h.record(r, audit.ActionEmployeeCreate, emp.ID, nil, emp)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "employee_get_failed", "failed to load employee")
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "employee_get_failed", "failed to load employee")
		return
	}
	api.Success(w, emp.ToFormData(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	var form employee.FormData
	if !h.decode(w, r, &form) {
		return
	}

	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "employee_update_failed", "failed to update employee")
		return
	}
	updated, err := h.Service.Update(r.Context(), id, form)
	if err != nil {
		h.fail(w, r, err, "employee_update_failed", "failed to update employee")
		return
	}
	h.record(r, audit.ActionEmployeeUpdate, id, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	removed, err := h.Service.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "employee_delete_failed", "failed to delete employee")
		return
	}
	h.record(r, audit.ActionEmployeeDelete, id, removed, nil)
	api.Success(w, map[string]any{"id": id, "deleted": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	employees, ok := h.exportRows(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", attachment("csv"))
	if err := export.WriteCSV(w, employees); err != nil {
		h.logger.Warn("employee csv export failed", zap.String("request_id", middleware.GetRequestID(r.Context())), zap.Error(err))
	}
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	employees, ok := h.exportRows(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment("xlsx"))
	if err := export.WriteXLSX(w, employees); err != nil {
		h.logger.Warn("employee xlsx export failed", zap.String("request_id", middleware.GetRequestID(r.Context())), zap.Error(err))
	}
}

func (h *Handler) exportRows(w http.ResponseWriter, r *http.Request) ([]employee.Employee, bool) {
	employees, err := h.Service.Export(r.Context(), filterFromQuery(r))
	if err != nil {
		h.fail(w, r, err, "employee_export_failed", "failed to export employees")
		return nil, false
	}
	return employees, true
}

func (h *Handler) handleProfilePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "employee_get_failed", "failed to load employee")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=employee-%d.pdf", emp.ID))
	if err := export.WriteProfilePDF(w, emp); err != nil {
		h.logger.Warn("employee profile pdf failed", zap.Int64("employee_id", id), zap.Error(err))
	}
}

func (h *Handler) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	file, err := h.Service.OpenPhoto(r.Context(), id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = employee.ErrNoPhoto
		}
		h.fail(w, r, err, "photo_get_failed", "failed to load photo")
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		h.fail(w, r, err, "photo_get_failed", "failed to load photo")
		return
	}
	w.Header().Set("Content-Type", storage.ContentType(info.Name()))
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

func (h *Handler) handleSetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	rid := middleware.GetRequestID(r.Context())
	if h.MaxPhotoBytes > 0 {
		// Multipart framing gets a little headroom over the image itself.
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxPhotoBytes+64*1024)
	}
	file, header, err := r.FormFile(photoField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "photo too large", rid)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "multipart field \"photo\" is required", rid)
		return
	}
	defer file.Close()

	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "photo_set_failed", "failed to store photo")
		return
	}
	updated, err := h.Service.SetPhoto(r.Context(), id, header.Filename, file)
	if err != nil {
		h.fail(w, r, err, "photo_set_failed", "failed to store photo")
		return
	}
	h.record(r, audit.ActionPhotoSet, id, photoState(before), photoState(updated))
	api.Success(w, updated, rid)
}

func (h *Handler) handleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "photo_remove_failed", "failed to remove photo")
		return
	}
	updated, err := h.Service.RemovePhoto(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "photo_remove_failed", "failed to remove photo")
		return
	}
	if before.PhotoPath != nil {
		h.record(r, audit.ActionPhotoRemove, id, photoState(before), photoState(updated))
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) employeeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil || id <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "employee id must be a positive integer", middleware.GetRequestID(r.Context()))
		return 0, false
	}
	return id, true
}

// decode rejects unknown fields, so id and timestamps cannot be supplied.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	rid := middleware.GetRequestID(r.Context())
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", rid)
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid json payload", rid)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	rid := middleware.GetRequestID(r.Context())
	var verr *employee.ValidationError
	switch {
	case errors.As(err, &verr):
		validationCode := "validation_error"
		if errors.Is(err, employee.ErrInvalidFilter) {
			validationCode = "invalid_filter"
		}
		shared.FailValidation(w, rid, validationCode, verr.Issues)
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", rid)
	case errors.Is(err, employee.ErrNoPhoto):
		api.Fail(w, http.StatusNotFound, "not_found", "employee has no photo", rid)
	case errors.Is(err, employee.ErrDuplicateESSID):
		api.Fail(w, http.StatusConflict, "essid_exists", "an employee with this essid already exists", rid)
	case errors.Is(err, storage.ErrUnsupportedType):
		api.Fail(w, http.StatusBadRequest, "unsupported_photo_type", "unsupported photo type", rid)
	case errors.Is(err, storage.ErrTooLarge):
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "photo too large", rid)
	default:
		h.logger.Error(message, zap.String("request_id", rid), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, code, message, rid)
	}
}

func (h *Handler) record(r *http.Request, action string, id int64, before, after any) {
	if h.Audit == nil {
		return
	}
	entry := audit.Entry{
		Action:     action,
		EntityType: audit.EntityEmployee,
		EntityID:   strconv.FormatInt(id, 10),
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
		Before:     before,
		After:      after,
	}
	if err := h.Audit.Record(r.Context(), entry); err != nil {
		h.logger.Warn("audit record failed", zap.String("action", action), zap.Int64("employee_id", id), zap.Error(err))
	}
}

func filterFromQuery(r *http.Request) employee.FilterOptions {
	q := r.URL.Query()
	return employee.FilterOptions{
		Query:            q.Get("query"),
		Post:             q.Get("post"),
		JobPost:          q.Get("jobPost"),
		ExitDate:         q.Get("exitDate"),
		JoiningDate:      q.Get("joiningDate"),
		EmploymentStatus: q.Get("employmentStatus"),
	}
}

func photoState(emp employee.Employee) map[string]any {
	return map[string]any{"photoPath": emp.PhotoPath}
}

func attachment(ext string) string {
	return fmt.Sprintf("attachment; filename=employees-%s.%s", time.Now().UTC().Format("20060102"), ext)
}
