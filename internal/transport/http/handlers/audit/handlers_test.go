package audithandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hrrecords/internal/domain/audit"
)

type fakeAudit struct {
	filter  audit.Filter
	limit   int
	offset  int
	details bool
	events  []audit.Event
}

func (f *fakeAudit) Count(_ context.Context, filter audit.Filter) (int64, error) {
	return int64(len(f.events)), nil
}

func (f *fakeAudit) List(_ context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error) {
	f.filter, f.details, f.limit, f.offset = filter, includeDetails, limit, offset
	return f.events, nil
}

func (f *fakeAudit) ListExport(_ context.Context, filter audit.Filter) ([]audit.Event, error) {
	f.filter = filter
	return f.events, nil
}

func newRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r)
	return r
}

func TestListEvents(t *testing.T) {
	svc := &fakeAudit{events: []audit.Event{{ID: 1, Action: audit.ActionEmployeeCreate, EntityType: audit.EntityEmployee, EntityID: "4"}}}

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events?entityType=employee&entityId=4&limit=20&page=2&includeDetails=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, audit.Filter{EntityType: "employee", EntityID: "4"}, svc.filter)
	assert.Equal(t, 20, svc.limit)
	assert.Equal(t, 20, svc.offset)
	assert.True(t, svc.details)
}

func TestExportEventsCSV(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	svc := &fakeAudit{events: []audit.Event{{ID: 7, Action: audit.ActionBackupRun, EntityType: audit.EntityBackup, EntityID: "b.json.br", CreatedAt: at}}}

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events/export?action=backup.run", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,action,entity_type,entity_id,request_id,ip,created_at", lines[0])
	assert.Equal(t, "7,backup.run,backup,b.json.br,,,2025-03-01T09:30:00Z", lines[1])
	assert.Equal(t, "backup.run", svc.filter.Action)
}
