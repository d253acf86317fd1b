package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type memoryIdempotency struct {
	entries map[string]struct {
		hash string
		resp storedResponse
	}
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{entries: map[string]struct {
		hash string
		resp storedResponse
	}{}}
}

func (m *memoryIdempotency) Check(_ context.Context, endpoint, key, hash string) (storedResponse, bool, error) {
	entry, ok := m.entries[endpoint+"|"+key]
	if !ok {
		return storedResponse{}, false, nil
	}
	if entry.hash != hash {
		return storedResponse{}, false, ErrIdempotencyConflict
	}
	return entry.resp, true, nil
}

func (m *memoryIdempotency) Save(_ context.Context, endpoint, key, hash string, resp storedResponse) error {
	m.entries[endpoint+"|"+key] = struct {
		hash string
		resp storedResponse
	}{hash: hash, resp: resp}
	return nil
}

func TestRequestHashDeterministic(t *testing.T) {
	hash1 := RequestHash([]byte("payload"))
	hash2 := RequestHash([]byte("payload"))
	hash3 := RequestHash([]byte("other"))

	if hash1 != hash2 {
		t.Fatal("expected deterministic hash")
	}
	if hash1 == hash3 {
		t.Fatal("expected different hash for different payload")
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryIdempotency(), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/employees", strings.NewReader(`{"name":"Asha"}`))
		req.Header.Set(IdempotencyKeyHeader, "create-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i, rec.Code)
		}
		if rec.Body.String() != `{"success":true}` {
			t.Fatalf("request %d: unexpected body %q", i, rec.Body.String())
		}
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotencyRejectsDifferentPayload(t *testing.T) {
	handler := Idempotency(newMemoryIdempotency(), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/v1/employees", strings.NewReader(`{"name":"Asha"}`))
	first.Header.Set(IdempotencyKeyHeader, "create-1")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/employees", strings.NewReader(`{"name":"Ravi"}`))
	second.Header.Set(IdempotencyKeyHeader, "create-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestIdempotencySkipsFailedResponses(t *testing.T) {
	store := newMemoryIdempotency()
	handler := Idempotency(store, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/employees", strings.NewReader(`{}`))
	req.Header.Set(IdempotencyKeyHeader, "create-2")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if len(store.entries) != 0 {
		t.Fatalf("expected no stored entries, got %d", len(store.entries))
	}
}
