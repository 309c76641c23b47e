/*-------------------------------------------------------------------------
 *
 * router_test.go
 *    HTTP routing and middleware tests
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/api/router_test.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(NewHandlers(nil, nil), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthy backend: status = %d, want 200", rec.Code)
	}

	failing := NewRouter(NewHandlers(nil, nil), func(r *http.Request) error {
		return fmt.Errorf("db down")
	})
	rec = httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("failing backend: status = %d, want 503", rec.Code)
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	router := NewRouter(NewHandlers(nil, nil), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "test-request-42")
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-request-42" {
		t.Errorf("X-Request-ID = %q, want the caller's id echoed back", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Errorf("a request without an id should be assigned one")
	}
}

func TestInvalidStageInPathRejected(t *testing.T) {
	router := NewRouter(NewHandlers(nil, nil), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/review/warehouse_manager/action",
		strings.NewReader(`{}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown stage: status = %d, want 400", rec.Code)
	}
}

func TestStageItemsRequiresUUIDParams(t *testing.T) {
	router := NewRouter(NewHandlers(nil, nil), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/review/app_manager/items?cycle_id=nope&user_id=nope", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed cycle_id: status = %d, want 400", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("preflight must be answered by the middleware")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/api/v1/review/cycles", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
