package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name   string
		status int
		data   any
		body   string
	}{
		{"object", http.StatusOK, map[string]int{"count": 2}, "{\"count\":2}\n"},
		{"array", http.StatusCreated, []string{"a"}, "[\"a\"]\n"},
		{"nil data", http.StatusNoContent, nil, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.status, tc.data)

			if recorder.Code != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, recorder.Code)
			}
			if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type 'application/json', got '%s'", ct)
			}
			if recorder.Body.String() != tc.body {
				t.Errorf("expected body %q, got %q", tc.body, recorder.Body.String())
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondError(recorder, http.StatusBadRequest, "something went wrong")

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["error"] != "something went wrong" {
		t.Errorf("expected error message, got '%s'", result["error"])
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("abc\r\nforged entry"); got != "abcforged entry" {
		t.Errorf("sanitizeForLog = %q", got)
	}
}

func TestHealthCheck(t *testing.T) {
	recorder := httptest.NewRecorder()
	HealthCheck(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result["status"])
	}
}

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Health(ctx context.Context) error { return f(ctx) }

func TestReadiness(t *testing.T) {
	tests := []struct {
		name    string
		checker HealthChecker
		want    int
	}{
		{"no checker", nil, http.StatusOK},
		{"healthy", checkerFunc(func(context.Context) error { return nil }), http.StatusOK},
		{"unhealthy", checkerFunc(func(context.Context) error { return errors.New("connection refused") }), http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			NewReadinessHandler(tc.checker).Ready(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))

			if recorder.Code != tc.want {
				t.Errorf("expected status %d, got %d", tc.want, recorder.Code)
			}
		})
	}
}
