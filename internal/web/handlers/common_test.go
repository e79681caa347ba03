package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/photo-analyzer/internal/constants"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		data       any
		expected   string
	}{
		{"nil data", http.StatusOK, nil, ""},
		{"empty map", http.StatusCreated, map[string]string{}, "{}\n"},
		{"array", http.StatusOK, []string{"one", "two"}, "[\"one\",\"two\"]\n"},
		{"struct", http.StatusAccepted, JobAccepted{JobID: "j", JobType: "integration", Status: "STARTED"},
			"{\"job_id\":\"j\",\"job_type\":\"integration\",\"status\":\"STARTED\"}\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.statusCode, tc.data)

			assertStatusCode(t, recorder, tc.statusCode)
			assertContentType(t, recorder, "application/json")
			if recorder.Body.String() != tc.expected {
				t.Errorf("expected body %q, got %q", tc.expected, recorder.Body.String())
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		recorder := httptest.NewRecorder()
		respondError(recorder, code, "something went wrong")

		assertStatusCode(t, recorder, code)
		assertJSONError(t, recorder, "something went wrong")
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"images":[{"url":"http://x","name":"a"}]}`, ""},
		{"malformed", `{"images":`, errInvalidRequestBody},
		{"too large", `{"images":"` + strings.Repeat("a", constants.MaxRequestBodyBytes) + `"}`, "request body larger than"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst BlurRequest
			err := decodeJSON(httptest.NewRecorder(), req, &dst)

			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(dst.Images) != 1 || dst.Images[0].Name != "a" {
					t.Errorf("decoded %+v", dst)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestOrDefault(t *testing.T) {
	zero := 0.0
	if got := orDefault(&zero, 0.6); got != 0 {
		t.Errorf("explicit zero should be kept, got %v", got)
	}
	if got := orDefault[float64](nil, 0.6); got != 0.6 {
		t.Errorf("nil should use default, got %v", got)
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("job\r\nid"); got != "jobid" {
		t.Errorf("sanitizeForLog() = %q", got)
	}
}

func TestHealthCheck(t *testing.T) {
	recorder := httptest.NewRecorder()
	HealthCheck(recorder, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", result["status"])
	}
}

func TestRoot(t *testing.T) {
	recorder := httptest.NewRecorder()
	Root(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	if recorder.Body.String() != "OK" {
		t.Errorf("expected body OK, got %q", recorder.Body.String())
	}
}
