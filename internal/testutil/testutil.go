// Package testutil holds small helpers shared by handler and service tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func NewTestRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

func NewTestRequestWithJSON(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshaling request payload: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func ParseJSONResponse(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("parsing JSON response: %v", err)
	}
	return parsed
}

func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Fatalf("expected status %d, got %d (body: %s)", expected, rr.Code, rr.Body.String())
	}
}

func AssertJSONContains(t *testing.T, body []byte, key string, expected interface{}) {
	t.Helper()
	parsed := ParseJSONResponse(t, body)
	got, ok := parsed[key]
	if !ok {
		t.Fatalf("expected key %q in response %s", key, body)
	}
	if got != expected {
		t.Fatalf("expected %q=%v, got %v", key, expected, got)
	}
}

func RandomUUID() uuid.UUID {
	return uuid.New()
}
