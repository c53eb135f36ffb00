package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harborchat/harbor/internal/models"
	"github.com/harborchat/harbor/internal/testutil"
)

func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	testutil.AssertStatusCode(t, rr, status)
	testutil.AssertJSONContains(t, rr.Body.Bytes(), "error", message)
}

func authenticatedRequest(req *http.Request, user *models.SessionUser) *http.Request {
	return req.WithContext(ContextWithUser(req.Context(), user))
}

func testUser() *models.SessionUser {
	return &models.SessionUser{ID: testutil.RandomUUID(), Name: "tester"}
}
