package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zlagoda/zlagoda-backend/pkg/httputil"
)

// NewHTTPRequest builds a handler request with body encoded as JSON
func NewHTTPRequest(method, path string, body interface{}) *http.Request {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// WithUserHeaders makes req look as if the gateway authenticated employee id
func WithUserHeaders(req *http.Request, employeeID, role string) *http.Request {
	if employeeID != "" {
		req.Header.Set(httputil.HeaderUserID, employeeID)
	}
	if role != "" {
		req.Header.Set(httputil.HeaderUserRole, role)
	}
	return req
}

func ExecuteRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code. Body: %s", rr.Body.String())
}

// AssertErrorCode checks status and the code of the error envelope, and
// returns the envelope for further checks on its details.
func AssertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) httputil.Response {
	t.Helper()
	AssertStatus(t, rr, status)

	var resp httputil.Response
	ParseJSONBody(t, rr, &resp)
	require.NotNil(t, resp.Error, "expected an error envelope")
	assert.False(t, resp.Success)
	assert.Equal(t, code, resp.Error.Code)
	return resp
}

func ParseJSONBody(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	err := json.Unmarshal(rr.Body.Bytes(), target)
	require.NoError(t, err, "failed to parse response body: %s", rr.Body.String())
}

// Date returns midnight UTC of the given day, the form DATE columns scan into.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Ptr returns a pointer to v, for nullable columns and optional filters.
func Ptr[T any](v T) *T {
	return &v
}
