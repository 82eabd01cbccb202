package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"school_portal/internal/attendance"
	"school_portal/internal/core"
	"school_portal/internal/portal"
	"school_portal/internal/storage"
	"school_portal/pkg"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu           sync.Mutex
	monthly      map[string][]pkg.AttendanceRow // keyed by session|month
	monthlyCalls int
}

func (f *fakeAPI) ListMonthly(ctx context.Context, session, className, month string) ([]pkg.AttendanceRow, error) {
	f.mu.Lock()
	f.monthlyCalls++
	defer f.mu.Unlock()
	return f.monthly[session+"|"+month], nil
}

func (f *fakeAPI) ListDaily(ctx context.Context, session, className, date string) ([]pkg.AttendanceRow, error) {
	return []pkg.AttendanceRow{}, nil
}

type envelope struct {
	Code    int               `json:"code"`
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    any               `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, _ := newTestServerWithAPI(t)
	return s
}

func newTestServerWithAPI(t *testing.T) (*Server, *fakeAPI) {
	t.Helper()
	ctx := context.Background()
	now := func() time.Time { return time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC) }

	api := &fakeAPI{monthly: map[string][]pkg.AttendanceRow{
		"2024-25|2025-03": {
			{StudentID: pkg.WrappedID("$oid", "s1"), Date: "2025-03-03", Status: "P"},
			{StudentID: pkg.PlainID("s2"), StudentRoll: pkg.PlainID("12"), Date: "2025-03-04", Status: "A"},
			{StudentID: pkg.PlainID("s1"), Date: "2025-03-03", Status: "L"},
		},
	}}
	cache := storage.NewAttendanceCache(storage.NewMemoryStorage(0), now)
	service, err := attendance.NewService(ctx, api, cache, core.DefaultRetrievalConfig(), now)
	require.NoError(t, err)

	s, err := New(ctx, service, portal.NewRegistry(nil))
	require.NoError(t, err)
	return s, api
}

func do(t *testing.T, s *Server, req *http.Request) (*http.Response, envelope) {
	t.Helper()
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, sonic.Unmarshal(body, &env), string(body))
	}
	return resp, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "req-42")
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-42", resp.Header.Get(headerRequestID))
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetAttendance(t *testing.T) {
	s := newTestServer(t)
	resp, env := do(t, s, httptest.NewRequest(http.MethodGet, "/api/attendance?student_id=s1&session=2024-25&class_name=10A&roll_keys=12", nil))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", env.Status)
	data := env.Data.(map[string]any)
	assert.Equal(t, "monthly", data["source"])
	assert.Len(t, data["records"], 3)

	_, env = do(t, s, httptest.NewRequest(http.MethodGet, "/api/attendance/cached?student_id=s1&session=2024-25&class_name=10A", nil))
	assert.Equal(t, "cache", env.Data.(map[string]any)["source"])
}

func TestGetAttendanceZeroMaxCacheRefetches(t *testing.T) {
	s, api := newTestServerWithAPI(t)
	const target = "/api/attendance?student_id=s1&session=2024-25&class_name=10A"

	_, env := do(t, s, httptest.NewRequest(http.MethodGet, target, nil))
	assert.Equal(t, "monthly", env.Data.(map[string]any)["source"])
	calls := api.monthlyCalls

	_, env = do(t, s, httptest.NewRequest(http.MethodGet, target+"&max_cache_ms=60000", nil))
	assert.Equal(t, "cache", env.Data.(map[string]any)["source"])

	_, env = do(t, s, httptest.NewRequest(http.MethodGet, target+"&max_cache_ms=0", nil))
	assert.Equal(t, "monthly", env.Data.(map[string]any)["source"])
	assert.Equal(t, 2*calls, api.monthlyCalls)

	resp, env := do(t, s, httptest.NewRequest(http.MethodGet, target+"&max_cache_ms=-5", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Errors, "max_cache_ms")
}

func TestGetAttendanceQuick(t *testing.T) {
	s := newTestServer(t)
	_, env := do(t, s, httptest.NewRequest(http.MethodGet, "/api/attendance/quick?student_id=s1&session=2024-25&class_name=10A", nil))

	data := env.Data.(map[string]any)
	assert.Equal(t, "quick", data["source"])
	assert.Len(t, data["records"], 2)

	_, env = do(t, s, httptest.NewRequest(http.MethodGet, "/api/attendance/cached?student_id=s1&session=2024-25&class_name=10A", nil))
	assert.Equal(t, "none", env.Data.(map[string]any)["source"])
}

func TestGetAttendanceSummary(t *testing.T) {
	s := newTestServer(t)
	_, env := do(t, s, httptest.NewRequest(http.MethodGet, "/api/attendance/summary?student_id=s1&session=2024-25&class_name=10A", nil))

	data := env.Data.(map[string]any)
	assert.Equal(t, "monthly", data["source"])
	assert.Equal(t, map[string]any{"2025-03-03": "P"}, data["days"])
}

func TestGetAttendanceValidation(t *testing.T) {
	s := newTestServer(t)
	resp, env := do(t, s, httptest.NewRequest(http.MethodGet, "/api/attendance?student_id=s1", nil))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, map[string]string{"session": "required", "class_name": "required"}, env.Errors)
}

func TestNormalizeID(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		body     string
		expected string
	}{
		{body: `{"id":{"$oid":" abc "}}`, expected: "abc"},
		{body: `{"id":"  x1 "}`, expected: "x1"},
		{body: `{"id":null}`, expected: ""},
		{body: `{"id":42}`, expected: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/ids/normalize", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, env := do(t, s, req)

			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.expected, env.Data.(map[string]any)["id"])
		})
	}
}

func TestMenu(t *testing.T) {
	s := newTestServer(t)
	_, env := do(t, s, httptest.NewRequest(http.MethodGet, "/api/menu/teacher?page=teacher_leave.html", nil))

	data := env.Data.(map[string]any)
	assert.Equal(t, "Teacher Menu", data["title"])
	items := data["items"].([]any)
	require.Len(t, items, 9)
	last := items[8].(map[string]any)
	assert.Equal(t, "teacher_leave.html", last["href"])
	assert.Equal(t, true, last["active"])

	resp, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/api/menu/janitor", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTools(t *testing.T) {
	s := newTestServer(t)
	_, env := do(t, s, httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	require.Len(t, env.Data, 2)

	req := httptest.NewRequest(http.MethodPost, "/api/tools/attendance_summary",
		strings.NewReader(`{"student_id":"s1","session":"2024-25","class_name":"10A"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, env := do(t, s, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"2025-03-03": "P"}, env.Data.(map[string]any)["days"])

	resp, _ = do(t, s, httptest.NewRequest(http.MethodPost, "/api/tools/unknown", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
