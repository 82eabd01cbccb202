package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"school_portal/internal/metrics"
	"school_portal/pkg"

	"github.com/bytedance/sonic"
)

const (
	endpointMonthly = "list-monthly"
	endpointDaily   = "list"
)

// ErrUnsuccessful is returned when upstream answers with success=false
var ErrUnsuccessful = errors.New("attendance api reported failure")

// AttendanceAPI lists attendance rows for a whole class
type AttendanceAPI interface {
	ListMonthly(ctx context.Context, session, className, month string) ([]pkg.AttendanceRow, error)
	ListDaily(ctx context.Context, session, className, date string) ([]pkg.AttendanceRow, error)
}

// AttendanceService talks to the school backend over HTTP
type AttendanceService struct {
	baseURL string
	client  *http.Client
}

// NewAttendanceService creates a client with its own timeout
func NewAttendanceService(baseURL string, timeout time.Duration) *AttendanceService {
	return NewAttendanceServiceWithClient(baseURL, &http.Client{Timeout: timeout})
}

// NewAttendanceServiceWithClient uses the given HTTP client
func NewAttendanceServiceWithClient(baseURL string, client *http.Client) *AttendanceService {
	return &AttendanceService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// ListMonthly fetches GET {api}/attendance/list-monthly for one month (YYYY-MM)
func (s *AttendanceService) ListMonthly(ctx context.Context, session, className, month string) ([]pkg.AttendanceRow, error) {
	return s.list(ctx, endpointMonthly, url.Values{
		"session":    {session},
		"class_name": {className},
		"month":      {month},
	})
}

// ListDaily fetches GET {api}/attendance/list for one day (YYYY-MM-DD)
func (s *AttendanceService) ListDaily(ctx context.Context, session, className, date string) ([]pkg.AttendanceRow, error) {
	return s.list(ctx, endpointDaily, url.Values{
		"session":    {session},
		"class_name": {className},
		"date":       {date},
	})
}

func (s *AttendanceService) list(ctx context.Context, endpoint string, query url.Values) ([]pkg.AttendanceRow, error) {
	rows, err := s.fetch(ctx, endpoint, query)
	switch {
	case err == nil:
		metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	case errors.Is(err, ErrUnsuccessful):
		metrics.UpstreamRequests.WithLabelValues(endpoint, "unsuccessful").Inc()
	default:
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
	}
	return rows, err
}

func (s *AttendanceService) fetch(ctx context.Context, endpoint string, query url.Values) ([]pkg.AttendanceRow, error) {
	target := fmt.Sprintf("%s/attendance/%s?%s", s.baseURL, endpoint, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	// a non-2xx body is never read for success
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}

	var out pkg.ListResponse
	if err := sonic.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("%s: %w", endpoint, ErrUnsuccessful)
	}
	rows, dropped := out.Rows()
	if dropped > 0 {
		metrics.UpstreamRowsDropped.WithLabelValues(endpoint).Add(float64(dropped))
	}
	return rows, nil
}
