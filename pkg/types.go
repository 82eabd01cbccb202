package pkg

import (
	"strconv"
	"time"

	"github.com/bytedance/sonic"
)

// Attendance core types shared by the retrieval pipeline and the HTTP facade

// DefaultStatus is used when upstream omits a row's status.
const DefaultStatus = "-"

// DefaultMaxCacheAge is how long a cached snapshot counts as fresh.
const DefaultMaxCacheAge = 10 * time.Minute

// NoCacheFreshness as a MaxCacheAge makes every cached snapshot stale.
const NoCacheFreshness = -time.Millisecond

// AttendanceRecord is one day of attendance for one student
type AttendanceRecord struct {
	Date   string `json:"date"`   // YYYY-MM-DD
	Status string `json:"status"` // upstream code, "-" when absent
}

// AttendanceRow is a single row of the upstream list endpoints
type AttendanceRow struct {
	StudentID   RawID  `json:"student_id"`
	StudentRoll RawID  `json:"student_roll"`
	Date        string `json:"date"`
	Status      string `json:"status"`
}

// Record projects a row onto the date/status pair kept in the cache.
func (r AttendanceRow) Record() AttendanceRecord {
	status := r.Status
	if status == "" {
		status = DefaultStatus
	}
	return AttendanceRecord{Date: r.Date, Status: status}
}

// UnmarshalJSON accepts any scalar for date and status. Values that carry no text
// (null, false, 0, objects) decode as empty, so Record falls back to DefaultStatus.
func (r *AttendanceRow) UnmarshalJSON(data []byte) error {
	var wire struct {
		StudentID   RawID `json:"student_id"`
		StudentRoll RawID `json:"student_roll"`
		Date        any   `json:"date"`
		Status      any   `json:"status"`
	}
	if err := sonic.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = AttendanceRow{
		StudentID:   wire.StudentID,
		StudentRoll: wire.StudentRoll,
		Date:        looseText(wire.Date),
		Status:      looseText(wire.Status),
	}
	return nil
}

func looseText(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "true"
		}
	}
	return ""
}

// RawRow holds one undecoded element of the attendance array
type RawRow []byte

// UnmarshalJSON keeps a copy of the element.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// ListResponse is the envelope returned by both upstream list endpoints
type ListResponse struct {
	Success    bool     `json:"success"`
	Attendance []RawRow `json:"attendance"`
}

// Rows decodes every element on its own and skips the ones that are not row objects,
// reporting how many were skipped.
func (l ListResponse) Rows() ([]AttendanceRow, int) {
	rows := make([]AttendanceRow, 0, len(l.Attendance))
	dropped := 0
	for _, raw := range l.Attendance {
		var row AttendanceRow
		if err := sonic.Unmarshal(raw, &row); err != nil {
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped
}

// Source tags where a result came from
type Source string

const (
	SourceCache         Source = "cache"
	SourceCacheStale    Source = "cache_stale"
	SourceNone          Source = "none"
	SourceMonthly       Source = "monthly"
	SourceDailyFallback Source = "daily_fallback"
	SourceQuick         Source = "quick"
)

// Result is the outcome of one retrieval
type Result struct {
	Records []AttendanceRecord `json:"records"`
	Source  Source             `json:"source"`
}

// AttendanceRequest identifies whose attendance to fetch and how to recognise their rows
type AttendanceRequest struct {
	StudentID       string        `json:"student_id"`
	Session         string        `json:"session"`
	ClassName       string        `json:"class_name"`
	StudentIDKeys   []string      `json:"student_id_keys,omitempty"`
	StudentRollKeys []string      `json:"student_roll_keys,omitempty"`
	MaxCacheAge     time.Duration `json:"max_cache_age,omitempty"` // zero means DefaultMaxCacheAge, negative means never fresh
}

// MatchKey builds the row filter for this request.
func (r AttendanceRequest) MatchKey() MatchKey {
	return NewMatchKey(r.StudentIDKeys, r.StudentRollKeys)
}

// CacheMaxAge returns the freshness window, falling back to the default when unset.
func (r AttendanceRequest) CacheMaxAge() time.Duration {
	if r.MaxCacheAge == 0 {
		return DefaultMaxCacheAge
	}
	return r.MaxCacheAge
}
