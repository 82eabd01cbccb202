package attendance

import (
	"context"
	"testing"
	"time"

	"school_portal/pkg"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTools(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	tools, err := h.service.Tools()
	require.NoError(t, err)
	require.Len(t, tools, 2)

	names := make([]string, 0, len(tools))
	for _, tl := range tools {
		info, err := tl.Info(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, info.Desc)
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"attendance_lookup", "attendance_summary"}, names)
}

func TestLookupToolRun(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.api.monthlyRows = map[string][]pkg.AttendanceRow{
		"2024-25|2025-03": {row("s1", "", "2025-03-03", "P"), row("s1", "", "2025-03-03", "A")},
	}

	lookup, err := h.service.LookupTool()
	require.NoError(t, err)

	out, err := lookup.InvokableRun(ctx, `{"student_id":"s1","session":"2024-25","class_name":"10A","mode":"quick"}`)
	require.NoError(t, err)

	var result pkg.Result
	require.NoError(t, sonic.UnmarshalString(out, &result))
	assert.Equal(t, pkg.SourceQuick, result.Source)
	assert.Len(t, result.Records, 2)

	_, err = lookup.InvokableRun(ctx, `{"student_id":"s1","session":"2024-25","class_name":"10A","mode":"bogus"}`)
	assert.Error(t, err)
}

func TestSummaryToolRun(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.api.monthlyRows = map[string][]pkg.AttendanceRow{
		"2024-25|2025-03": {row("s1", "", "2025-03-03", "P"), row("s1", "", "2025-03-03", "A")},
	}

	summary, err := h.service.SummaryTool()
	require.NoError(t, err)

	out, err := summary.InvokableRun(ctx, `{"student_id":"s1","session":"2024-25","class_name":"10A"}`)
	require.NoError(t, err)

	var got SummaryOutput
	require.NoError(t, sonic.UnmarshalString(out, &got))
	assert.Equal(t, pkg.SourceMonthly, got.Source)
	assert.Equal(t, map[string]string{"2025-03-03": "P"}, got.Days)
}

func TestLookupInputRequest(t *testing.T) {
	ms := int64(1500)
	req := LookupInput{StudentID: "s1", Session: "2024-25", ClassName: "10A", MaxCacheMs: &ms}.Request()
	assert.Equal(t, []string{"s1"}, req.StudentIDKeys)
	assert.Equal(t, 1500*time.Millisecond, req.MaxCacheAge)

	ms = 0
	assert.Equal(t, pkg.NoCacheFreshness, LookupInput{StudentID: "s1", MaxCacheMs: &ms}.Request().MaxCacheAge)
	assert.Zero(t, LookupInput{StudentID: "s1"}.Request().MaxCacheAge)

	req = LookupInput{StudentID: "s1", IDKeys: []string{"a", "b"}}.Request()
	assert.Equal(t, []string{"a", "b"}, req.StudentIDKeys)
}
