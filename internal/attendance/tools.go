package attendance

import (
	"context"
	"fmt"
	"time"

	"school_portal/pkg"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
)

// LookupInput is the argument object shared by the attendance tools
type LookupInput struct {
	StudentID  string   `json:"student_id" jsonschema:"description=Student identifier used as the cache key"`
	Session    string   `json:"session" jsonschema:"description=Academic session label such as 2024-25"`
	ClassName  string   `json:"class_name" jsonschema:"description=Class name as stored by the school backend"`
	IDKeys     []string `json:"id_keys,omitempty" jsonschema:"description=Identifiers that belong to the student; defaults to student_id"`
	RollKeys   []string `json:"roll_keys,omitempty" jsonschema:"description=Roll numbers that belong to the student"`
	Mode       string   `json:"mode,omitempty" jsonschema:"description=full (default) or quick or cached"`
	MaxCacheMs *int64   `json:"max_cache_ms,omitempty" jsonschema:"description=Freshness window for cached data in milliseconds; 0 always refetches"`
}

// Request converts the tool arguments into a retrieval request
func (in LookupInput) Request() pkg.AttendanceRequest {
	idKeys := in.IDKeys
	if len(idKeys) == 0 && in.StudentID != "" {
		idKeys = []string{in.StudentID}
	}
	var maxAge time.Duration
	switch {
	case in.MaxCacheMs == nil:
	case *in.MaxCacheMs <= 0:
		maxAge = pkg.NoCacheFreshness
	default:
		maxAge = time.Duration(*in.MaxCacheMs) * time.Millisecond
	}
	return pkg.AttendanceRequest{
		StudentID:       in.StudentID,
		Session:         in.Session,
		ClassName:       in.ClassName,
		StudentIDKeys:   idKeys,
		StudentRollKeys: in.RollKeys,
		MaxCacheAge:     maxAge,
	}
}

// SummaryOutput is the date-keyed view returned by attendance_summary
type SummaryOutput struct {
	Source pkg.Source        `json:"source"`
	Days   map[string]string `json:"days"`
}

// Lookup dispatches on mode
func (s *Service) Lookup(ctx context.Context, in LookupInput) (pkg.Result, error) {
	req := in.Request()
	switch in.Mode {
	case "", FlowFull:
		return s.GetAttendanceData(ctx, req), nil
	case FlowQuick:
		return pkg.Result{Records: s.GetQuickAttendanceData(ctx, req), Source: pkg.SourceQuick}, nil
	case FlowCached:
		return s.GetCachedAttendanceData(ctx, req), nil
	default:
		return pkg.Result{}, fmt.Errorf("unknown mode %q", in.Mode)
	}
}

// LookupTool exposes Lookup as an eino tool
func (s *Service) LookupTool() (tool.InvokableTool, error) {
	return utils.InferTool("attendance_lookup", "Fetch a student's attendance records for a session and class",
		func(ctx context.Context, in LookupInput) (pkg.Result, error) {
			s.log.Debug().Str("tool", "attendance_lookup").Str("student_id", in.StudentID).Msg("tool invoked")
			return s.Lookup(ctx, in)
		})
}

// SummaryTool exposes the date-aggregated view as an eino tool
func (s *Service) SummaryTool() (tool.InvokableTool, error) {
	return utils.InferTool("attendance_summary", "Summarise a student's attendance as one status per date",
		func(ctx context.Context, in LookupInput) (SummaryOutput, error) {
			s.log.Debug().Str("tool", "attendance_summary").Str("student_id", in.StudentID).Msg("tool invoked")
			result, err := s.Lookup(ctx, in)
			if err != nil {
				return SummaryOutput{}, err
			}
			return SummaryOutput{Source: result.Source, Days: pkg.AggregateByDate(result.Records)}, nil
		})
}

// Tools returns every attendance tool
func (s *Service) Tools() ([]tool.InvokableTool, error) {
	builders := []func() (tool.InvokableTool, error){s.LookupTool, s.SummaryTool}

	tools := make([]tool.InvokableTool, 0, len(builders))
	for _, build := range builders {
		t, err := build()
		if err != nil {
			return nil, fmt.Errorf("failed to build tool: %w", err)
		}
		tools = append(tools, t)
	}
	return tools, nil
}
