package attendance

import (
	"context"
	"fmt"
	"time"

	"school_portal/internal/core"
	"school_portal/internal/metrics"
	"school_portal/internal/nodes"
	"school_portal/internal/services"
	"school_portal/internal/storage"
	"school_portal/pkg"
	"school_portal/src/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	FlowFull   = "full"
	FlowQuick  = "quick"
	FlowCached = "cached"
)

// Service is the public entry point for attendance retrieval
type Service struct {
	processor   *core.GraphProcessor
	maxCacheAge time.Duration
	log         zerolog.Logger
}

// NewService registers the retrieval nodes and compiles the three flows. A nil now uses
// time.Now.
func NewService(ctx context.Context, api services.AttendanceAPI, cache *storage.AttendanceCache, config core.RetrievalConfig, now func() time.Time) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("attendance api cannot be nil")
	}
	if cache == nil {
		return nil, fmt.Errorf("attendance cache cannot be nil")
	}

	processor := core.NewGraphProcessor()
	registered := []core.Node{
		nodes.NewCacheNode(cache),
		nodes.NewCachedOnlyNode(cache),
		nodes.NewMonthlyNode(nodes.MonthlyConfig{Persist: true}, api, cache, now),
		nodes.NewMonthlyNode(nodes.MonthlyConfig{
			Name:         "quick",
			RecentMonths: config.QuickMonths,
			Terminal:     true,
			Source:       pkg.SourceQuick,
		}, api, nil, now),
		nodes.NewDailyFallbackNode(config, api, cache, now),
	}
	for _, node := range registered {
		if err := processor.AddNode(node); err != nil {
			return nil, fmt.Errorf("failed to add node: %w", err)
		}
	}

	flows := []core.GraphFlow{
		{Name: FlowFull, Nodes: []string{"cache", "monthly", "daily_fallback"}},
		{Name: FlowQuick, Nodes: []string{"quick"}},
		{Name: FlowCached, Nodes: []string{"cache_only"}},
	}
	for _, flow := range flows {
		if err := processor.SetFlow(ctx, flow); err != nil {
			return nil, err
		}
	}

	return &Service{
		processor:   processor,
		maxCacheAge: config.MaxCacheAge,
		log:         logger.Component("attendance_service"),
	}, nil
}

// GetAttendanceData returns fresh cache, else monthly lists, else the per-day scan.
func (s *Service) GetAttendanceData(ctx context.Context, req pkg.AttendanceRequest) pkg.Result {
	return s.run(ctx, FlowFull, req)
}

// GetQuickAttendanceData returns the matches of the two most recent months without touching the
// cache.
func (s *Service) GetQuickAttendanceData(ctx context.Context, req pkg.AttendanceRequest) []pkg.AttendanceRecord {
	return s.run(ctx, FlowQuick, req).Records
}

// GetCachedAttendanceData never touches the network.
func (s *Service) GetCachedAttendanceData(ctx context.Context, req pkg.AttendanceRequest) pkg.Result {
	return s.run(ctx, FlowCached, req)
}

func (s *Service) run(ctx context.Context, flow string, req pkg.AttendanceRequest) pkg.Result {
	if req.MaxCacheAge == 0 {
		req.MaxCacheAge = s.maxCacheAge
	}
	state := &core.State{
		RequestID: requestID(ctx),
		Request:   req,
	}

	out, err := s.processor.Execute(ctx, flow, state)
	if err != nil {
		s.log.Warn().Err(err).Str("request_id", state.RequestID).Str("flow", flow).Msg("retrieval failed")
		out = state
	}

	result := out.Result()
	metrics.RetrievalsTotal.WithLabelValues(string(result.Source)).Inc()
	s.log.Debug().
		Str("request_id", state.RequestID).
		Str("flow", flow).
		Str("student_id", req.StudentID).
		Str("source", string(result.Source)).
		Int("records", len(result.Records)).
		Msg("retrieval finished")
	return result
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id that retrievals started with ctx will log.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
