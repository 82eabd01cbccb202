package core

import (
	"context"
	"time"

	"school_portal/pkg"
)

// Node is one stage of a retrieval flow
type Node interface {
	Execute(ctx context.Context, state *State) (*State, error)
	GetName() string
	GetType() NodeType
}

// NodeType defines the kinds of retrieval stages
type NodeType string

const (
	NodeTypeCache   NodeType = "cache"
	NodeTypeMonthly NodeType = "monthly"
	NodeTypeDaily   NodeType = "daily"
)

// State travels through the nodes of a flow. Once Complete is set the remaining nodes pass it on
// untouched.
type State struct {
	RequestID     string                 `json:"request_id"`
	Request       pkg.AttendanceRequest  `json:"request"`
	Records       []pkg.AttendanceRecord `json:"records"`
	Source        pkg.Source             `json:"source"`
	Complete      bool                   `json:"complete"`
	ExecutionPath []string               `json:"execution_path"`
}

// Finish records the outcome and stops the flow
func (s *State) Finish(records []pkg.AttendanceRecord, source pkg.Source) {
	if records == nil {
		records = []pkg.AttendanceRecord{}
	}
	s.Records = records
	s.Source = source
	s.Complete = true
}

// Result is the public view of a finished state
func (s *State) Result() pkg.Result {
	records := s.Records
	if records == nil {
		records = []pkg.AttendanceRecord{}
	}
	source := s.Source
	if source == "" {
		source = pkg.SourceNone
	}
	return pkg.Result{Records: records, Source: source}
}

// GraphFlow is a named, ordered chain of nodes
type GraphFlow struct {
	Name  string   `json:"name"`
	Nodes []string `json:"nodes"`
}

// RetrievalConfig tunes the network-facing stages
type RetrievalConfig struct {
	DailyConcurrency   int            `json:"daily_concurrency"`   // worker count requested by the full flow
	DefaultConcurrency int            `json:"default_concurrency"` // used when nothing is requested
	MinConcurrency     int            `json:"min_concurrency"`
	MaxConcurrency     int            `json:"max_concurrency"`
	QuickMonths        int            `json:"quick_months"`
	FallbackMonths     int            `json:"fallback_months"`
	SkipWeekdays       []time.Weekday `json:"skip_weekdays"`
	MaxCacheAge        time.Duration  `json:"max_cache_age"` // applied to requests without their own; zero keeps pkg.DefaultMaxCacheAge
}

// DefaultRetrievalConfig returns the stock tuning
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		DailyConcurrency:   28,
		DefaultConcurrency: 24,
		MinConcurrency:     8,
		MaxConcurrency:     40,
		QuickMonths:        2,
		FallbackMonths:     4,
		SkipWeekdays:       []time.Weekday{time.Sunday},
	}
}

// PoolSize clamps a requested worker count into [MinConcurrency, MaxConcurrency].
func (c RetrievalConfig) PoolSize(requested int) int {
	if requested <= 0 {
		requested = c.DefaultConcurrency
	}
	return max(c.MinConcurrency, min(c.MaxConcurrency, requested))
}
