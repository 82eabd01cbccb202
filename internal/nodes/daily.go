package nodes

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"school_portal/internal/core"
	"school_portal/internal/metrics"
	"school_portal/internal/services"
	"school_portal/internal/storage"
	"school_portal/pkg"
	"school_portal/src/logger"

	"github.com/rs/zerolog"
)

// DailyFallbackNode scans the most recent session months one day at a time. It always finishes
// the flow, with whatever it found.
type DailyFallbackNode struct {
	config core.RetrievalConfig
	api    services.AttendanceAPI
	cache  *storage.AttendanceCache
	now    func() time.Time
	log    zerolog.Logger
}

// NewDailyFallbackNode creates the per-day fallback
func NewDailyFallbackNode(config core.RetrievalConfig, api services.AttendanceAPI, cache *storage.AttendanceCache, now func() time.Time) *DailyFallbackNode {
	if now == nil {
		now = time.Now
	}
	return &DailyFallbackNode{
		config: config,
		api:    api,
		cache:  cache,
		now:    now,
		log:    logger.Component("daily_node"),
	}
}

// Execute runs the worker pool over the day list
func (n *DailyFallbackNode) Execute(ctx context.Context, state *core.State) (*core.State, error) {
	req := state.Request
	variants := core.SessionVariants(req.Session)
	months := core.LastMonths(core.MonthsForSession(req.Session, n.now()), n.config.FallbackMonths)
	days := core.DaysForMonths(months, n.config.SkipWeekdays)
	match := req.MatchKey()
	if match.Empty() {
		n.log.Debug().Str("request_id", state.RequestID).Msg("no keys to match, skipping day scan")
		days = nil
	}

	var (
		cursor  atomic.Int64
		mu      sync.Mutex
		records = make([]pkg.AttendanceRecord, 0)
		wg      sync.WaitGroup
	)

	workers := n.config.PoolSize(n.config.DailyConcurrency)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(days) {
					return
				}
				if record, ok := n.scanDay(ctx, state.RequestID, days[i], variants, req.ClassName, match); ok {
					mu.Lock()
					records = append(records, record)
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	metrics.DailyScanDays.Add(float64(len(days)))

	sort.SliceStable(records, func(i, j int) bool { return records[i].Date < records[j].Date })

	n.log.Debug().
		Str("request_id", state.RequestID).
		Int("days", len(days)).
		Int("workers", workers).
		Int("records", len(records)).
		Msg("daily fallback finished")

	if n.cache != nil {
		n.cache.Write(ctx, storage.KeyFor(req), records)
	}
	state.Finish(records, pkg.SourceDailyFallback)
	return state, nil
}

// scanDay tries each session variant for date and stops at the first one holding a matching row.
// The record is dated with the queried day.
func (n *DailyFallbackNode) scanDay(ctx context.Context, requestID, date string, variants []string, className string, match pkg.MatchKey) (pkg.AttendanceRecord, bool) {
	for _, variant := range variants {
		rows, err := n.api.ListDaily(ctx, variant, className, date)
		if err != nil {
			n.log.Debug().Err(err).Str("request_id", requestID).Str("session", variant).Str("date", date).Msg("daily list contributed nothing")
			continue
		}
		for _, row := range rows {
			if match.Matches(row) {
				record := row.Record()
				record.Date = date
				return record, true
			}
		}
	}
	return pkg.AttendanceRecord{}, false
}

// GetName returns the node name
func (n *DailyFallbackNode) GetName() string {
	return "daily_fallback"
}

// GetType returns the node type
func (n *DailyFallbackNode) GetType() core.NodeType {
	return core.NodeTypeDaily
}
