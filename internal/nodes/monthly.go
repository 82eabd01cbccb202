package nodes

import (
	"context"
	"sync"
	"time"

	"school_portal/internal/core"
	"school_portal/internal/services"
	"school_portal/internal/storage"
	"school_portal/pkg"
	"school_portal/src/logger"

	"github.com/rs/zerolog"
)

// MonthlyConfig shapes a MonthlyNode
type MonthlyConfig struct {
	Name         string
	RecentMonths int        // only the last N session months; 0 means all twelve
	Persist      bool       // write matches to the cache
	Terminal     bool       // finish the flow even when nothing matched
	Source       pkg.Source // tag for finished results
}

// MonthlyNode fetches the class's monthly lists for every session variant and keeps the rows
// belonging to the requested student.
type MonthlyNode struct {
	config MonthlyConfig
	api    services.AttendanceAPI
	cache  *storage.AttendanceCache
	now    func() time.Time
	log    zerolog.Logger
}

// NewMonthlyNode creates a monthly node. cache may be nil when Persist is false.
func NewMonthlyNode(config MonthlyConfig, api services.AttendanceAPI, cache *storage.AttendanceCache, now func() time.Time) *MonthlyNode {
	if config.Name == "" {
		config.Name = "monthly"
	}
	if config.Source == "" {
		config.Source = pkg.SourceMonthly
	}
	if now == nil {
		now = time.Now
	}
	return &MonthlyNode{
		config: config,
		api:    api,
		cache:  cache,
		now:    now,
		log:    logger.Component("monthly_node"),
	}
}

// Execute issues one request per (variant, month) pair and joins them all
func (n *MonthlyNode) Execute(ctx context.Context, state *core.State) (*core.State, error) {
	req := state.Request
	variants := core.SessionVariants(req.Session)
	months := core.MonthsForSession(req.Session, n.now())
	if n.config.RecentMonths > 0 {
		months = core.LastMonths(months, n.config.RecentMonths)
	}
	match := req.MatchKey()
	if match.Empty() {
		n.log.Debug().Str("request_id", state.RequestID).Msg("no keys to match, skipping monthly fetch")
		variants = nil
	}

	// one slot per request keeps the flattened order stable
	slots := make([][]pkg.AttendanceRow, len(variants)*len(months))
	var wg sync.WaitGroup
	for i, variant := range variants {
		for j, month := range months {
			wg.Add(1)
			go func(slot int, variant, month string) {
				defer wg.Done()
				rows, err := n.api.ListMonthly(ctx, variant, req.ClassName, month)
				if err != nil {
					n.log.Debug().Err(err).
						Str("request_id", state.RequestID).
						Str("session", variant).
						Str("month", month).
						Msg("monthly list contributed nothing")
					return
				}
				slots[slot] = rows
			}(i*len(months)+j, variant, month)
		}
	}
	wg.Wait()

	records := make([]pkg.AttendanceRecord, 0)
	for _, rows := range slots {
		for _, row := range rows {
			if match.Matches(row) {
				records = append(records, row.Record())
			}
		}
	}

	n.log.Debug().
		Str("request_id", state.RequestID).
		Int("requests", len(slots)).
		Int("records", len(records)).
		Msg("monthly fetch joined")

	if len(records) == 0 && !n.config.Terminal {
		return state, nil
	}
	if len(records) > 0 && n.config.Persist && n.cache != nil {
		n.cache.Write(ctx, storage.KeyFor(req), records)
	}
	state.Finish(records, n.config.Source)
	return state, nil
}

// GetName returns the node name
func (n *MonthlyNode) GetName() string {
	return n.config.Name
}

// GetType returns the node type
func (n *MonthlyNode) GetType() core.NodeType {
	return core.NodeTypeMonthly
}
