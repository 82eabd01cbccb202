package nodes

import (
	"context"

	"school_portal/internal/core"
	"school_portal/internal/storage"
	"school_portal/pkg"
	"school_portal/src/logger"

	"github.com/rs/zerolog"
)

// CacheNode answers a request from the snapshot cache
type CacheNode struct {
	name       string
	cache      *storage.AttendanceCache
	allowStale bool
	log        zerolog.Logger
}

// NewCacheNode finishes the flow only on a fresh hit and otherwise passes the state on.
func NewCacheNode(cache *storage.AttendanceCache) *CacheNode {
	return &CacheNode{
		name:  "cache",
		cache: cache,
		log:   logger.Component("cache_node"),
	}
}

// NewCachedOnlyNode always finishes the flow: fresh hit, then stale hit, then nothing.
func NewCachedOnlyNode(cache *storage.AttendanceCache) *CacheNode {
	return &CacheNode{
		name:       "cache_only",
		cache:      cache,
		allowStale: true,
		log:        logger.Component("cache_node"),
	}
}

// Execute looks the request up in the cache
func (n *CacheNode) Execute(ctx context.Context, state *core.State) (*core.State, error) {
	key := storage.KeyFor(state.Request)

	if records, ok := n.cache.Read(ctx, key, state.Request.CacheMaxAge()); ok {
		n.log.Debug().Str("request_id", state.RequestID).Int("records", len(records)).Msg("fresh cache hit")
		state.Finish(records, pkg.SourceCache)
		return state, nil
	}
	if !n.allowStale {
		return state, nil
	}

	if records, ok := n.cache.ReadAny(ctx, key); ok {
		n.log.Debug().Str("request_id", state.RequestID).Int("records", len(records)).Msg("stale cache hit")
		state.Finish(records, pkg.SourceCacheStale)
		return state, nil
	}

	state.Finish(nil, pkg.SourceNone)
	return state, nil
}

// GetName returns the node name
func (n *CacheNode) GetName() string {
	return n.name
}

// GetType returns the node type
func (n *CacheNode) GetType() core.NodeType {
	return core.NodeTypeCache
}
