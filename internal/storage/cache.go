package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"school_portal/internal/metrics"
	"school_portal/pkg"
	"school_portal/src/logger"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

const cacheNamespace = "attendance_cache_v2"

// CacheKey identifies one student's snapshot for a session and class
type CacheKey struct {
	StudentID string
	Session   string
	ClassName string
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", cacheNamespace, k.StudentID, k.Session, k.ClassName)
}

// KeyFor derives the cache key of a request
func KeyFor(req pkg.AttendanceRequest) CacheKey {
	return CacheKey{StudentID: req.StudentID, Session: req.Session, ClassName: req.ClassName}
}

// cacheEntry mirrors the persisted JSON. Pointers tell a missing field from a zero one.
type cacheEntry struct {
	SavedAt *float64                `json:"saved_at"`
	Records *[]pkg.AttendanceRecord `json:"records"`
}

type storedEntry struct {
	SavedAt int64                  `json:"saved_at"` // epoch milliseconds
	Records []pkg.AttendanceRecord `json:"records"`
}

// AttendanceCache is a best-effort snapshot cache over a KV. Storage failures and malformed
// entries behave as misses; it is never the source of truth.
type AttendanceCache struct {
	kv  KV
	now func() time.Time
	log zerolog.Logger
}

// NewAttendanceCache wraps kv. A nil now uses time.Now.
func NewAttendanceCache(kv KV, now func() time.Time) *AttendanceCache {
	if now == nil {
		now = time.Now
	}
	return &AttendanceCache{
		kv:  kv,
		now: now,
		log: logger.Component("attendance_cache"),
	}
}

// Read returns the cached records when the entry is well-formed and no older than maxAge.
func (c *AttendanceCache) Read(ctx context.Context, key CacheKey, maxAge time.Duration) ([]pkg.AttendanceRecord, bool) {
	entry, ok := c.load(ctx, key)
	if !ok {
		metrics.CacheOperations.WithLabelValues("read", "miss").Inc()
		return nil, false
	}

	age := c.now().UnixMilli() - int64(*entry.SavedAt)
	if age > maxAge.Milliseconds() {
		c.log.Debug().Str("key", key.String()).Int64("age_ms", age).Msg("cache entry expired")
		metrics.CacheOperations.WithLabelValues("read", "expired").Inc()
		return nil, false
	}

	metrics.CacheOperations.WithLabelValues("read", "hit").Inc()
	return *entry.Records, true
}

// ReadAny returns the cached records regardless of age.
func (c *AttendanceCache) ReadAny(ctx context.Context, key CacheKey) ([]pkg.AttendanceRecord, bool) {
	entry, ok := c.load(ctx, key)
	if !ok {
		metrics.CacheOperations.WithLabelValues("read_any", "miss").Inc()
		return nil, false
	}
	metrics.CacheOperations.WithLabelValues("read_any", "hit").Inc()
	return *entry.Records, true
}

// Write stores records stamped with the current time. Failures are logged and dropped.
func (c *AttendanceCache) Write(ctx context.Context, key CacheKey, records []pkg.AttendanceRecord) {
	if records == nil {
		records = []pkg.AttendanceRecord{}
	}

	data, err := sonic.Marshal(storedEntry{SavedAt: c.now().UnixMilli(), Records: records})
	if err != nil {
		c.log.Warn().Err(err).Str("key", key.String()).Msg("failed to encode cache entry")
		metrics.CacheOperations.WithLabelValues("write", "error").Inc()
		return
	}

	if err := c.kv.Set(ctx, key.String(), data); err != nil {
		c.log.Warn().Err(err).Str("key", key.String()).Msg("failed to write cache entry")
		metrics.CacheOperations.WithLabelValues("write", "error").Inc()
		return
	}

	c.log.Debug().Str("key", key.String()).Int("records", len(records)).Msg("cache entry written")
	metrics.CacheOperations.WithLabelValues("write", "ok").Inc()
}

func (c *AttendanceCache) load(ctx context.Context, key CacheKey) (*cacheEntry, bool) {
	data, err := c.kv.Get(ctx, key.String())
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Warn().Err(err).Str("key", key.String()).Msg("failed to read cache entry")
		}
		return nil, false
	}

	var entry cacheEntry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		c.log.Debug().Err(err).Str("key", key.String()).Msg("malformed cache entry")
		return nil, false
	}
	if entry.Records == nil || entry.SavedAt == nil || *entry.SavedAt == 0 {
		return nil, false
	}
	return &entry, true
}
