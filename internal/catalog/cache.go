package catalog

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/daisyflowers/budtender/internal/common"
	"github.com/daisyflowers/budtender/internal/model"
)

// DefaultFreshness is how long a snapshot is served without refetching.
const DefaultFreshness = time.Hour

// Source produces catalog snapshots.
type Source interface {
	Fetch(ctx context.Context, onPage PageFunc) model.Snapshot
}

// SnapshotRecorder persists snapshot metadata on each refresh.
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context, snapshot model.Snapshot) error
}

// CacheConfig configures the single-slot snapshot cache.
type CacheConfig struct {
	// Source is the upstream fetcher. Required.
	Source Source
	// Recorder, when set, receives snapshot metadata on each refresh.
	Recorder SnapshotRecorder
	// Now overrides the clock. Tests only.
	Now func() time.Time
	// ArtifactPath, when set, is where the full snapshot is written as a
	// JSON side artifact on each refresh. Never read back.
	ArtifactPath string
	// Freshness is the snapshot serving window. Defaults to one hour.
	Freshness time.Duration
}

// Cache holds the last successful snapshot and serves it unchanged for
// the freshness window. Single slot, guarded by a mutex; two requests
// arriving with a stale slot can still both refresh (wasted work, not
// corruption — the slot is overwritten atomically under the lock).
type Cache struct {
	now       func() time.Time
	source    Source
	recorder  SnapshotRecorder
	artifact  string
	snapshot  model.Snapshot
	freshness time.Duration
	populated bool
	mu        sync.Mutex
}

// NewCache creates a snapshot cache over the given source.
func NewCache(cfg CacheConfig) *Cache {
	freshness := cfg.Freshness
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		source:    cfg.Source,
		recorder:  cfg.Recorder,
		artifact:  cfg.ArtifactPath,
		freshness: freshness,
		now:       now,
	}
}

// Products returns the cached snapshot while fresh, refreshing from the
// source otherwise.
func (c *Cache) Products(ctx context.Context) model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.populated && c.snapshot.Age(c.now()) < c.freshness {
		common.LogDebug("Serving cached catalog", common.Fields{"products": len(c.snapshot.Products)})
		return c.snapshot
	}

	return c.refreshLocked(ctx, nil)
}

// Refresh forces a fetch regardless of freshness, reporting page progress
// through onPage.
func (c *Cache) Refresh(ctx context.Context, onPage PageFunc) model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx, onPage)
}

func (c *Cache) refreshLocked(ctx context.Context, onPage PageFunc) model.Snapshot {
	snapshot := c.source.Fetch(ctx, onPage)
	c.snapshot = snapshot
	c.populated = true

	common.LogInfo("Catalog refreshed", common.Fields{"products": len(snapshot.Products)})

	if c.artifact != "" {
		if err := writeArtifact(c.artifact, snapshot.Products); err != nil {
			common.LogError(err, "Failed to write snapshot artifact", common.Fields{"path": c.artifact})
		}
	}
	if c.recorder != nil {
		if err := c.recorder.RecordSnapshot(ctx, snapshot); err != nil {
			common.LogError(err, "Failed to record snapshot", nil)
		}
	}

	return snapshot
}

// Count returns the cached product count without triggering a refresh.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snapshot.Products)
}

func writeArtifact(path string, products []model.Product) error {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
