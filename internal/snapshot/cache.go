// Package snapshot holds the latest fully-built per-platform server list.
//
// A snapshot is replaced wholesale by a single atomic pointer swap at the end
// of each polling cycle, so readers never observe a torn mix of old and new
// entries and need no lock.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/cubemon/cubemon/internal/models"
)

// Cache is the process-wide snapshot store, one slot per platform.
type Cache struct {
	slots map[models.Platform]*atomic.Pointer[models.Snapshot]
}

// New creates a Cache with an empty slot for every supported platform.
func New() *Cache {
	slots := make(map[models.Platform]*atomic.Pointer[models.Snapshot], len(models.Platforms))
	for _, p := range models.Platforms {
		slots[p] = &atomic.Pointer[models.Snapshot]{}
	}

	return &Cache{slots: slots}
}

// Publish atomically replaces the snapshot for a platform. Only the poller
// calls this, once per completed cycle.
func (c *Cache) Publish(platform models.Platform, snap models.Snapshot) {
	slot, ok := c.slots[platform]
	if !ok {
		return
	}

	slot.Store(&snap)
}

// Get returns the last published snapshot for a platform, or an empty
// snapshot before the first cycle completes.
func (c *Cache) Get(platform models.Platform) models.Snapshot {
	slot, ok := c.slots[platform]
	if !ok {
		return emptySnapshot()
	}

	snap := slot.Load()
	if snap == nil {
		return emptySnapshot()
	}

	return *snap
}

func emptySnapshot() models.Snapshot {
	return models.Snapshot{Servers: []models.ServerStatus{}, UpdatedAt: time.Time{}}
}
