package snapshot

import (
	"testing"
	"time"

	"github.com/cubemon/cubemon/internal/models"
)

func TestGet_EmptyBeforeFirstPublish(t *testing.T) {
	cache := New()

	snap := cache.Get(models.PlatformJava)
	if snap.Servers == nil {
		t.Fatal("expected non-nil empty server list")
	}
	if len(snap.Servers) != 0 {
		t.Errorf("expected empty snapshot, got %d servers", len(snap.Servers))
	}
}

func TestPublishGet_RoundTrip(t *testing.T) {
	cache := New()

	snap := models.Snapshot{
		UpdatedAt: time.Now(),
		Servers: []models.ServerStatus{
			{Name: "One", Address: "a.example.com", Port: 25565},
		},
	}
	cache.Publish(models.PlatformJava, snap)

	got := cache.Get(models.PlatformJava)
	if len(got.Servers) != 1 || got.Servers[0].Name != "One" {
		t.Errorf("unexpected snapshot: %+v", got)
	}
}

func TestPublish_ReplacesWholesale(t *testing.T) {
	cache := New()

	cache.Publish(models.PlatformJava, models.Snapshot{
		Servers: []models.ServerStatus{{Name: "One"}, {Name: "Two"}},
	})
	cache.Publish(models.PlatformJava, models.Snapshot{
		Servers: []models.ServerStatus{{Name: "Three"}},
	})

	got := cache.Get(models.PlatformJava)
	if len(got.Servers) != 1 || got.Servers[0].Name != "Three" {
		t.Errorf("old snapshot leaked through: %+v", got)
	}
}

func TestPlatforms_Independent(t *testing.T) {
	cache := New()

	cache.Publish(models.PlatformJava, models.Snapshot{
		Servers: []models.ServerStatus{{Name: "Java"}},
	})

	if got := cache.Get(models.PlatformBedrock); len(got.Servers) != 0 {
		t.Errorf("bedrock snapshot should be empty, got %+v", got)
	}
}

func TestGet_UnknownPlatform(t *testing.T) {
	cache := New()

	snap := cache.Get(models.Platform("xbox"))
	if len(snap.Servers) != 0 {
		t.Errorf("unknown platform should yield empty snapshot, got %+v", snap)
	}
}
