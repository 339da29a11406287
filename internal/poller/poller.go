// Package poller orchestrates the polling cycles: it fans out probes across
// the configured fleet, writes the results through the series store and
// publishes a consistent snapshot per platform.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cubemon/cubemon/internal/metrics"
	"github.com/cubemon/cubemon/internal/models"
	"github.com/cubemon/cubemon/internal/snapshot"
	"github.com/cubemon/cubemon/internal/storage"
)

// Fleet supplies the configured server list per platform. The list may
// change between cycles.
type Fleet interface {
	Servers(platform models.Platform) []models.ServerConfig
}

// Prober produces a liveness sample for one server. It never fails: an
// unreachable server comes back as an offline sample.
type Prober interface {
	Probe(ctx context.Context, address string, port uint16) models.LivenessSample
}

// Resolver maps a server address to an ISO country code, or "" if unknown.
type Resolver interface {
	CountryCode(address string) string
}

// Poller runs one polling cycle per platform on a fixed interval.
type Poller struct {
	store     *storage.Repository
	fleet     Fleet
	cache     *snapshot.Cache
	geo       Resolver
	probers   map[models.Platform]Prober
	fallbacks map[models.Platform]string
	flight    map[models.Platform]*sync.Mutex
	interval  time.Duration
	wg        sync.WaitGroup
}

// New creates a Poller. geo may be nil to disable country detection, and
// fallbacks maps each platform to its fallback banner data URI.
func New(
	store *storage.Repository,
	fleet Fleet,
	cache *snapshot.Cache,
	probers map[models.Platform]Prober,
	fallbacks map[models.Platform]string,
	geo Resolver,
	interval time.Duration,
) *Poller {
	flight := make(map[models.Platform]*sync.Mutex, len(models.Platforms))
	for _, p := range models.Platforms {
		flight[p] = &sync.Mutex{}
	}

	return &Poller{
		store:     store,
		fleet:     fleet,
		cache:     cache,
		probers:   probers,
		fallbacks: fallbacks,
		geo:       geo,
		interval:  interval,
		flight:    flight,
	}
}

// Start launches one polling loop per platform. Loops stop when ctx is
// cancelled; Wait blocks until they have drained.
func (p *Poller) Start(ctx context.Context) {
	for _, platform := range models.Platforms {
		p.wg.Add(1)
		go func(platform models.Platform) {
			defer p.wg.Done()
			p.loop(ctx, platform)
		}(platform)
	}
}

// Wait blocks until all polling loops have exited.
func (p *Poller) Wait() {
	p.wg.Wait()
}

// loop fires an immediate cycle, then one per tick until ctx is cancelled.
func (p *Poller) loop(ctx context.Context, platform models.Platform) {
	p.tick(ctx, platform)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, platform)
		}
	}
}

// tick runs one cycle under the per-platform single-flight guard. A tick
// that arrives while the previous cycle is still running is skipped, so two
// cycles can never race on the same identity keys.
func (p *Poller) tick(ctx context.Context, platform models.Platform) {
	mu := p.flight[platform]
	if !mu.TryLock() {
		log.Warn().Str("platform", string(platform)).Msg("Previous cycle still running, skipping tick")
		metrics.CyclesSkipped.WithLabelValues(string(platform)).Inc()
		return
	}
	defer mu.Unlock()

	p.RunCycle(ctx, platform)
}

// RunCycle performs one full polling pass for a platform: reconcile the
// store against the configured list, probe every server concurrently, write
// the samples through and publish the assembled snapshot.
//
// The cycle never fails as a unit. A probe that exhausts its retries is
// recorded as offline; a task that fails unexpectedly is logged and its
// server omitted from this cycle's snapshot. If every task fails while
// servers are configured — the store being unreachable looks exactly like
// that — the previous snapshot is left serving.
func (p *Poller) RunCycle(ctx context.Context, platform models.Platform) models.Snapshot {
	start := time.Now()
	servers := p.fleet.Servers(platform)

	live := make(map[string]struct{}, len(servers))
	for _, srv := range servers {
		live[srv.Key()] = struct{}{}
	}

	if removed, err := p.store.Reconcile(platform, live); err != nil {
		log.Error().Err(err).Str("platform", string(platform)).Msg("Reconcile failed")
	} else if removed > 0 {
		log.Info().
			Str("platform", string(platform)).
			Int64("removed", removed).
			Msg("Removed servers no longer configured")
	}

	// Settle-all fan-out: every server gets its own task and its own slot,
	// one task's outcome never affects a sibling.
	results := make([]*models.ServerStatus, len(servers))
	var wg sync.WaitGroup

	for i, srv := range servers {
		wg.Add(1)
		go func(i int, srv models.ServerConfig) {
			defer wg.Done()
			status, err := p.pollServer(ctx, platform, srv)
			if err != nil {
				log.Error().
					Err(err).
					Str("platform", string(platform)).
					Str("server", srv.Key()).
					Msg("Server task failed, omitting from this cycle")
				metrics.TaskFailures.WithLabelValues(string(platform)).Inc()
				return
			}
			results[i] = status
		}(i, srv)
	}
	wg.Wait()

	statuses := make([]models.ServerStatus, 0, len(servers))
	var online, players int64
	for _, status := range results {
		if status == nil {
			continue
		}
		if status.IsOnline {
			online++
			players += status.CurrentPlayers
		}
		statuses = append(statuses, *status)
	}

	snap := models.Snapshot{Servers: statuses, UpdatedAt: time.Now()}

	if len(servers) > 0 && len(statuses) == 0 {
		log.Warn().
			Str("platform", string(platform)).
			Int("configured", len(servers)).
			Msg("Every server task failed, keeping previous snapshot")
		return snap
	}

	p.cache.Publish(platform, snap)

	elapsed := time.Since(start)
	metrics.CyclesTotal.WithLabelValues(string(platform)).Inc()
	metrics.CycleDuration.WithLabelValues(string(platform)).Observe(elapsed.Seconds())
	metrics.OnlineServers.WithLabelValues(string(platform)).Set(float64(online))
	metrics.PlayersOnline.WithLabelValues(string(platform)).Set(float64(players))

	log.Info().
		Str("platform", string(platform)).
		Int("servers", len(statuses)).
		Int64("online", online).
		Int64("players", players).
		Dur("elapsed", elapsed).
		Msg("Polling cycle complete")

	return snap
}

// pollServer probes one server and writes the sample through the store.
// A panic anywhere in the task is converted into an error so the caller can
// isolate it.
func (p *Poller) pollServer(ctx context.Context, platform models.Platform, srv models.ServerConfig) (status *models.ServerStatus, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = nil
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	prober, ok := p.probers[platform]
	if !ok {
		return nil, fmt.Errorf("no prober for platform %q", platform)
	}

	sample := prober.Probe(ctx, srv.Address, srv.Port)
	if !sample.Online {
		metrics.ProbeFailures.WithLabelValues(string(platform)).Inc()
	}

	rec, err := p.store.Upsert(sample, srv, p.fallbacks[platform])
	if err != nil {
		return nil, fmt.Errorf("upsert %s: %w", srv.Key(), err)
	}

	st := &models.ServerStatus{
		Name:           srv.Name,
		Address:        srv.Address,
		Port:           srv.Port,
		Platform:       platform,
		IsOnline:       sample.Online,
		CurrentPlayers: sample.CurrentPlayers,
		PeakPlayers:    rec.PeakPlayers,
		AllTimePlayers: rec.AllTimePlayers,
		BannerImage:    rec.BannerImage,
		BannerText:     rec.BannerText,
		History:        rec.History,
	}

	if p.geo != nil {
		st.CountryCode = p.geo.CountryCode(srv.Address)
	}

	return st, nil
}
