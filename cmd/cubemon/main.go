// main is the entry point of the Cubemon application.
// It initializes the configuration, logger, database and GeoIP provider,
// starts the fleet poller and serves the dashboard API.
package main

import (
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cubemon/cubemon/assets"
	"github.com/cubemon/cubemon/internal/config"
	"github.com/cubemon/cubemon/internal/fake"
	"github.com/cubemon/cubemon/internal/geoip"
	"github.com/cubemon/cubemon/internal/logger"
	"github.com/cubemon/cubemon/internal/maintenance"
	"github.com/cubemon/cubemon/internal/models"
	"github.com/cubemon/cubemon/internal/poller"
	"github.com/cubemon/cubemon/internal/probe"
	"github.com/cubemon/cubemon/internal/server"
	"github.com/cubemon/cubemon/internal/snapshot"
	"github.com/cubemon/cubemon/internal/storage"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)
	log.Info().Msg("Starting cubemon service...")

	// Database
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// Data generation or database maintenance
	if cfg.Storage.GenerateCount > 0 {
		fake.GenerateData(store, cfg.Storage.GenerateCount)
		return
	} else if maintenance.Run(cfg, store) {
		return
	}

	// GeoIP
	geoProvider := openGeoIP(cfg)
	if geoProvider != nil {
		defer func() {
			if err := geoProvider.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing GeoIP provider")
			}
		}()
	}

	// Fleet configuration
	fleet, err := config.LoadFleet(cfg.Fleet.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Fleet.Path).Msg("Failed to load servers file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !cfg.Fleet.NoWatch {
		go func() {
			if err := fleet.Watch(ctx); err != nil {
				log.Error().Err(err).Msg("Servers file watcher stopped")
			}
		}()
	}

	// Polling engine
	cache := snapshot.New()
	probers := map[models.Platform]poller.Prober{
		models.PlatformJava:    probe.New(probe.JavaAdapter{}, cfg.Probe),
		models.PlatformBedrock: probe.New(probe.BedrockAdapter{}, cfg.Probe),
	}
	fallbacks := map[models.Platform]string{
		models.PlatformJava:    fallbackBanner(models.PlatformJava, cfg.Fleet.JavaBanner),
		models.PlatformBedrock: fallbackBanner(models.PlatformBedrock, cfg.Fleet.BedrockBanner),
	}

	var geo poller.Resolver
	if geoProvider != nil {
		geo = geoProvider
	}

	fleetPoller := poller.New(store, fleet, cache, probers, fallbacks, geo, cfg.Poll.Interval)

	if cfg.Poll.RunOnce {
		for _, platform := range models.Platforms {
			fleetPoller.RunCycle(ctx, platform)
		}
		return
	}

	fleetPoller.Start(ctx)

	// HTTP API
	srvHandler := server.New(cache, store, cfg)
	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srvHandler.Run(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop polling loops and wait for in-flight cycles
	cancel()
	fleetPoller.Wait()

	log.Info().Msg("Server exited")
}

// openGeoIP ensures the MMDB file is present and opens it. Country detection
// is optional: any failure just disables it.
func openGeoIP(cfg *config.Config) *geoip.Provider {
	if cfg.GeoIP.Disable {
		return nil
	}

	log.Info().Msg("Checking GeoIP database...")
	if err := geoip.EnsureDB(cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
		log.Error().Err(err).Msg("Failed to download GeoIP database")
	}

	provider, err := geoip.Open(cfg.GeoIP.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		return nil
	}

	return provider
}

// fallbackBanner loads a banner override from disk, or falls back to the
// embedded asset for the platform.
func fallbackBanner(platform models.Platform, path string) string {
	if path == "" {
		return assets.FallbackBanner(platform)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to read banner override, using embedded fallback")
		return assets.FallbackBanner(platform)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
}
