// Package fake populates the database with randomized server series for
// development and dashboard work.
package fake

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cubemon/cubemon/assets"
	"github.com/cubemon/cubemon/internal/config"
	"github.com/cubemon/cubemon/internal/models"
	"github.com/cubemon/cubemon/internal/storage"
)

// GenerateData creates count fake servers per platform, each with a day of
// minute-cadence history fed through the regular upsert path, so aggregates
// come out exactly as a live fleet would produce them.
func GenerateData(store *storage.Repository, count int) {
	names := []string{"Survival", "Skyblock", "Anarchy", "Creative", "Bedwars", "Vanilla", "Hardcore"}

	for _, platform := range models.Platforms {
		port := config.DefaultPort(platform)
		for i := 0; i < count; i++ {
			cfg := models.ServerConfig{
				Name:     fmt.Sprintf("%s #%d", names[rand.Intn(len(names))], i+1),
				Address:  fmt.Sprintf("%s-%d.example.com", platform, i+1),
				Port:     port,
				Platform: platform,
			}

			// Sine-shaped daily curve with noise, like real player counts.
			base := float64(rand.Intn(80) + 20)
			start := time.Now().Add(-24 * time.Hour)

			for m := 0; m < storage.HistoryLimit; m++ {
				at := start.Add(time.Duration(m) * time.Minute)
				phase := float64(m) / float64(storage.HistoryLimit) * 2 * math.Pi
				players := int64(base + base*0.5*math.Sin(phase) + float64(rand.Intn(10)))
				if players < 0 {
					players = 0
				}

				sample := models.LivenessSample{
					Online:         true,
					CurrentPlayers: players,
					BannerText:     cfg.Name,
					SampledAt:      at,
				}

				if _, err := store.Upsert(sample, cfg, assets.FallbackBanner(platform)); err != nil {
					log.Error().Err(err).Str("server", cfg.Key()).Msg("Failed to insert fake sample")
					break
				}
			}

			log.Info().Str("server", cfg.Key()).Msg("Generated fake server series")
		}
	}
}
