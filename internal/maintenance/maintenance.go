// Package maintenance provides one-shot database housekeeping tasks invoked
// via CLI flags.
package maintenance

import (
	"github.com/rs/zerolog/log"

	"github.com/cubemon/cubemon/internal/config"
	"github.com/cubemon/cubemon/internal/storage"
)

// Run checks if any maintenance flags are set and executes the corresponding
// tasks. Returns true if a task was executed, indicating the program should
// exit instead of starting the poller.
func Run(cfg *config.Config, store *storage.Repository) bool {
	if cfg.Storage.PruneOrphans {
		log.Info().Msg("Pruning orphaned ping history...")

		count, err := store.PruneOrphanPings()
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune ping history")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}

		return true
	}

	return false
}
