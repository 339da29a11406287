// Package probe queries game servers for liveness and player counts.
//
// Platform adapters perform a single wire-level attempt; the Prober wraps an
// adapter with bounded retry and timeout and always produces a sample, never
// an error — a server that cannot be reached is reported as offline.
package probe

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cubemon/cubemon/internal/config"
	"github.com/cubemon/cubemon/internal/models"
)

// Adapter performs one liveness attempt against a server. Implementations
// must honor ctx cancellation and deadlines.
type Adapter interface {
	Attempt(ctx context.Context, address string, port uint16) (*models.LivenessSample, error)
}

// Prober wraps an Adapter with retry and timeout policy.
type Prober struct {
	adapter  Adapter
	timeout  time.Duration
	delay    time.Duration
	attempts int
}

// New creates a Prober for one platform adapter using the probe options.
func New(adapter Adapter, opts config.Probe) *Prober {
	return &Prober{
		adapter:  adapter,
		attempts: opts.Attempts,
		timeout:  opts.Timeout,
		delay:    opts.Delay,
	}
}

// Probe attempts to query the server, retrying transient failures up to the
// configured attempt bound. After exhausting the attempts it returns a
// synthetic offline sample; probe failure is a designed fallback, not an
// error. Player counts are clamped to zero or above.
func (p *Prober) Probe(ctx context.Context, address string, port uint16) models.LivenessSample {
	for attempt := 1; attempt <= p.attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		sample, err := p.adapter.Attempt(attemptCtx, address, port)
		cancel()

		if err == nil && sample != nil {
			if sample.CurrentPlayers < 0 {
				sample.CurrentPlayers = 0
			}
			sample.Online = true
			sample.SampledAt = time.Now()

			return *sample
		}

		log.Debug().
			Err(err).
			Str("address", address).
			Uint16("port", port).
			Int("attempt", attempt).
			Msg("Probe attempt failed")

		if attempt == p.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return offlineSample()
		case <-time.After(p.delay):
		}
	}

	return offlineSample()
}

// offlineSample is the designed fallback for an unreachable server.
func offlineSample() models.LivenessSample {
	return models.LivenessSample{
		Online:         false,
		CurrentPlayers: 0,
		SampledAt:      time.Now(),
	}
}
