package server

import (
	"time"

	"github.com/cubemon/cubemon/internal/snapshot"
	"github.com/cubemon/cubemon/internal/storage"
)

// Server holds the dependencies and configuration required to serve the
// read-only dashboard API. It never mutates the snapshot or the store; the
// poller owns all writes.
type Server struct {
	// cache is the snapshot cache the poller publishes into. Every read
	// request is answered from it without touching the database.
	cache *snapshot.Cache

	// storage provides direct record access for the per-server detail
	// endpoint.
	storage *storage.Repository

	// trustProxy indicates whether X-Forwarded-For style headers are
	// trusted when determining the client's real IP address.
	trustProxy bool

	// hardLimitCount is the maximum number of requests allowed per IP
	// within hardLimitWin.
	hardLimitCount int

	// hardLimitWin is the time window duration for the rate limiter.
	hardLimitWin time.Duration
}
