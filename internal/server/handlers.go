package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"

	"github.com/cubemon/cubemon/internal/models"
)

// serversResponse is the combined payload the dashboard polls.
type serversResponse struct {
	Java    models.Snapshot `json:"java"`
	Bedrock models.Snapshot `json:"bedrock"`
}

// handleServers returns the latest snapshot of both platforms.
func (s *Server) handleServers(w http.ResponseWriter, r *http.Request) {
	resp := serversResponse{
		Java:    s.cache.Get(models.PlatformJava),
		Bedrock: s.cache.Get(models.PlatformBedrock),
	}

	writeJSON(w, r, resp)
}

// handlePlatform returns the latest snapshot for one platform.
func (s *Server) handlePlatform(w http.ResponseWriter, r *http.Request) {
	platform := models.Platform(r.PathValue("platform"))
	if !platform.Valid() {
		http.Error(w, "Unknown platform", http.StatusNotFound)
		return
	}

	writeJSON(w, r, s.cache.Get(platform))
}

// handleServer returns the stored record for a single server, including its
// full history. Query params: ?address=mc.example.com&port=25565
func (s *Server) handleServer(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	portStr := r.URL.Query().Get("port")

	if address == "" || portStr == "" {
		http.Error(w, "Missing address or port", http.StatusBadRequest)
		return
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return
	}

	rec, err := s.storage.Get(address, uint16(port))
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch server record")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if rec == nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, r, rec)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// writeJSON encodes v once, derives a weak ETag from the body and answers
// If-None-Match with 304 so the polling dashboard skips unchanged payloads.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	etag := fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(buf.Bytes()))
	w.Header().Set("ETag", etag)

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}
