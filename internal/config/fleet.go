package config

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/cubemon/cubemon/internal/models"
)

// Default query ports used when a fleet entry leaves the port unset.
const (
	DefaultJavaPort    uint16 = 25565
	DefaultBedrockPort uint16 = 19132
)

// DefaultPort returns the default query port for a platform.
func DefaultPort(platform models.Platform) uint16 {
	if platform == models.PlatformBedrock {
		return DefaultBedrockPort
	}

	return DefaultJavaPort
}

// fleetDoc is the on-disk shape of the servers file.
type fleetDoc struct {
	Java    []models.ServerConfig `yaml:"java"`
	Bedrock []models.ServerConfig `yaml:"bedrock"`
}

// Fleet is the live view of the configured server lists. It is safe for
// concurrent use: the poller reads it at the start of every cycle while the
// watcher may replace the lists between cycles.
type Fleet struct {
	servers map[models.Platform][]models.ServerConfig
	path    string
	mu      sync.RWMutex
}

// LoadFleet reads and validates the servers file at path.
func LoadFleet(path string) (*Fleet, error) {
	f := &Fleet{path: path}
	if err := f.Reload(); err != nil {
		return nil, err
	}

	return f, nil
}

// Reload re-reads the servers file and atomically replaces the lists.
// On failure the previous lists stay active.
func (f *Fleet) Reload() error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read servers file: %w", err)
	}

	var doc fleetDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse servers file: %w", err)
	}

	servers := map[models.Platform][]models.ServerConfig{
		models.PlatformJava:    normalize(doc.Java, models.PlatformJava, DefaultJavaPort),
		models.PlatformBedrock: normalize(doc.Bedrock, models.PlatformBedrock, DefaultBedrockPort),
	}

	f.mu.Lock()
	f.servers = servers
	f.mu.Unlock()

	return nil
}

// Servers returns a copy of the configured list for a platform, preserving
// file order.
func (f *Fleet) Servers(platform models.Platform) []models.ServerConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()

	src := f.servers[platform]
	out := make([]models.ServerConfig, len(src))
	copy(out, src)

	return out
}

// Watch monitors the servers file and reloads it each time it is written.
// It blocks until ctx is cancelled. Failed reloads are logged and the
// previous lists remain active.
func (f *Fleet) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(f.path); err != nil {
		return err
	}

	log.Info().Str("path", f.path).Msg("Watching servers file for changes")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, so catch Create as well.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if err := f.Reload(); err != nil {
				log.Error().Err(err).Str("path", f.path).Msg("Servers file reload failed, keeping previous lists")
				continue
			}

			log.Info().Str("path", f.path).Msg("Servers file reloaded")

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(f.path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Servers file watcher error")
		}
	}
}

// normalize stamps the platform, resolves default ports and drops entries
// without an address. Display names fall back to the address.
func normalize(list []models.ServerConfig, platform models.Platform, defaultPort uint16) []models.ServerConfig {
	out := make([]models.ServerConfig, 0, len(list))
	for _, s := range list {
		if s.Address == "" {
			log.Warn().Str("platform", string(platform)).Str("name", s.Name).Msg("Skipping fleet entry without address")
			continue
		}

		s.Platform = platform
		if s.Port == 0 {
			s.Port = defaultPort
		}
		if s.Name == "" {
			s.Name = s.Address
		}

		out = append(out, s)
	}

	return out
}
