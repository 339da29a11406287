// Package models defines the data structures shared between the fleet
// configuration, the probe layer, the series store and the HTTP API.
package models

import (
	"fmt"
	"time"
)

// Platform identifies which wire protocol a server speaks.
type Platform string

const (
	// PlatformJava is Minecraft Java Edition (TCP Server List Ping).
	PlatformJava Platform = "java"

	// PlatformBedrock is Minecraft Bedrock Edition (UDP RakNet ping).
	PlatformBedrock Platform = "bedrock"
)

// Platforms lists every supported platform in a stable order.
var Platforms = []Platform{PlatformJava, PlatformBedrock}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	return p == PlatformJava || p == PlatformBedrock
}

// Key builds the identity key of a tracked server. Records are matched by
// address and port, never by display name.
func Key(address string, port uint16) string {
	return fmt.Sprintf("%s:%d", address, port)
}

// ServerConfig is one fleet entry as declared in the servers file.
type ServerConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Address  string   `yaml:"address" json:"address"`
	Platform Platform `yaml:"-" json:"platform"`
	Port     uint16   `yaml:"port" json:"port"`
}

// Key returns the identity key of this entry.
func (c ServerConfig) Key() string {
	return Key(c.Address, c.Port)
}

// LivenessSample is the result of one probe pass against a server.
// It is produced fresh every cycle and never mutated afterwards.
type LivenessSample struct {
	SampledAt      time.Time `json:"sampled_at"`
	BannerImage    string    `json:"banner_image"`
	BannerText     string    `json:"banner_text"`
	CurrentPlayers int64     `json:"current_players"`
	Online         bool      `json:"online"`
}

// PingPoint is one historical player-count measurement.
type PingPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Players   int64     `json:"players"`
}

// SeriesRecord is the persisted per-server series with derived aggregates.
type SeriesRecord struct {
	FirstSeen      time.Time   `json:"first_seen"`
	LastSeen       time.Time   `json:"last_seen"`
	Address        string      `json:"address"`
	DisplayName    string      `json:"display_name"`
	Platform       Platform    `json:"platform"`
	BannerImage    string      `json:"banner_image"`
	BannerText     string      `json:"banner_text"`
	History        []PingPoint `json:"history"`
	PeakPlayers    int64       `json:"peak_players"`
	AllTimePlayers int64       `json:"all_time_players"`
	Port           uint16      `json:"port"`
}

// Key returns the identity key of this record.
func (r *SeriesRecord) Key() string {
	return Key(r.Address, r.Port)
}

// ServerStatus is the read-only snapshot projection served to the dashboard.
type ServerStatus struct {
	Name           string      `json:"name"`
	Address        string      `json:"address"`
	Platform       Platform    `json:"platform"`
	CountryCode    string      `json:"country_code,omitempty"`
	BannerImage    string      `json:"banner_image"`
	BannerText     string      `json:"banner_text"`
	History        []PingPoint `json:"history"`
	CurrentPlayers int64       `json:"current_players"`
	PeakPlayers    int64       `json:"peak_players"`
	AllTimePlayers int64       `json:"all_time_players"`
	Port           uint16      `json:"port"`
	IsOnline       bool        `json:"is_online"`
}

// Snapshot is the complete per-platform server list built by one polling
// cycle. It is published wholesale and never mutated in place.
type Snapshot struct {
	UpdatedAt time.Time      `json:"updated_at"`
	Servers   []ServerStatus `json:"servers"`
}
