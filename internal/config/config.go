// Package config handles the parsing and validation of application
// configuration from command-line arguments, environment variables and the
// fleet servers file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/cubemon/cubemon/internal/logger"
	"github.com/cubemon/cubemon/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Server    Server        `group:"Server Options" env-namespace:"CUBEMON"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"CUBEMON_DB"`
	Fleet     FleetFile     `group:"Fleet Options" namespace:"fleet" env-namespace:"CUBEMON_FLEET"`
	Poll      Poll          `group:"Polling Options" namespace:"poll" env-namespace:"CUBEMON_POLL"`
	Probe     Probe         `group:"Probe Options" namespace:"probe" env-namespace:"CUBEMON_PROBE"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"CUBEMON_GEOIP"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"CUBEMON_RATE_LIMIT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"CUBEMON_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Server holds web server configuration.
type Server struct {
	// betteralign:ignore

	Address    string `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	TrustProxy bool   `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// Storage holds database configuration and one-shot maintenance flags.
type Storage struct {
	// betteralign:ignore

	Path          string `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"cubemon.db"`
	PruneOrphans  bool   `long:"prune-orphans" description:"Delete ping history rows with no matching server record, then exit"`
	GenerateCount int    `long:"gen-fake-data" hidden:"true"`
}

// FleetFile holds the servers list configuration.
type FleetFile struct {
	// betteralign:ignore

	Path          string `short:"f" long:"path" env:"PATH" description:"Path to YAML servers file" default:"servers.yml"`
	NoWatch       bool   `long:"no-watch" env:"NO_WATCH" description:"Do not reload the servers file on change"`
	JavaBanner    string `long:"java-banner" env:"JAVA_BANNER" description:"Path to fallback banner PNG for Java servers (embedded default)"`
	BedrockBanner string `long:"bedrock-banner" env:"BEDROCK_BANNER" description:"Path to fallback banner PNG for Bedrock servers (embedded default)"`
}

// Poll holds polling cycle configuration.
type Poll struct {
	// betteralign:ignore

	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Delay between polling cycles" default:"60s"`
	RunOnce  bool          `long:"run-once" env:"RUN_ONCE" description:"Run a single polling cycle per platform and exit"`
}

// Probe holds liveness probe configuration.
type Probe struct {
	// betteralign:ignore

	Attempts int           `long:"attempts" env:"ATTEMPTS" description:"Probe attempts per server per cycle" default:"3"`
	Timeout  time.Duration `long:"timeout" env:"TIMEOUT" description:"Timeout per probe attempt" default:"5s"`
	Delay    time.Duration `long:"delay" env:"DELAY" description:"Delay between probe attempts" default:"1s"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file" default:"cubemon.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
	Disable  bool          `long:"disable" env:"DISABLE" description:"Disable country detection entirely"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	// betteralign:ignore

	Count  int           `long:"count" env:"COUNT" description:"Requests per client IP per window" default:"60"`
	Window time.Duration `long:"window" env:"WINDOW" description:"Rate limit window duration" default:"1m"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the
// help flag is invoked.
func Parse() *Config {
	// .env is optional, flags and real env always win
	_ = godotenv.Load()

	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if cfg.Probe.Attempts < 1 {
		fmt.Fprintln(os.Stderr, "Probe attempts must be at least 1")
		os.Exit(1)
	}

	if cfg.Poll.Interval < time.Second {
		fmt.Fprintln(os.Stderr, "Poll interval must be at least 1s")
		os.Exit(1)
	}

	return &cfg
}
