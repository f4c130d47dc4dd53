package config

import (
	"os"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/namsral/flag"
	"github.com/pkg/errors"
)

const (
	Version = "0.4.0"

	BackendShipyard = "shipyard"
	BackendDocker   = "docker"

	DefaultListen         = ":8080"
	DefaultShipyardURL    = "http://localhost:8080"
	DefaultEngineAddr     = "http://127.0.0.1"
	DefaultRequestTimeout = 15 * time.Second
	DefaultLogLevel       = "info"

	// EnvPrefix prefixes the environment variable form of every flag,
	// e.g. SHIPYARD_LISTEN for -listen.
	EnvPrefix = "SHIPYARD"
)

// Config holds the dashboard settings.
type Config struct {
	Listen          string
	Backend         string
	ShipyardURL     string
	EngineAddr      string
	Username        string
	Password        string
	RequestTimeout  time.Duration
	LogLevel        string
	BuildEnabled    bool
	InsecureCookies bool
	StaticDir       string

	Version semver.Version
}

// Load reads the configuration from args (without the program name),
// SHIPYARD_* environment variables and an optional -config file, in
// decreasing precedence.
func Load(args []string) (*Config, error) {
	cfg := &Config{
		Version: semver.MustParse(Version),
	}

	fs := flag.NewFlagSetWithEnvPrefix(os.Args[0], EnvPrefix, flag.ContinueOnError)
	fs.String(flag.DefaultConfigFlagname, "", "path to a config file")
	fs.StringVar(&cfg.Listen, "listen", DefaultListen, "address the dashboard listens on")
	fs.StringVar(&cfg.Backend, "backend", BackendShipyard, "cluster backend: shipyard or docker")
	fs.StringVar(&cfg.ShipyardURL, "shipyard-url", DefaultShipyardURL, "shipyard controller URL")
	fs.StringVar(&cfg.EngineAddr, "engine-addr", DefaultEngineAddr, "public address of the local engine (docker backend)")
	fs.StringVar(&cfg.Username, "username", "admin", "dashboard username (docker backend)")
	fs.StringVar(&cfg.Password, "password", "", "dashboard password (docker backend)")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", DefaultRequestTimeout, "timeout for each backend request")
	fs.StringVar(&cfg.LogLevel, "log-level", DefaultLogLevel, "log level")
	fs.BoolVar(&cfg.BuildEnabled, "build-enabled", false, "allow building images from git repositories before deploying")
	fs.BoolVar(&cfg.InsecureCookies, "insecure-cookies", false, "send session cookies over plain http")
	fs.StringVar(&cfg.StaticDir, "static-dir", "", "serve static assets from this directory instead of the embedded ones")

	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "failed to parse configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be used as given.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendShipyard:
		if !strings.HasPrefix(c.ShipyardURL, "http://") && !strings.HasPrefix(c.ShipyardURL, "https://") {
			return errors.Errorf("shipyard-url must be an http(s) URL, got %q", c.ShipyardURL)
		}
	case BackendDocker:
		if c.Password == "" {
			return errors.New("password is required with the docker backend")
		}
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request-timeout must be positive")
	}
	return nil
}
