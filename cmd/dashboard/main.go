package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shipyard/dashboard/internal/adapters/builder"
	"github.com/shipyard/dashboard/internal/adapters/docker"
	"github.com/shipyard/dashboard/internal/adapters/http"
	"github.com/shipyard/dashboard/internal/adapters/shipyard"
	"github.com/shipyard/dashboard/internal/config"
	"github.com/shipyard/dashboard/internal/core/ports"
	"github.com/shipyard/dashboard/internal/log"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to set log level: %v", err)
	}

	// 1. Backend the views talk to
	var connector ports.Connector
	var closeBackend func() error
	switch cfg.Backend {
	case config.BackendDocker:
		adapter, err := docker.NewAdapter(cfg.EngineAddr)
		if err != nil {
			log.Fatalf("Failed to initialize Docker adapter: %v", err)
		}
		connector = docker.NewConnector(adapter, cfg.Username, cfg.Password)
		closeBackend = adapter.Close
	default:
		connector = shipyard.NewConnector(shipyard.NewRestClient(cfg.ShipyardURL, cfg.RequestTimeout))
	}

	// 2. Optional image builds
	var imageBuilder ports.BuilderService
	if cfg.BuildEnabled {
		b, err := builder.NewBuilderAdapter()
		if err != nil {
			log.Fatalf("Failed to initialize builder: %v", err)
		}
		imageBuilder = b
	}

	app := http.NewApp(http.Options{
		Connector:       connector,
		Builder:         imageBuilder,
		RequestTimeout:  cfg.RequestTimeout,
		InsecureCookies: cfg.InsecureCookies,
		StaticDir:       cfg.StaticDir,
		Version:         cfg.Version.String(),
		AccessLog:       cfg.LogLevel == "debug",
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Infof("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error(err)
		}
	}()

	log.Infof("Shipyard dashboard %s listening on %s (backend: %s)", cfg.Version, cfg.Listen, cfg.Backend)
	if err := app.Listen(cfg.Listen); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	if closeBackend != nil {
		if err := closeBackend(); err != nil {
			log.Error(err)
		}
	}
	log.Infof("Server stopped")
}
