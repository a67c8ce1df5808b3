package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"piemixer/internal/adapter"
	"piemixer/internal/config"
	"piemixer/internal/handler"
	"piemixer/internal/hub"
	"piemixer/internal/repository/sqlite"
	"piemixer/internal/service"
	"piemixer/internal/watcher"
)

func main() {
	// Command line flags override the config file
	configFlag := flag.String("config", "", "config file path (default: search standard locations)")
	dbFlag := flag.String("db", "", "link ownership database path")
	addrFlag := flag.String("addr", "", "HTTP listen address")
	flag.Parse()

	cfg, cfgPath, err := loadConfig(*configFlag)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *dbFlag != "" {
		cfg.Database.Path = *dbFlag
	}
	if *addrFlag != "" {
		cfg.API.Addr = *addrFlag
	}

	config.SetupLogging(cfg)
	if cfgPath != "" {
		slog.Info("Loaded config", "path", cfgPath)
	} else {
		slog.Info("No config file found, using defaults")
	}

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("Database opened", "path", cfg.Database.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventBus := service.NewEventBus()

	// SSE hub fed from the event bus
	sseHub := hub.New()
	go sseHub.Run(ctx)
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go sseHub.Feed(ctx, eventChan)

	client := adapter.NewPipeWireClient(cfg.Graph.DumpCommand, cfg.Graph.LinkCommand)
	reconciler := service.NewReconciler(client, repo, eventBus)
	mixer := service.NewMixer(client, reconciler, eventBus, cfg.EffectiveRules(),
		cfg.Graph.ResyncInterval.Duration())

	// Reload rules when the config file changes
	if cfgPath != "" {
		w := watcher.New(cfgPath, func() {
			reloaded, _, err := config.LoadFromPath(cfgPath)
			if err != nil {
				slog.Warn("Ignoring config change", "error", err)
				return
			}
			mixer.SetRules(reloaded.EffectiveRules())
		})
		go func() {
			if err := w.Watch(ctx); err != nil && err != context.Canceled {
				slog.Warn("Config watcher stopped", "error", err)
			}
		}()
	}

	var server *http.Server
	if cfg.APIEnabled() {
		mux := http.NewServeMux()
		handler.NewMixerHandler(mixer).Routes(mux)
		mux.Handle("/events", sseHub)
		mux.Handle("/metrics", promhttp.Handler())

		server = &http.Server{
			Addr:         cfg.API.Addr,
			Handler:      handler.Chain(mux, handler.Recover, handler.Logger),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			slog.Info("API listening", "addr", cfg.API.Addr)
			if err := server.ListenAndServe(); err != http.ErrServerClosed {
				slog.Error("API server error", "error", err)
				cancel()
			}
		}()
	}

	mixerErr := make(chan error, 1)
	go func() {
		mixerErr <- mixer.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		slog.Info("Shutting down", "signal", sig.String())
		cancel()
		if err := <-mixerErr; err != nil {
			slog.Error("Mixer stopped with error", "error", err)
			exitCode = 1
		}
	case err := <-mixerErr:
		// The mixer only returns on cancellation or a startup failure
		if err != nil {
			slog.Error("Mixer failed", "error", err)
			exitCode = 1
		}
		cancel()
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("API shutdown error", "error", err)
		}
	}

	slog.Info("Stopped")
	os.Exit(exitCode)
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}
