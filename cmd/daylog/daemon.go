package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/daylog/internal/api"
	"github.com/fentz26/daylog/internal/config"
	"github.com/fentz26/daylog/internal/filelock"
	"github.com/fentz26/daylog/internal/store"
	"github.com/fentz26/daylog/internal/watcher"
)

var (
	listenAddr string
	ephemeral  bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the daylog daemon",
	Long: `Starts the daylog daemon, which owns the data directory, runs the
midnight and goal-period triggers, and serves the HTTP API.`,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
	daemonCmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "Keep all data in memory and discard it on exit")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log.Println("Starting daylog daemon...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}

	var s store.Store
	if ephemeral {
		log.Println("Using in-memory store; nothing will be persisted")
		s = store.NewMemory()
	} else {
		if err := os.MkdirAll(cfg.Dir(), 0o700); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		unlock, err := filelock.TryLock(cfg.LockPath())
		if errors.Is(err, filelock.ErrLocked) {
			return fmt.Errorf("another daylog daemon is already using %s", cfg.Dir())
		}
		if err != nil {
			return fmt.Errorf("lock data dir: %w", err)
		}
		defer unlock()

		s, err = store.Open(cfg.Store.Driver, cfg.StorePath())
		if err != nil {
			return err
		}
		log.Printf("Opened %s store at %s", cfg.Store.Driver, cfg.StorePath())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service := api.NewService(s, api.Options{
		GoalPollInterval: cfg.GoalPoll(),
		DisableJournal:   !cfg.Journal,
	})
	if err := service.Start(ctx); err != nil {
		s.Close()
		return err
	}

	if !ephemeral {
		if err := watchConfig(ctx, cfg, service); err != nil {
			log.Printf("Warning: config hot reload disabled: %v", err)
		}
	}

	server := api.NewServer(service, cfg.Listen)

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server error: %v", err)
			service.Stop()
			s.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	service.Stop()

	log.Println("Closing store...")
	if err := s.Close(); err != nil {
		log.Printf("Store close error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

// watchConfig reloads the goal poll interval and journal switch when the
// config file changes. Listen address and store changes need a restart.
func watchConfig(ctx context.Context, cfg *config.Config, service *api.Service) error {
	current := *cfg
	w, err := watcher.File(cfg.Path(), func() {
		next, err := config.Load(cfg.Dir())
		if err != nil {
			log.Printf("Ignoring config change: %v", err)
			return
		}
		service.Reload(next.GoalPoll(), next.Journal)
		if next.Listen != current.Listen || next.Store != current.Store {
			log.Printf("Listen address or store changed in %s; restart the daemon to apply", cfg.Path())
		}
	})
	if err != nil {
		return err
	}

	go func() {
		w.Run(ctx, func(err error) {
			log.Printf("Config watcher error: %v", err)
		})
		w.Close()
	}()
	log.Printf("Watching %s for changes", cfg.Path())
	return nil
}
