package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jobmanager/helper/internal/api"
	"github.com/jobmanager/helper/internal/helper"
	"github.com/jobmanager/helper/internal/plugins"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin API, add-on watcher and periodic update checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return withApp(ctx, func(a *app) error {
			return runServer(ctx, a)
		})
	},
}

func runServer(ctx context.Context, a *app) error {
	if err := os.MkdirAll(a.inventory.Dir(), 0o755); err != nil {
		return fmt.Errorf("create plugins dir: %w", err)
	}

	watcher, err := plugins.NewWatcher(a.inventory, plugins.Hooks{
		OnActivated: a.helper.PluginActivated,
		OnDeactivated: func(ctx context.Context, filename string) {
			n := helper.NewNotices()
			a.helper.PluginDeactivated(ctx, n, filename)
			logNotices(n)
		},
	})
	if err != nil {
		return err
	}

	router := api.NewRouter(api.NewHandler(api.Deps{
		Helper:     a.helper,
		Transients: a.transients,
		Health:     a.store.Ping,
		Version:    Version,
	}))
	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("version", Version).Msg("Starting jobmanager-helper admin API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin API: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down admin API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
		return nil
	})

	g.Go(func() error {
		return watcher.Run(ctx)
	})

	g.Go(func() error {
		runUpdateChecks(ctx, a, a.cfg.UpdateCheckInterval)
		return nil
	})

	return g.Wait()
}

// runUpdateChecks refreshes the update transient now and then every interval
// until ctx is done.
func runUpdateChecks(ctx context.Context, a *app, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n := helper.NewNotices()
		transient, err := a.helper.RefreshUpdates(ctx, n, a.transients, time.Now())
		if err != nil {
			log.Error().Err(err).Msg("Failed to store update transient")
		} else {
			log.Info().Int("updates", len(transient.Response)).Msg("Update check complete")
		}
		logNotices(n)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func logNotices(n *helper.Notices) {
	for product, notices := range n.All() {
		for _, notice := range notices {
			event := log.Info()
			if notice.Type == helper.NoticeError {
				event = log.Warn()
			}
			event.Str("product", product).Msg(notice.Message)
		}
	}
}
