package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/jobmanager/helper/internal/config"
	"github.com/jobmanager/helper/internal/helper"
	"github.com/jobmanager/helper/internal/helperapi"
	"github.com/jobmanager/helper/internal/logging"
	"github.com/jobmanager/helper/internal/options"
	"github.com/jobmanager/helper/internal/plugins"
	"github.com/jobmanager/helper/internal/updates"
	"github.com/rs/zerolog/log"
)

// app is the wired helper shared by every command.
type app struct {
	cfg        *config.Config
	store      *options.Store
	inventory  *plugins.Inventory
	transients *updates.Cache
	helper     *helper.Helper
	closers    []io.Closer
}

func openApp(ctx context.Context) (*app, error) {
	logging.Init(logging.Config{Format: "auto", Level: "info", Component: "jobmanager-helper"})

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(logging.Config{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		Component: "jobmanager-helper",
	})

	store, err := options.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, store: store, closers: []io.Closer{store}}

	var backend updates.Backend = store
	if cfg.RedisAddr != "" {
		rb, err := updates.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.Close()
			return nil, err
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("Caching update transient in redis")
		backend = rb
		a.closers = append(a.closers, rb)
	}
	a.transients = updates.NewCache(backend, 0)

	client, err := helperapi.New(helperapi.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.APITimeout,
		Site: helperapi.SiteIdentity{
			SiteURL:        cfg.SiteURL,
			NetworkSiteURL: cfg.NetworkURL(),
			Multisite:      cfg.Multisite,
		},
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.inventory = plugins.NewInventory(cfg.PluginsDir)
	a.helper = helper.New(helper.Deps{
		Options:    store,
		Inventory:  a.inventory,
		API:        client,
		Transients: a.transients,
	})
	return a, nil
}

// Close releases the stores in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close resource")
		}
	}
	a.closers = nil
}

// withApp opens the app for the duration of fn.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// printNotices writes n to w, one line per notice, and reports whether any was
// an error.
func printNotices(w io.Writer, n *helper.Notices) bool {
	all := n.All()
	products := make([]string, 0, len(all))
	for product := range all {
		products = append(products, product)
	}
	sort.Strings(products)

	failed := false
	for _, product := range products {
		for _, notice := range all[product] {
			fmt.Fprintf(w, "[%s] %s: %s\n", notice.Type, product, notice.Message)
			if notice.Type == helper.NoticeError {
				failed = true
			}
		}
	}
	return failed
}
