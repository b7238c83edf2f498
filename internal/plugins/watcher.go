package plugins

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const watchDebounce = 100 * time.Millisecond

// Hooks receive add-on lifecycle changes detected by a Watcher.
type Hooks struct {
	OnActivated   func(ctx context.Context, filename string)
	OnDeactivated func(ctx context.Context, filename string)
}

// Watcher fires Hooks whenever the active-plugins file changes.
type Watcher struct {
	inventory *Inventory
	hooks     Hooks
	active    map[string]bool
}

// NewWatcher snapshots the current active set so only later changes fire.
func NewWatcher(inventory *Inventory, hooks Hooks) (*Watcher, error) {
	active, err := inventory.ActiveFilenames()
	if err != nil {
		return nil, err
	}
	return &Watcher{inventory: inventory, hooks: hooks, active: active}, nil
}

// Run watches the plugins directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.inventory.Dir()); err != nil {
		return err
	}
	log.Info().Str("path", w.inventory.Dir()).Msg("Watching add-on activation state")

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != ActiveStateFile {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce - wait a bit for write to complete
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.Sync(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Add-on watcher error")

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		}
	}
}

// Sync reloads the active set and fires hooks for every difference.
func (w *Watcher) Sync(ctx context.Context) {
	next, err := w.inventory.ActiveFilenames()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to reload active add-ons")
		return
	}

	activated, deactivated := diffActive(w.active, next)
	w.active = next

	for _, filename := range activated {
		log.Info().Str("plugin", filename).Msg("Add-on activated")
		if w.hooks.OnActivated != nil {
			w.hooks.OnActivated(ctx, filename)
		}
	}
	for _, filename := range deactivated {
		log.Info().Str("plugin", filename).Msg("Add-on deactivated")
		if w.hooks.OnDeactivated != nil {
			w.hooks.OnDeactivated(ctx, filename)
		}
	}
}

func diffActive(prev, next map[string]bool) (activated, deactivated []string) {
	for name := range next {
		if !prev[name] {
			activated = append(activated, name)
		}
	}
	for name := range prev {
		if !next[name] {
			deactivated = append(deactivated, name)
		}
	}
	sort.Strings(activated)
	sort.Strings(deactivated)
	return activated, deactivated
}
