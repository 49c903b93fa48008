package catalog

import (
	"context"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Active holds the catalog currently in use by a long-running process.
// Readers always see a complete catalog; reloads swap the pointer.
type Active struct {
	current atomic.Pointer[Catalog]
}

// NewActive wraps an initial catalog.
func NewActive(c *Catalog) *Active {
	a := &Active{}
	a.current.Store(c)
	return a
}

// Get returns the catalog in effect.
func (a *Active) Get() *Catalog {
	return a.current.Load()
}

// Set replaces the catalog in effect.
func (a *Active) Set(c *Catalog) {
	a.current.Store(c)
}

// Watch reloads path on every write and swaps the active catalog. It runs until ctx is done.
// A reload that fails to parse is logged and the previous catalog stays active.
func Watch(ctx context.Context, path string, active *Active) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	log.Info().Str("path", path).Msg("Watching catalog for changes")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save through rename, so Create counts as a write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cat, err := Load(path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("Catalog reload failed, keeping previous catalog")
				continue
			}

			active.Set(cat)
			log.Info().Str("path", path).Msg("Catalog reloaded")

			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Catalog watcher error")
		}
	}
}
