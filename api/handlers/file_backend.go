package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/registry"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// FileBackend serves the API from the JSON store. The registry is cached and
// reloaded by Watch when data/games.json changes.
type FileBackend struct {
	store *storage.Storage

	mu     sync.RWMutex
	names  []string
	games  map[string]*models.Game
	keys   map[string][]string
	bySlug map[string]*models.Game
}

func NewFileBackend(store *storage.Storage) (*FileBackend, error) {
	b := &FileBackend{store: store}
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload reads games.json again and rebuilds the slug index.
func (b *FileBackend) Reload() error {
	reg, err := b.store.LoadRegistry()
	if err != nil {
		return err
	}
	slugs := registry.AssignSlugs(reg)
	bySlug := make(map[string]*models.Game, len(slugs))
	keys := make(map[string][]string, len(reg.Games))
	names := make([]string, 0, len(reg.Games))
	for name, g := range reg.Games {
		g.Slug = slugs[name]
		if g.Slug != "" {
			bySlug[g.Slug] = g
		}
		keys[name] = registry.SearchKeys(name, g)
		names = append(names, name)
	}
	sort.Strings(names)

	b.mu.Lock()
	b.names, b.games, b.keys, b.bySlug = names, reg.Games, keys, bySlug
	b.mu.Unlock()
	log.Printf("Registry loaded: %d games", len(names))
	return nil
}

// Watch reloads the registry whenever it is rewritten, until ctx is done.
func (b *FileBackend) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// games.json is replaced by rename, so watch the directory.
	dir := b.store.DataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Base(b.store.RegistryPath())
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target || !event.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
				continue
			}
			if err := b.Reload(); err != nil {
				log.Warnf("registry reload failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("watcher error: %v", err)
		}
	}
}

// SearchGames returns games whose name or alias contains q after
// NormalizeName. A query that normalizes to nothing matches no game.
func (b *FileBackend) SearchGames(_ context.Context, q string, limit int) ([]*models.Game, error) {
	key := registry.NormalizeName(q)
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []*models.Game{}
	if key == "" {
		return out, nil
	}
	for _, name := range b.names {
		if len(out) >= limit {
			break
		}
		if registry.MatchesQuery(key, b.keys[name]) {
			out = append(out, b.games[name])
		}
	}
	return out, nil
}

func (b *FileBackend) GameBySlug(_ context.Context, slug string) (*models.Game, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	g, ok := b.bySlug[slug]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", slug, storage.ErrNotFound)
	}
	return g, nil
}

func (b *FileBackend) Report(_ context.Context, date string) (*models.DailyReport, error) {
	return b.store.LoadReport(date)
}

func (b *FileBackend) Weekly(_ context.Context, id string) (*models.WeeklyReport, error) {
	return b.store.LoadWeekly(id)
}

func (b *FileBackend) ReviewQueue(_ context.Context) (*models.ReviewQueue, error) {
	return b.store.LoadReviewQueue()
}
