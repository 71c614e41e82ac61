// Package registry reconciles the games observed in daily snapshots into one
// identity per game across App Store, Google Play and Steam.
package registry

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/storage"
)

var ErrNoHistory = errors.New("no history snapshot")

// Service runs the registry jobs against the flat JSON store.
type Service struct {
	store  *storage.Storage
	lookup StoreLookup
	pause  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// NewService creates a registry service. lookup may be nil for jobs that
// never talk to the stores.
func NewService(store *storage.Storage, lookup StoreLookup) *Service {
	return &Service{
		store:  store,
		lookup: lookup,
		pause:  sleep,
		now:    time.Now,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Service) timestamp() string {
	return kst.Timestamp(s.now())
}

// Stats is a quick summary of the registry and review queue.
type Stats struct {
	TotalGames  int
	IOS         int
	Android     int
	Steam       int
	BothMobile  int
	RegionKeys  int
	Pending     int
	LastUpdated string
	LastMerged  string
}

func (s *Service) Stats() (*Stats, error) {
	reg, err := s.store.LoadRegistry()
	if err != nil {
		return nil, err
	}
	queue, err := s.store.LoadReviewQueue()
	if err != nil {
		return nil, err
	}
	st := Summarize(reg)
	st.Pending = len(queue.Pending)
	return st, nil
}

// Summarize counts platform coverage of reg.
func Summarize(reg *models.Registry) *Stats {
	st := &Stats{
		TotalGames:  len(reg.Games),
		LastUpdated: reg.LastUpdated,
		LastMerged:  reg.LastMerged,
	}
	for _, g := range reg.Games {
		ios := g.AppIDs[models.PlatformIOS] != ""
		android := g.AppIDs[models.PlatformAndroid] != ""
		if ios {
			st.IOS++
		}
		if android {
			st.Android++
		}
		if ios && android {
			st.BothMobile++
		}
		if g.AppIDs[models.PlatformSteam] != "" {
			st.Steam++
		}
		for k := range g.AppIDs {
			if models.KeyPlatform(k) != k {
				st.RegionKeys++
			}
		}
	}
	return st
}

func sortedNames(reg *models.Registry) []string {
	names := make([]string, 0, len(reg.Games))
	for name := range reg.Games {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(ids models.AppIDs) []string {
	keys := make([]string, 0, len(ids))
	for k := range ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// appIDIndex maps every app id value to the name of the game owning it.
func appIDIndex(reg *models.Registry) map[string]string {
	index := make(map[string]string)
	for _, name := range sortedNames(reg) {
		for _, id := range reg.Games[name].AppIDs {
			if id != "" {
				index[id] = name
			}
		}
	}
	return index
}

// findExistingName returns name when registered, otherwise a registered name
// with the same name key. Keys shorter than three runes never match loosely.
func findExistingName(reg *models.Registry, name string) string {
	if _, ok := reg.Games[name]; ok {
		return name
	}
	key := NormalizeNameKey(name)
	if keyLen(key) < 3 {
		return ""
	}
	for _, existing := range sortedNames(reg) {
		if NormalizeNameKey(existing) == key {
			return existing
		}
	}
	return ""
}

func oppositePlatform(platform string) string {
	if platform == models.PlatformIOS {
		return models.PlatformAndroid
	}
	return models.PlatformIOS
}

func topResults(results []models.SearchResult, n int) []models.SearchResult {
	if len(results) > n {
		results = results[:n]
	}
	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, models.SearchResult{Title: r.Title, AppID: r.AppID})
	}
	return out
}
