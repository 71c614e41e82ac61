package registry

import (
	"context"
	"testing"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	titles   map[string]string
	results  map[string][]models.SearchResult
	searches []string
	lookups  []string
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		titles:  make(map[string]string),
		results: make(map[string][]models.SearchResult),
	}
}

func (f *fakeLookup) KrTitle(_ context.Context, platform, appID string) (string, error) {
	f.lookups = append(f.lookups, platform+":"+appID)
	return f.titles[platform+":"+appID], nil
}

func (f *fakeLookup) Search(_ context.Context, platform, term string, n int) ([]models.SearchResult, error) {
	f.searches = append(f.searches, platform+":"+term)
	res := f.results[platform+":"+term]
	if len(res) > n {
		res = res[:n]
	}
	return res, nil
}

type testEnv struct {
	svc    *Service
	store  *storage.Storage
	pauses int
}

func newTestEnv(t *testing.T, lookup StoreLookup) *testEnv {
	env := &testEnv{store: storage.NewStorage(t.TempDir(), "docs")}
	env.svc = NewService(env.store, lookup)
	env.svc.pause = func(context.Context, time.Duration) error {
		env.pauses++
		return nil
	}
	env.svc.now = func() time.Time { return time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC) }
	return env
}

func (e *testEnv) saveRegistry(t *testing.T, games map[string]*models.Game) {
	reg := models.NewRegistry()
	for name, g := range games {
		g.Name = name
		if g.AppIDs == nil {
			g.AppIDs = models.AppIDs{}
		}
		reg.Games[name] = g
	}
	require.NoError(t, e.store.SaveRegistry(reg))
}

func (e *testEnv) registry(t *testing.T) *models.Registry {
	reg, err := e.store.LoadRegistry()
	require.NoError(t, err)
	return reg
}

func (e *testEnv) queue(t *testing.T) *models.ReviewQueue {
	q, err := e.store.LoadReviewQueue()
	require.NoError(t, err)
	return q
}

func rank(appID, title string) models.RankItem {
	return models.RankItem{AppID: appID, Title: title}
}
