package crawl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRankings struct{}

func (fakeRankings) Fetch(context.Context) models.Rankings {
	r := models.Rankings{}
	r.Set("grossing", "kr", models.PlatformIOS, []models.RankItem{{Rank: 1, AppID: "1", Title: "리니지M"}})
	return r
}

type fakeLive struct{}

func (fakeLive) Chzzk(context.Context) []models.LiveStream {
	return []models.LiveStream{{Rank: 1, Title: "a"}}
}

func (fakeLive) Soop(context.Context) []models.LiveStream { return nil }

type fakeMetacritic struct{ year int }

func (f *fakeMetacritic) Fetch(_ context.Context, year int) models.MetacriticList {
	f.year = year
	return models.MetacriticList{Year: 2025, Games: []models.MetacriticGame{{Rank: 1, Title: "Split Fiction"}}}
}

type fakeMirror struct {
	date string
	err  error
}

func (f *fakeMirror) SaveSnapshot(_ context.Context, date string, _ *models.Snapshot) error {
	f.date = date
	return f.err
}

func TestRun(t *testing.T) {
	store := storage.NewStorage(t.TempDir(), "docs")
	meta := &fakeMetacritic{year: -1}
	mirror := &fakeMirror{err: errors.New("mongo down")}
	c := NewCrawler(Sources{Rankings: fakeRankings{}, Live: fakeLive{}, Metacritic: meta}, store, mirror)
	c.now = func() time.Time { return time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC) }

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", res.Date)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 0, meta.year)
	assert.Equal(t, "2025-03-02", mirror.date)

	saved, err := store.LoadSnapshot("2025-03-02")
	require.NoError(t, err)
	assert.Equal(t, res.RunID, saved.RunID)
	assert.Equal(t, "2025-03-01T15:00:00.000Z", saved.Timestamp)
	assert.Len(t, saved.Rankings.List("grossing", "kr", models.PlatformIOS), 1)
	assert.Len(t, saved.Chzzk, 1)

	cached, err := store.LoadCache()
	require.NoError(t, err)
	assert.Equal(t, res.RunID, cached.RunID)
}

func TestRunCancelled(t *testing.T) {
	store := storage.NewStorage(t.TempDir(), "docs")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCrawler(Sources{}, store, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCounts(t *testing.T) {
	snap := &models.Snapshot{Rankings: fakeRankings{}.Fetch(context.Background())}
	snap.Chzzk = []models.LiveStream{{}, {}}
	counts := Counts(snap)
	assert.Equal(t, SourceCount{"mobile rankings", 1}, counts[0])
	assert.Equal(t, SourceCount{"chzzk", 2}, counts[5])
}
