package registry

import (
	"context"
	"testing"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appIDSnapshot() *models.Snapshot {
	snap := &models.Snapshot{Rankings: models.Rankings{}}
	snap.Rankings.Set("grossing", "kr", "ios", []models.RankItem{rank("1000", "원신")})
	snap.Rankings.Set("grossing", "jp", "ios", []models.RankItem{rank("1001", "原神")})
	snap.Rankings.Set("grossing", "us", "ios", []models.RankItem{rank("1002", "Genshin Impact")})
	snap.Rankings.Set("grossing", "tw", "ios", []models.RankItem{rank("1000", "原神 TW")})
	snap.Rankings.Set("grossing", "us", "android", []models.RankItem{rank("com.genshin", "Genshin Impact")})
	snap.Rankings.Set("free", "jp", "ios", []models.RankItem{rank("2000", "Genshin Impact")})
	return snap
}

func TestSyncAppIDs(t *testing.T) {
	reg := models.NewRegistry()
	reg.Games["원신"] = &models.Game{
		Name:    "원신",
		AppIDs:  models.AppIDs{"ios": "1000"},
		Aliases: []string{"Genshin Impact"},
	}

	aliases, regions := SyncAppIDs(reg, appIDSnapshot())

	assert.Equal(t, 1, aliases)
	assert.Equal(t, 1, regions)
	g := reg.Games["원신"]
	assert.Equal(t, []string{"Genshin Impact", "原神 TW"}, g.Aliases)
	assert.Equal(t, models.AppIDs{"ios": "1000", "ios:us": "1002"}, g.AppIDs)
}

func TestSyncAppIDsKeepsExistingRegionKey(t *testing.T) {
	reg := models.NewRegistry()
	reg.Games["원신"] = &models.Game{
		Name:    "원신",
		AppIDs:  models.AppIDs{"ios": "1000", "ios:us": "9999", "android": "com.genshin"},
		Aliases: []string{"Genshin Impact"},
	}

	_, regions := SyncAppIDs(reg, appIDSnapshot())

	assert.Equal(t, 0, regions)
	assert.Equal(t, "9999", reg.Games["원신"].AppIDs["ios:us"])
	assert.NotContains(t, reg.Games["원신"].AppIDs, "android:us")
}

func TestSyncAppIDsPrefersAliasRegions(t *testing.T) {
	reg := models.NewRegistry()
	reg.Games["X"] = &models.Game{
		Name:    "X",
		AppIDs:  models.AppIDs{"ios": "1000"},
		Aliases: []string{"X Global"},
	}
	snap := &models.Snapshot{Rankings: models.Rankings{}}
	snap.Rankings.Set("grossing", "jp", "ios", []models.RankItem{rank("3001", "X"), rank("3002", "X Global")})

	_, regions := SyncAppIDs(reg, snap)

	assert.Equal(t, 1, regions)
	assert.Equal(t, "3002", reg.Games["X"].AppIDs["ios:jp"])
}

func TestServiceSyncAppIDs(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.svc.SyncAppIDs(context.Background())
	assert.ErrorIs(t, err, ErrNoHistory)

	require.NoError(t, env.store.SaveSnapshot("2025-03-01", &models.Snapshot{Rankings: models.Rankings{}}))
	require.NoError(t, env.store.SaveSnapshot("2025-03-02", appIDSnapshot()))
	env.saveRegistry(t, map[string]*models.Game{
		"원신": {AppIDs: models.AppIDs{"ios": "1000"}, Aliases: []string{"Genshin Impact"}},
	})

	res, err := env.svc.SyncAppIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", res.Date)
	assert.Equal(t, 1, res.Regions)
	assert.Equal(t, "1002", env.registry(t).Games["원신"].AppIDs["ios:us"])
}
