package rankings

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	platform string
	fail     map[string]bool

	mu    sync.Mutex
	calls []string
}

func (f *fakeLister) TopList(_ context.Context, chart, country string, limit int) ([]models.RankItem, error) {
	key := chart + ":" + country
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	if f.fail[key] {
		return nil, errors.New("boom")
	}
	return []models.RankItem{{Rank: 1, AppID: f.platform + "-" + key, Title: key}}, nil
}

func TestFetch(t *testing.T) {
	ios := &fakeLister{platform: "ios", fail: map[string]bool{"free:jp": true}}
	android := &fakeLister{platform: "android"}

	res := NewCollector(ios, android).Fetch(context.Background())

	assert.Len(t, ios.calls, 10)
	assert.Len(t, android.calls, 8)
	assert.NotContains(t, android.calls, "grossing:cn")

	kr := res.List(ChartGrossing, "kr", models.PlatformAndroid)
	require.Len(t, kr, 1)
	assert.Equal(t, "android-grossing:kr", kr[0].AppID)

	jpFree := res.List(ChartFree, "jp", models.PlatformIOS)
	assert.NotNil(t, jpFree)
	assert.Empty(t, jpFree)

	cn := res.List(ChartGrossing, "cn", models.PlatformAndroid)
	assert.NotNil(t, cn)
	assert.Empty(t, cn)
	assert.Len(t, res.List(ChartGrossing, "cn", models.PlatformIOS), 1)
}

func TestCountryName(t *testing.T) {
	assert.Equal(t, "대한민국", CountryName("kr"))
	assert.Equal(t, "xx", CountryName("xx"))
}
