package analytics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amankumarsingh77/gamerscrawl/config"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestPopularGames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/properties/123:runReport", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		req := gjson.ParseBytes(body)
		assert.Equal(t, "30daysAgo", req.Get("dateRanges.0.startDate").String())
		assert.Equal(t, "/games/", req.Get("dimensionFilter.filter.stringFilter.value").String())
		assert.True(t, req.Get("orderBys.0.desc").Bool())
		assert.Equal(t, "10", req.Get("limit").String())
		fmt.Fprint(w, `{"rows":[
			{"dimensionValues":[{"value":"/games/lost-ark/"}],"metricValues":[{"value":"120"}]},
			{"dimensionValues":[{"value":"/games/"}],"metricValues":[{"value":"50"}]},
			{"dimensionValues":[{"value":"/games/메이플스토리"}],"metricValues":[{"value":"30"}]}]}`)
	}))
	defer srv.Close()

	c := NewClient(fetch.NewClient(config.HTTPConfig{Timeout: 5}), "123")
	c.baseURL = srv.URL

	games, err := c.PopularGames(context.Background(), 30, 10)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "lost-ark", games[0].Slug)
	assert.Equal(t, 120, games[0].Views)
	assert.Equal(t, "메이플스토리", games[1].Slug)
}

func TestSavePopularWithoutClient(t *testing.T) {
	store := storage.NewStorage(t.TempDir(), "docs")
	popular, err := SavePopular(context.Background(), nil, store)
	require.NoError(t, err)
	assert.Empty(t, popular.Games)
	assert.Equal(t, Period, popular.Period)

	loaded, err := store.LoadPopularGames()
	require.NoError(t, err)
	assert.Equal(t, popular.UpdatedAt, loaded.UpdatedAt)
	assert.NotNil(t, loaded.Games)
}

func TestFromConfigWithoutCredentials(t *testing.T) {
	base := fetch.NewClient(config.HTTPConfig{})
	c, err := FromConfig(context.Background(), config.AnalyticsConfig{}, base)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = FromConfig(context.Background(), config.AnalyticsConfig{CredentialsFile: t.TempDir() + "/missing.json"}, base)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = FromConfig(context.Background(), config.AnalyticsConfig{ServiceAccount: "{", PropertyID: "1"}, base)
	assert.Error(t, err)
}
