package appstore

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amankumarsingh77/gamerscrawl/config"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedFixture = `{"feed":{"entry":[
 {"im:name":{"label":"리니지M"},"im:artist":{"label":"NCSOFT"},
  "im:image":[{"label":"https://img/53.png"},{"label":"https://img/100.png"}],
  "id":{"label":"https://apps.apple.com/kr/app/id1095234522","attributes":{"im:id":"1095234522"}},
  "im:releaseDate":{"label":"2017-06-21T00:00:00-07:00"}},
 {"im:name":{"label":"Genshin Impact"},"im:artist":{"label":"HoYoverse"},
  "im:image":[{"label":"https://img/g.png"}],
  "id":{"label":"https://apps.apple.com/kr/app/id1517783697","attributes":{"im:id":"1517783697"}}}
]}}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(fetch.NewClient(config.HTTPConfig{Timeout: 5}))
	c.baseURL = srv.URL
	return c
}

func TestTopList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/kr/rss/topgrossingapplications/limit=200/genre=6014/json", r.URL.Path)
		fmt.Fprint(w, feedFixture)
	})

	items, err := c.TopList(context.Background(), ChartGrossing, "kr", 200)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Rank)
	assert.Equal(t, "1095234522", items[0].AppID)
	assert.Equal(t, "리니지M", items[0].Title)
	assert.Equal(t, "NCSOFT", items[0].Developer)
	assert.Equal(t, "https://img/100.png", items[0].Icon)
	assert.Equal(t, "2017-06-21T00:00:00-07:00", items[0].Released)
	assert.Equal(t, 2, items[1].Rank)
}

func TestTopListUnknownChart(t *testing.T) {
	c := NewClient(fetch.NewClient(config.HTTPConfig{}))
	_, err := c.TopList(context.Background(), "paid", "kr", 10)
	assert.Error(t, err)
}

func TestLookupAndSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/lookup":
			assert.Equal(t, "kr", r.URL.Query().Get("country"))
			fmt.Fprint(w, `{"resultCount":1,"results":[{"trackName":"원신"}]}`)
		case "/search":
			assert.Equal(t, "software", r.URL.Query().Get("entity"))
			fmt.Fprint(w, `{"results":[{"trackId":1517783697,"trackName":"원신","artistName":"HoYoverse"},
				{"trackId":1,"trackName":"Other","sellerName":"Seller"}]}`)
		}
	})

	title, err := c.Lookup(context.Background(), "1517783697", "kr")
	require.NoError(t, err)
	assert.Equal(t, "원신", title)

	res, err := c.Search(context.Background(), "원신", "kr", 5)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "1517783697", res[0].AppID)
	assert.Equal(t, "HoYoverse", res[0].Developer)
	assert.Equal(t, "Seller", res[1].Developer)
}
