package youtube

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

func TestPopular(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "KR", r.URL.Query().Get("regionCode"))
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		cat := r.URL.Query().Get("videoCategoryId")
		fmt.Fprintf(w, `{"items":[
			{"id":"v%s","snippet":{"title":"T","channelTitle":"C","publishedAt":"2025-03-01T00:00:00Z",
			 "thumbnails":{"medium":{"url":"m.jpg"},"default":{"url":"d.jpg"}}},"statistics":{"viewCount":"12345"}},
			{"id":"w","snippet":{"title":"U","thumbnails":{"default":{"url":"d2.jpg"}}},"statistics":{}}]}`, cat)
	}))
	defer srv.Close()

	c := NewClient(fetch.NewClient(config.HTTPConfig{Timeout: 5}), "key")
	c.baseURL = srv.URL
	res := c.Popular(context.Background())

	require.Len(t, res.Gaming, 2)
	require.Len(t, res.Music, 2)
	assert.Equal(t, "v20", res.Gaming[0].VideoID)
	assert.Equal(t, "v10", res.Music[0].VideoID)
	assert.Equal(t, int64(12345), res.Gaming[0].Views)
	assert.Equal(t, "m.jpg", res.Gaming[0].Thumbnail)
	assert.Equal(t, 2, res.Gaming[1].Rank)
	assert.Equal(t, "d2.jpg", res.Gaming[1].Thumbnail)
	assert.Zero(t, res.Gaming[1].Views)
}

func TestPopularWithoutKey(t *testing.T) {
	c := NewClient(fetch.NewClient(config.HTTPConfig{}), "")
	res := c.Popular(context.Background())
	assert.Empty(t, res.Gaming)
	assert.Empty(t, res.Music)
}
