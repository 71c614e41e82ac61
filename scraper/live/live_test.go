package live

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amankumarsingh77/gamerscrawl/config"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParseChzzk(t *testing.T) {
	res := gjson.Parse(`{"content":{"streamingLiveList":[
		{"liveTitle":"talk","categoryType":"ETC"},
		{"liveTitle":"lol","categoryType":"GAME","liveCategoryValue":"League of Legends",
		 "liveImageUrl":"https://img/{type}.jpg","concurrentUserCount":1200,
		 "channel":{"channelName":"faker","channelId":"abc"}},
		{"liveTitle":"mc","liveCategory":"GAME","categoryValue":"Minecraft","defaultThumbnailImageUrl":"d.jpg"}
	]}}`)

	lives := ParseChzzk(res)
	require.Len(t, lives, 2)
	assert.Equal(t, 1, lives[0].Rank)
	assert.Equal(t, "https://img/480.jpg", lives[0].Thumbnail)
	assert.Equal(t, 1200, lives[0].Viewers)
	assert.Equal(t, "abc", lives[0].ChannelID)
	assert.Equal(t, "League of Legends", lives[0].Category)
	assert.Equal(t, "Minecraft", lives[1].Category)
	assert.Equal(t, "d.jpg", lives[1].Thumbnail)
}

func TestParseChzzkCapsAtFifty(t *testing.T) {
	items := make([]string, 60)
	for i := range items {
		items[i] = fmt.Sprintf(`{"liveTitle":"g%d","categoryType":"GAME"}`, i)
	}
	res := gjson.Parse(`{"content":{"streamingLiveList":[` + strings.Join(items, ",") + `]}}`)
	lives := ParseChzzk(res)
	require.Len(t, lives, 50)
	assert.Equal(t, 50, lives[49].Rank)
}

func TestSoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "liveSearch", r.URL.Query().Get("m"))
		assert.Equal(t, "https://www.sooplive.co.kr", r.Header.Get("Origin"))
		fmt.Fprint(w, `{"REAL_BROAD":[
			{"broad_title":"방송","user_nick":"닉","user_id":"id1","broad_img":"b.jpg","total_view_cnt":"3400","broad_cate_name":"게임"},
			{"broad_title":"two","broad_no":"123"}]}`)
	}))
	defer srv.Close()

	c := NewClient(fetch.NewClient(config.HTTPConfig{Timeout: 5}))
	c.soopURL = srv.URL
	lives := c.Soop(context.Background())
	require.Len(t, lives, 2)
	assert.Equal(t, 3400, lives[0].Viewers)
	assert.Equal(t, "id1", lives[0].ChannelID)
	assert.Equal(t, "https://liveimg.sooplive.co.kr/m/123", lives[1].Thumbnail)
}

func TestChzzkFailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(fetch.NewClient(config.HTTPConfig{Timeout: 5}))
	c.chzzkURL = srv.URL
	assert.Empty(t, c.Chzzk(context.Background()))
}
