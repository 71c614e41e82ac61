// Package live reads the live streaming rankings of chzzk and SOOP.
package live

import (
	"context"
	"net/url"
	"strings"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const maxStreams = 50

type Client struct {
	http     *fetch.Client
	chzzkURL string
	soopURL  string
}

func NewClient(httpClient *fetch.Client) *Client {
	return &Client{
		http:     httpClient,
		chzzkURL: "https://api.chzzk.naver.com/service/v1/home/lives",
		soopURL:  "https://sch.sooplive.co.kr/api.php",
	}
}

// Chzzk returns the top game streams; failures yield an empty list.
func (c *Client) Chzzk(ctx context.Context) []models.LiveStream {
	res, err := c.http.GetJSON(ctx, c.chzzkURL+"?size=200", nil)
	if err != nil {
		log.WithField("source", "chzzk").Warnf("live list failed: %v", err)
		return nil
	}
	lives := ParseChzzk(res)
	log.Printf("Chzzk game lives: %d", len(lives))
	return lives
}

func ParseChzzk(res gjson.Result) []models.LiveStream {
	var lives []models.LiveStream
	for _, item := range res.Get("content.streamingLiveList").Array() {
		if len(lives) >= maxStreams {
			break
		}
		if item.Get("categoryType").String() != "GAME" && item.Get("liveCategory").String() != "GAME" {
			continue
		}
		thumb := item.Get("liveImageUrl").String()
		if thumb == "" {
			thumb = item.Get("defaultThumbnailImageUrl").String()
		}
		category := item.Get("liveCategoryValue").String()
		if category == "" {
			category = item.Get("categoryValue").String()
		}
		lives = append(lives, models.LiveStream{
			Rank:      len(lives) + 1,
			Title:     item.Get("liveTitle").String(),
			Channel:   item.Get("channel.channelName").String(),
			ChannelID: item.Get("channel.channelId").String(),
			Thumbnail: strings.ReplaceAll(thumb, "{type}", "480"),
			Viewers:   int(item.Get("concurrentUserCount").Int()),
			Category:  category,
		})
	}
	return lives
}

// Soop returns the most viewed SOOP broadcasts; failures yield an empty list.
func (c *Client) Soop(ctx context.Context) []models.LiveStream {
	q := url.Values{
		"m":        {"liveSearch"},
		"szOrder":  {"view_cnt"},
		"nPageNo":  {"1"},
		"nListCnt": {"50"},
	}
	res, err := c.http.GetJSON(ctx, c.soopURL+"?"+q.Encode(), map[string]string{
		"Origin":  "https://www.sooplive.co.kr",
		"Referer": "https://www.sooplive.co.kr/",
	})
	if err != nil {
		log.WithField("source", "soop").Warnf("live list failed: %v", err)
		return nil
	}
	lives := ParseSoop(res)
	log.Printf("SOOP lives: %d", len(lives))
	return lives
}

func ParseSoop(res gjson.Result) []models.LiveStream {
	var lives []models.LiveStream
	for i, item := range res.Get("REAL_BROAD").Array() {
		thumb := item.Get("broad_img").String()
		if thumb == "" {
			thumb = "https://liveimg.sooplive.co.kr/m/" + item.Get("broad_no").String()
		}
		lives = append(lives, models.LiveStream{
			Rank:      i + 1,
			Title:     item.Get("broad_title").String(),
			Channel:   item.Get("user_nick").String(),
			ChannelID: item.Get("user_id").String(),
			Thumbnail: thumb,
			Viewers:   int(item.Get("total_view_cnt").Int()),
			Category:  item.Get("broad_cate_name").String(),
		})
	}
	return lives
}
