// Package youtube reads the Korean most-popular video charts.
package youtube

import (
	"context"
	"net/url"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	CategoryGaming = "20"
	CategoryMusic  = "10"
)

type Client struct {
	http    *fetch.Client
	apiKey  string
	baseURL string
}

func NewClient(httpClient *fetch.Client, apiKey string) *Client {
	return &Client{
		http:    httpClient,
		apiKey:  apiKey,
		baseURL: "https://www.googleapis.com/youtube/v3",
	}
}

// Popular returns the gaming and music charts. Without an API key both are
// empty.
func (c *Client) Popular(ctx context.Context) models.YouTubeVideos {
	var res models.YouTubeVideos
	if c.apiKey == "" {
		log.Warn("YOUTUBE_API_KEY is not set, skipping YouTube")
		return res
	}
	var err error
	if res.Gaming, err = c.MostPopular(ctx, CategoryGaming); err != nil {
		log.WithField("source", "youtube").Warnf("gaming chart failed: %v", err)
	}
	if res.Music, err = c.MostPopular(ctx, CategoryMusic); err != nil {
		log.WithField("source", "youtube").Warnf("music chart failed: %v", err)
	}
	log.Printf("YouTube gaming: %d, music: %d", len(res.Gaming), len(res.Music))
	return res
}

func (c *Client) MostPopular(ctx context.Context, categoryID string) ([]models.Video, error) {
	q := url.Values{
		"part":            {"snippet,statistics"},
		"chart":           {"mostPopular"},
		"regionCode":      {"KR"},
		"videoCategoryId": {categoryID},
		"maxResults":      {"50"},
		"key":             {c.apiKey},
	}
	res, err := c.http.GetJSON(ctx, c.baseURL+"/videos?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return ParseVideos(res), nil
}

func ParseVideos(res gjson.Result) []models.Video {
	var videos []models.Video
	for i, item := range res.Get("items").Array() {
		thumb := item.Get("snippet.thumbnails.medium.url").String()
		if thumb == "" {
			thumb = item.Get("snippet.thumbnails.default.url").String()
		}
		videos = append(videos, models.Video{
			Rank:        i + 1,
			VideoID:     item.Get("id").String(),
			Title:       item.Get("snippet.title").String(),
			Channel:     item.Get("snippet.channelTitle").String(),
			Thumbnail:   thumb,
			Views:       item.Get("statistics.viewCount").Int(),
			PublishedAt: item.Get("snippet.publishedAt").String(),
		})
	}
	return videos
}
