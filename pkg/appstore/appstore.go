// Package appstore reads the iTunes RSS charts, lookup and search APIs.
package appstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/tidwall/gjson"
)

const (
	ChartGrossing = "grossing"
	ChartFree     = "free"

	gamesGenre = "6014"
)

var feedNames = map[string]string{
	ChartGrossing: "topgrossingapplications",
	ChartFree:     "topfreeapplications",
}

var headers = map[string]string{
	"Accept-Language": "ko-KR,ko;q=0.9",
}

type Client struct {
	http    *fetch.Client
	baseURL string
}

func NewClient(httpClient *fetch.Client) *Client {
	return &Client{
		http:    httpClient,
		baseURL: "https://itunes.apple.com",
	}
}

// TopList returns the games chart of one storefront.
func (c *Client) TopList(ctx context.Context, chart, country string, limit int) ([]models.RankItem, error) {
	feed, ok := feedNames[chart]
	if !ok {
		return nil, fmt.Errorf("unknown chart: %s", chart)
	}
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	endpoint := fmt.Sprintf("%s/%s/rss/%s/limit=%d/genre=%s/json", c.baseURL, country, feed, limit, gamesGenre)
	res, err := c.http.GetJSON(ctx, endpoint, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch iOS %s chart for %s: %w", chart, country, err)
	}
	return ParseFeed(res), nil
}

// ParseFeed converts an RSS JSON feed into rank items.
func ParseFeed(res gjson.Result) []models.RankItem {
	entries := res.Get("feed.entry")
	if entries.IsObject() {
		entries = gjson.Parse("[" + entries.Raw + "]")
	}
	var items []models.RankItem
	for _, e := range entries.Array() {
		icon := ""
		if images := e.Get("im:image").Array(); len(images) > 0 {
			icon = images[len(images)-1].Get("label").String()
		}
		items = append(items, models.RankItem{
			Rank:      len(items) + 1,
			AppID:     e.Get("id.attributes.im:id").String(),
			Title:     e.Get("im:name.label").String(),
			Developer: e.Get("im:artist.label").String(),
			Icon:      icon,
			URL:       e.Get("id.label").String(),
			Released:  e.Get("im:releaseDate.label").String(),
		})
	}
	return items
}

// Lookup returns the store title of appID in country, or "" when unknown.
func (c *Client) Lookup(ctx context.Context, appID, country string) (string, error) {
	q := url.Values{"id": {appID}, "country": {country}}
	res, err := c.http.GetJSON(ctx, c.baseURL+"/lookup?"+q.Encode(), headers)
	if err != nil {
		return "", fmt.Errorf("failed to look up %s: %w", appID, err)
	}
	return res.Get("results.0.trackName").String(), nil
}

// Search queries the software catalogue of country.
func (c *Client) Search(ctx context.Context, term, country string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{
		"term":    {term},
		"country": {country},
		"entity":  {"software"},
		"limit":   {strconv.Itoa(limit)},
	}
	res, err := c.http.GetJSON(ctx, c.baseURL+"/search?"+q.Encode(), headers)
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", term, err)
	}
	var out []models.SearchResult
	for _, r := range res.Get("results").Array() {
		dev := r.Get("sellerName").String()
		if dev == "" {
			dev = r.Get("artistName").String()
		}
		out = append(out, models.SearchResult{
			Title:     r.Get("trackName").String(),
			AppID:     r.Get("trackId").String(),
			Developer: dev,
		})
	}
	return out, nil
}
