// Package playstore reads Google Play charts, app pages and search results.
package playstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	ChartGrossing = "grossing"
	ChartFree     = "free"

	listRPC = "vyAe2"
)

var ErrNoData = errors.New("no chart data in response")

var collections = map[string]string{
	ChartGrossing: "TOP_GROSSING",
	ChartFree:     "TOP_FREE",
}

var languages = map[string]string{
	"kr": "ko",
	"jp": "ja",
	"us": "en",
	"tw": "zh-TW",
}

// Lang returns the interface language used for a storefront country.
func Lang(country string) string {
	if l, ok := languages[country]; ok {
		return l
	}
	return "en"
}

// Supported reports whether Google Play serves the country.
func Supported(country string) bool {
	return country != "cn"
}

// listTemplate is the inner request of the chart RPC; count, collection and
// category are filled in with sjson.
const listTemplate = `[[null,[[8,[20,200]],true,null,[96,108,72,100,27,177,183,222,8,57,169,110,11,184,16,1,139,152,194,165,68,163,211,9,71,31,195,12,64,151,150,148,113,104,55,56,145,32,34,10,122]],null,[[1,5,2,8]],"TOP_GROSSING","GAME"]]`

type Client struct {
	http    *fetch.Client
	baseURL string
}

func NewClient(httpClient *fetch.Client) *Client {
	return &Client{
		http:    httpClient,
		baseURL: "https://play.google.com",
	}
}

// ListRequest builds the batchexecute form value for a chart request.
func ListRequest(collection, category string, num int) (string, error) {
	inner, err := sjson.Set(listTemplate, "0.1.0.1.1", num)
	if err != nil {
		return "", err
	}
	if inner, err = sjson.Set(inner, "0.4", collection); err != nil {
		return "", err
	}
	if inner, err = sjson.Set(inner, "0.5", category); err != nil {
		return "", err
	}
	outer, err := sjson.Set(`[[[null,null,null,null]]]`, "0.0.0", listRPC)
	if err != nil {
		return "", err
	}
	if outer, err = sjson.Set(outer, "0.0.1", inner); err != nil {
		return "", err
	}
	return sjson.Set(outer, "0.0.3", "generic")
}

// TopList returns the GAME chart of one storefront.
func (c *Client) TopList(ctx context.Context, chart, country string, num int) ([]models.RankItem, error) {
	collection, ok := collections[chart]
	if !ok {
		return nil, fmt.Errorf("unknown chart: %s", chart)
	}
	if num <= 0 {
		num = 200
	}
	req, err := ListRequest(collection, "GAME", num)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart request: %w", err)
	}
	q := url.Values{
		"rpcids":      {listRPC},
		"source-path": {"/store/apps"},
		"hl":          {Lang(country)},
		"gl":          {country},
		"authuser":    {"0"},
		"rt":          {"c"},
	}
	endpoint := c.baseURL + "/_/PlayStoreUi/data/batchexecute?" + q.Encode()
	body, err := c.http.PostForm(ctx, endpoint, url.Values{"f.req": {req}}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Android %s chart for %s: %w", chart, country, err)
	}
	items, err := ParseList(body)
	if err != nil {
		return nil, fmt.Errorf("android %s chart for %s: %w", chart, country, err)
	}
	if len(items) > num {
		items = items[:num]
	}
	return items, nil
}

// ParseList decodes a batchexecute chart response.
func ParseList(body []byte) ([]models.RankItem, error) {
	body = bytes.TrimPrefix(bytes.TrimSpace(body), []byte(")]}'"))
	var payload gjson.Result
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] != '[' || !gjson.ValidBytes(line) {
			continue
		}
		inner := gjson.GetBytes(line, "0.2")
		if inner.Type == gjson.String && inner.String() != "" {
			payload = gjson.Parse(inner.String())
			break
		}
	}
	if !payload.Exists() {
		return nil, ErrNoData
	}

	var items []models.RankItem
	for _, app := range payload.Get("0.1.0.28.0").Array() {
		appID := app.Get("0.0.0").String()
		title := app.Get("0.3").String()
		if appID == "" || title == "" {
			continue
		}
		items = append(items, models.RankItem{
			Rank:      len(items) + 1,
			AppID:     appID,
			Title:     title,
			Developer: app.Get("0.14").String(),
			Icon:      app.Get("0.1.3.2").String(),
			URL:       "https://play.google.com/store/apps/details?id=" + appID,
		})
	}
	return items, nil
}

// Title returns the store title of appID as shown in country.
func (c *Client) Title(ctx context.Context, appID, country string) (string, error) {
	q := url.Values{"id": {appID}, "hl": {Lang(country)}, "gl": {country}}
	doc, err := c.http.GetDocument(ctx, c.baseURL+"/store/apps/details?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to load app page %s: %w", appID, err)
	}
	return parseTitle(doc), nil
}

func parseTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("h1 span").First().Text()); t != "" {
		return t
	}
	t, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	if i := strings.Index(t, " - Google Play"); i > 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// Search returns the first n apps of a store search in country.
func (c *Client) Search(ctx context.Context, term, country string, n int) ([]models.SearchResult, error) {
	if n <= 0 {
		n = 5
	}
	q := url.Values{"q": {term}, "c": {"apps"}, "hl": {Lang(country)}, "gl": {country}}
	doc, err := c.http.GetDocument(ctx, c.baseURL+"/store/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", term, err)
	}
	return parseSearch(doc, n), nil
}

func parseSearch(doc *goquery.Document, n int) []models.SearchResult {
	var out []models.SearchResult
	pos := make(map[string]int)
	doc.Find(`a[href*="/store/apps/details?id="]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		id := u.Query().Get("id")
		if id == "" {
			return
		}
		title := strings.TrimSpace(a.Find("span").First().Text())
		if title == "" {
			title = strings.TrimSpace(a.Text())
		}
		if i, ok := pos[id]; ok {
			if out[i].Title == "" {
				out[i].Title = title
			}
			return
		}
		if len(out) >= n {
			return
		}
		pos[id] = len(out)
		out = append(out, models.SearchResult{Title: title, AppID: id})
	})
	return out
}
