// Package firecrawl is a small client for the Firecrawl scrape API, used for
// sites that block plain HTTP clients.
package firecrawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var ErrNoAPIKey = errors.New("firecrawl api key is not set")

const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

type Document struct {
	Markdown string
	HTML     string
}

type Client struct {
	http    *fetch.Client
	apiKey  string
	baseURL string
}

func NewClient(httpClient *fetch.Client, apiKey string) *Client {
	return &Client{
		http:    httpClient,
		apiKey:  apiKey,
		baseURL: "https://api.firecrawl.dev/v2",
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Scrape fetches pageURL through Firecrawl. Cached pages older than maxAge
// are refetched; zero always refetches.
func (c *Client) Scrape(ctx context.Context, pageURL string, maxAge time.Duration, formats ...string) (*Document, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}
	if len(formats) == 0 {
		formats = []string{FormatMarkdown}
	}
	body, _ := sjson.SetBytes(nil, "url", pageURL)
	body, _ = sjson.SetBytes(body, "formats", formats)
	body, err := sjson.SetBytes(body, "maxAge", maxAge.Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	res, err := c.http.PostJSON(ctx, c.baseURL+"/scrape", body, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", pageURL, err)
	}
	if !gjson.ValidBytes(res) {
		return nil, fmt.Errorf("scrape %s: invalid response", pageURL)
	}
	parsed := gjson.ParseBytes(res)
	if s := parsed.Get("success"); s.Exists() && !s.Bool() {
		return nil, fmt.Errorf("scrape %s: %s", pageURL, parsed.Get("error").String())
	}
	return &Document{
		Markdown: parsed.Get("data.markdown").String(),
		HTML:     parsed.Get("data.html").String(),
	}, nil
}
