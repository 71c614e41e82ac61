// Package analytics reads the most viewed game pages from the GA4 Data API.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/amankumarsingh77/gamerscrawl/config"
	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	readonlyScope = "https://www.googleapis.com/auth/analytics.readonly"
	Period        = "30days"
	pathPrefix    = "/games/"
)

type Client struct {
	http       *fetch.Client
	propertyID string
	baseURL    string
}

// NewClient expects httpClient to authorize requests already.
func NewClient(httpClient *fetch.Client, propertyID string) *Client {
	return &Client{
		http:       httpClient,
		propertyID: propertyID,
		baseURL:    "https://analyticsdata.googleapis.com/v1beta",
	}
}

// FromConfig builds a client from the service account in the environment or
// the credentials file. It returns nil when neither is configured.
func FromConfig(ctx context.Context, cfg config.AnalyticsConfig, base *fetch.Client) (*Client, error) {
	var creds []byte
	switch {
	case cfg.ServiceAccount != "":
		creds = []byte(cfg.ServiceAccount)
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if os.IsNotExist(err) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read GA4 credentials: %w", err)
		}
		creds = data
	default:
		return nil, nil
	}
	if cfg.PropertyID == "" {
		return nil, fmt.Errorf("GA4_PROPERTY_ID is not set")
	}

	credentials, err := google.CredentialsFromJSON(ctx, creds, readonlyScope)
	if err != nil {
		return nil, fmt.Errorf("invalid GA4 credentials: %w", err)
	}
	hc := oauth2.NewClient(ctx, credentials.TokenSource)
	hc.Timeout = base.HTTPClient().Timeout
	return NewClient(base.WithHTTPClient(hc), cfg.PropertyID), nil
}

type runReportRequest struct {
	DateRanges      []dateRange `json:"dateRanges"`
	Dimensions      []named     `json:"dimensions"`
	Metrics         []named     `json:"metrics"`
	DimensionFilter filterExpr  `json:"dimensionFilter"`
	OrderBys        []orderBy   `json:"orderBys"`
	Limit           string      `json:"limit"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type named struct {
	Name string `json:"name"`
}

type filterExpr struct {
	Filter struct {
		FieldName    string `json:"fieldName"`
		StringFilter struct {
			MatchType string `json:"matchType"`
			Value     string `json:"value"`
		} `json:"stringFilter"`
	} `json:"filter"`
}

type orderBy struct {
	Metric struct {
		MetricName string `json:"metricName"`
	} `json:"metric"`
	Desc bool `json:"desc"`
}

func buildRequest(days, limit int) runReportRequest {
	req := runReportRequest{
		DateRanges: []dateRange{{StartDate: fmt.Sprintf("%ddaysAgo", days), EndDate: "today"}},
		Dimensions: []named{{Name: "pagePath"}},
		Metrics:    []named{{Name: "screenPageViews"}},
		Limit:      strconv.Itoa(limit),
	}
	req.DimensionFilter.Filter.FieldName = "pagePath"
	req.DimensionFilter.Filter.StringFilter.MatchType = "BEGINS_WITH"
	req.DimensionFilter.Filter.StringFilter.Value = pathPrefix
	var order orderBy
	order.Metric.MetricName = "screenPageViews"
	order.Desc = true
	req.OrderBys = []orderBy{order}
	return req
}

// PopularGames returns the most viewed /games/<slug>/ pages of the last days.
func (c *Client) PopularGames(ctx context.Context, days, limit int) ([]models.PopularGame, error) {
	body, err := json.Marshal(buildRequest(days, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to build report request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/properties/%s:runReport", c.baseURL, c.propertyID)
	res, err := c.http.PostJSON(ctx, endpoint, body, nil)
	if err != nil {
		return nil, fmt.Errorf("runReport: %w", err)
	}

	var report struct {
		Rows []struct {
			DimensionValues []struct {
				Value string `json:"value"`
			} `json:"dimensionValues"`
			MetricValues []struct {
				Value string `json:"value"`
			} `json:"metricValues"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(res, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}

	var games []models.PopularGame
	for _, row := range report.Rows {
		if len(row.DimensionValues) == 0 || len(row.MetricValues) == 0 {
			continue
		}
		slug := strings.TrimSuffix(strings.Replace(row.DimensionValues[0].Value, pathPrefix, "", 1), "/")
		if slug == "" {
			continue
		}
		views, _ := strconv.Atoi(row.MetricValues[0].Value)
		games = append(games, models.PopularGame{Slug: slug, Views: views})
	}
	return games, nil
}

// SavePopular writes the 30 day top 10 to data/popular-games.json. A nil
// client or a failed report saves an empty list.
func SavePopular(ctx context.Context, c *Client, store *storage.Storage) (*models.PopularGames, error) {
	var games []models.PopularGame
	if c == nil {
		log.Warn("GA4 credentials not found, skipping analytics")
	} else {
		var err error
		if games, err = c.PopularGames(ctx, 30, 10); err != nil {
			log.WithField("source", "ga4").Errorf("popular games failed: %v", err)
			games = nil
		}
	}
	if games == nil {
		games = []models.PopularGame{}
	}
	log.Printf("Popular games: %d", len(games))

	popular := &models.PopularGames{
		UpdatedAt: kst.Timestamp(kst.Now()),
		Period:    Period,
		Games:     games,
	}
	if err := store.SavePopularGames(popular); err != nil {
		return nil, fmt.Errorf("failed to save popular games: %w", err)
	}
	return popular, nil
}
