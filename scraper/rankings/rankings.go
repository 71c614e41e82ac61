// Package rankings collects the App Store and Google Play game charts for
// every tracked country.
package rankings

import (
	"context"
	"sync"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/playstore"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	ChartGrossing = "grossing"
	ChartFree     = "free"

	listSize    = 200
	concurrency = 2
)

type Country struct {
	Code string
	Name string
	Flag string
}

var Countries = []Country{
	{Code: "kr", Name: "대한민국", Flag: "🇰🇷"},
	{Code: "jp", Name: "일본", Flag: "🇯🇵"},
	{Code: "us", Name: "미국", Flag: "🇺🇸"},
	{Code: "cn", Name: "중국", Flag: "🇨🇳"},
	{Code: "tw", Name: "대만", Flag: "🇹🇼"},
}

// CountryName returns the Korean display name of code, or code itself.
func CountryName(code string) string {
	for _, c := range Countries {
		if c.Code == code {
			return c.Name
		}
	}
	return code
}

// Lister is implemented by the App Store and Google Play clients.
type Lister interface {
	TopList(ctx context.Context, chart, country string, limit int) ([]models.RankItem, error)
}

type Collector struct {
	ios     Lister
	android Lister
}

func NewCollector(ios, android Lister) *Collector {
	return &Collector{ios: ios, android: android}
}

// Fetch returns every chart of every country. Countries are fetched two at a
// time; a failed list is logged and stored empty.
func (c *Collector) Fetch(ctx context.Context) models.Rankings {
	res := models.Rankings{}
	var mu sync.Mutex
	set := func(chart, country, platform string, items []models.RankItem) {
		if items == nil {
			items = []models.RankItem{}
		}
		mu.Lock()
		res.Set(chart, country, platform, items)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, country := range Countries {
		g.Go(func() error {
			log.Printf("Fetching %s...", country.Name)
			for _, chart := range []string{ChartGrossing, ChartFree} {
				set(chart, country.Code, models.PlatformIOS, c.list(gctx, c.ios, "ios", chart, country.Code))
				if playstore.Supported(country.Code) {
					set(chart, country.Code, models.PlatformAndroid, c.list(gctx, c.android, "android", chart, country.Code))
				} else {
					set(chart, country.Code, models.PlatformAndroid, nil)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return res
}

func (c *Collector) list(ctx context.Context, l Lister, platform, chart, country string) []models.RankItem {
	items, err := l.TopList(ctx, chart, country, listSize)
	if err != nil {
		log.WithFields(log.Fields{"platform": platform, "chart": chart, "country": country}).Warnf("ranking failed: %v", err)
		return nil
	}
	return items
}
