// Package steam collects the Steam most-played and top-seller charts.
package steam

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/gocolly/colly"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const (
	PlaceholderImage = "https://cdn.cloudflare.steamstatic.com/store/home/store_home_share.jpg"

	rankLimit    = 100
	chartPages   = 4
	perPage      = 25
	detailsBatch = 10
)

var storeHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "ko-KR,ko;q=0.9,en;q=0.8",
	"Referer":         "https://www.google.com/",
}

type Scraper struct {
	http      *fetch.Client
	storeURL  string
	chartsURL string
	pageDelay time.Duration
	pause     func(time.Duration)
}

func NewScraper(httpClient *fetch.Client) *Scraper {
	return &Scraper{
		http:      httpClient,
		storeURL:  "https://store.steampowered.com",
		chartsURL: "https://steamcharts.com",
		pageDelay: 500 * time.Millisecond,
		pause:     time.Sleep,
	}
}

// Rankings returns both charts with developers and images filled in.
// A chart that fails to load is logged and left empty.
func (s *Scraper) Rankings(ctx context.Context) models.SteamRankings {
	var res models.SteamRankings

	images, err := s.searchImages(ctx, "mostplayed")
	if err != nil {
		log.WithField("source", "steam").Warnf("most played images failed: %v", err)
	}
	if res.MostPlayed, err = s.MostPlayed(images); err != nil {
		log.WithField("source", "steam").Warnf("most played failed: %v", err)
	}
	log.Printf("Steam most played: %d", len(res.MostPlayed))

	if res.TopSellers, err = s.TopSellers(ctx); err != nil {
		log.WithField("source", "steam").Warnf("top sellers failed: %v", err)
	}
	log.Printf("Steam top sellers: %d", len(res.TopSellers))

	seen := make(map[string]bool)
	var ids []string
	for _, list := range [][]models.SteamGame{res.MostPlayed, res.TopSellers} {
		for _, g := range list {
			if !seen[g.AppID] {
				seen[g.AppID] = true
				ids = append(ids, g.AppID)
			}
		}
	}
	details := s.Details(ctx, ids)
	log.Printf("Steam details loaded: %d/%d", len(details), len(ids))
	applyDetails(res.MostPlayed, details)
	applyDetails(res.TopSellers, details)
	return res
}

func applyDetails(games []models.SteamGame, details map[string]Details) {
	for i := range games {
		d := details[games[i].AppID]
		games[i].Developer = d.Developer
		if games[i].Img == "" {
			games[i].Img = d.Image
		}
		if games[i].Img == "" {
			games[i].Img = PlaceholderImage
		}
	}
}

func (s *Scraper) searchURL(filter string) string {
	q := url.Values{
		"query":    {""},
		"start":    {"0"},
		"count":    {strconv.Itoa(rankLimit)},
		"filter":   {filter},
		"cc":       {"kr"},
		"infinite": {"1"},
	}
	return s.storeURL + "/search/results/?" + q.Encode()
}

// searchResults loads a store search page. The infinite endpoint wraps the
// rows in {"results_html": ...}; plain HTML is accepted too.
func (s *Scraper) searchResults(ctx context.Context, filter string) (*goquery.Document, error) {
	body, err := s.http.Get(ctx, s.searchURL(filter), storeHeaders)
	if err != nil {
		return nil, err
	}
	html := string(body)
	if gjson.ValidBytes(body) {
		html = gjson.GetBytes(body, "results_html").String()
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("error parsing search results: %w", err)
	}
	return doc, nil
}

func (s *Scraper) searchImages(ctx context.Context, filter string) (map[string]string, error) {
	doc, err := s.searchResults(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ParseImageMap(doc), nil
}

// ParseImageMap maps appid to capsule image of a store search page.
func ParseImageMap(doc *goquery.Document) map[string]string {
	images := make(map[string]string)
	doc.Find("a.search_result_row").Each(func(_ int, row *goquery.Selection) {
		appid, _ := row.Attr("data-ds-appid")
		img, _ := row.Find(".search_capsule img").Attr("src")
		if appid != "" && img != "" {
			images[appid] = img
		}
	})
	return images
}

// TopSellers reads the kr top seller search.
func (s *Scraper) TopSellers(ctx context.Context) ([]models.SteamGame, error) {
	doc, err := s.searchResults(ctx, "topsellers")
	if err != nil {
		return nil, err
	}
	return ParseTopSellers(doc), nil
}

func ParseTopSellers(doc *goquery.Document) []models.SteamGame {
	var games []models.SteamGame
	doc.Find("a.search_result_row").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= rankLimit {
			return false
		}
		name := strings.TrimSpace(row.Find(".title").Text())
		appid, _ := row.Attr("data-ds-appid")
		if appid == "" || name == "" {
			return true
		}
		price := strings.TrimSpace(row.Find(".discount_final_price").Text())
		if price == "" {
			price = strings.TrimSpace(row.Find(".search_price").Text())
		}
		img, _ := row.Find(".search_capsule img").Attr("src")
		games = append(games, models.SteamGame{
			Rank:     i + 1,
			AppID:    appid,
			Name:     name,
			Price:    price,
			Discount: strings.TrimSpace(row.Find(".discount_pct").Text()),
			Img:      img,
		})
		return true
	})
	return games
}

// MostPlayed crawls the steamcharts top pages one at a time.
func (s *Scraper) MostPlayed(images map[string]string) ([]models.SteamGame, error) {
	c := colly.NewCollector(
		colly.UserAgent(fetch.UserAgent),
		colly.Async(true),
	)
	c.SetRequestTimeout(15 * time.Second)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       s.pageDelay,
	}); err != nil {
		return nil, fmt.Errorf("failed to set limit rule: %v", err)
	}

	var (
		mu    sync.Mutex
		games []models.SteamGame
		errs  []error
	)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", storeHeaders["Accept-Language"])
		log.Debugf("Visiting: %s", r.URL)
	})
	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		errs = append(errs, fmt.Errorf("%s: %w", r.Request.URL, err))
		mu.Unlock()
	})
	c.OnHTML("#top-games tbody", func(e *colly.HTMLElement) {
		page := chartPage(e.Request.URL.Path)
		rows := ParseChartRows(e.DOM, page)
		for i := range rows {
			rows[i].Img = images[rows[i].AppID]
		}
		mu.Lock()
		games = append(games, rows...)
		mu.Unlock()
	})

	for page := 1; page <= chartPages; page++ {
		pageURL := s.chartsURL + "/top"
		if page > 1 {
			pageURL = fmt.Sprintf("%s/top/p.%d", s.chartsURL, page)
		}
		if err := c.Visit(pageURL); err != nil {
			return nil, fmt.Errorf("error visiting %s: %w", pageURL, err)
		}
	}
	c.Wait()

	sort.Slice(games, func(i, j int) bool { return games[i].Rank < games[j].Rank })
	if len(games) == 0 && len(errs) > 0 {
		return nil, errs[0]
	}
	return games, nil
}

func chartPage(path string) int {
	i := strings.LastIndex(path, "/p.")
	if i < 0 {
		return 1
	}
	n, err := strconv.Atoi(path[i+3:])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseChartRows reads one steamcharts top page. Ranks continue across pages
// of 25.
func ParseChartRows(body *goquery.Selection, page int) []models.SteamGame {
	var games []models.SteamGame
	body.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		rank := (page-1)*perPage + i + 1
		if rank > rankLimit {
			return false
		}
		link := row.Find(".game-name a")
		name := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		appid := href[strings.LastIndex(href, "/")+1:]
		if appid == "" || name == "" {
			return true
		}
		ccu, _ := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(row.Find("td.num").First().Text()), ",", ""))
		games = append(games, models.SteamGame{Rank: rank, AppID: appid, Name: name, CCU: ccu})
		return true
	})
	return games
}

// Details is the developer and header image of an app.
type Details struct {
	Developer string
	Image     string
}

// Details loads appdetails in batches of ten, 200 ms apart. Failed apps are
// left out of the result.
func (s *Scraper) Details(ctx context.Context, appids []string) map[string]Details {
	out := make(map[string]Details)
	var mu sync.Mutex
	for i := 0; i < len(appids); i += detailsBatch {
		end := min(i+detailsBatch, len(appids))
		g, gctx := errgroup.WithContext(ctx)
		for _, id := range appids[i:end] {
			g.Go(func() error {
				d, err := s.appDetails(gctx, id)
				if err != nil {
					log.WithField("appid", id).Debugf("appdetails failed: %v", err)
					return nil
				}
				if d != nil {
					mu.Lock()
					out[id] = *d
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
		if ctx.Err() != nil {
			break
		}
		if end < len(appids) {
			s.pause(200 * time.Millisecond)
		}
	}
	return out
}

func (s *Scraper) appDetails(ctx context.Context, appid string) (*Details, error) {
	q := url.Values{"appids": {appid}, "l": {"korean"}}
	res, err := s.http.GetJSON(ctx, s.storeURL+"/api/appdetails?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return parseDetails(res, appid), nil
}

func parseDetails(res gjson.Result, appid string) *Details {
	data := res.Get(appid + ".data")
	if !data.Exists() {
		return nil
	}
	dev := data.Get("developers.0").String()
	if dev == "" {
		dev = data.Get("publishers.0").String()
	}
	return &Details{Developer: dev, Image: data.Get("header_image").String()}
}
