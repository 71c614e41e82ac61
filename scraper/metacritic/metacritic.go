// Package metacritic reads the yearly Metacritic score chart and fills
// cover images from RAWG.
package metacritic

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	log "github.com/sirupsen/logrus"
)

const (
	maxGames  = 30
	pages     = 2
	minGames  = 10
	imageWait = 200 * time.Millisecond
)

var (
	rankPrefixRe  = regexp.MustCompile(`^\d+\.\s*`)
	editionRe     = regexp.MustCompile(`(?i)[-–:]\s*(Nintendo Switch 2 Edition|Remastered|Definitive Edition|Game of the Year|GOTY|Deluxe|Ultimate|Complete|Enhanced|HD|Remake).*$`)
	leadingIntRe  = regexp.MustCompile(`^\d+`)
	browseHeaders = map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language": "ko-KR,ko;q=0.9,en;q=0.8",
		"Referer":         "https://www.metacritic.com/",
	}
)

type Scraper struct {
	http    *fetch.Client
	rawgKey string
	baseURL string
	rawgURL string
	pause   func(time.Duration)
	now     func() time.Time
}

func NewScraper(httpClient *fetch.Client, rawgKey string) *Scraper {
	return &Scraper{
		http:    httpClient,
		rawgKey: rawgKey,
		baseURL: "https://www.metacritic.com",
		rawgURL: "https://api.rawg.io/api",
		pause:   time.Sleep,
		now:     kst.Now,
	}
}

// Fetch returns the top scored games of year. With year 0 the current year
// is used, falling back to the previous one when it has fewer than 10 games.
func (s *Scraper) Fetch(ctx context.Context, year int) models.MetacriticList {
	explicit := year != 0
	if !explicit {
		year = s.now().Year()
	}

	games := s.crawlYear(ctx, year)
	log.Printf("Metacritic %d: %d", year, len(games))
	if len(games) < minGames && !explicit {
		year--
		log.Warnf("Metacritic has too few games, retrying with %d", year)
		games = s.crawlYear(ctx, year)
		log.Printf("Metacritic %d: %d", year, len(games))
	}

	if s.rawgKey == "" {
		log.Warn("RAWG_API_KEY is not set, skipping Metacritic images")
	} else {
		found := 0
		for i := range games {
			if img := s.Image(ctx, games[i].Title); img != "" {
				games[i].Img = img
				found++
			}
			s.pause(imageWait)
		}
		log.Printf("Metacritic images: %d/%d", found, len(games))
	}
	return models.MetacriticList{Year: year, Games: games}
}

func (s *Scraper) crawlYear(ctx context.Context, year int) []models.MetacriticGame {
	c := newCollector(year)
	for page := 1; page <= pages && !c.full(); page++ {
		q := url.Values{
			"releaseYearMin": {strconv.Itoa(year)},
			"releaseYearMax": {strconv.Itoa(year)},
			"page":           {strconv.Itoa(page)},
		}
		doc, err := s.http.GetDocument(ctx, s.baseURL+"/browse/game/?"+q.Encode(), browseHeaders)
		if err != nil {
			log.WithField("source", "metacritic").Warnf("page %d failed: %v", page, err)
			break
		}
		c.parse(doc.Selection)
	}
	return c.games
}

type collector struct {
	year  int
	games []models.MetacriticGame
	seen  map[string]bool
}

func newCollector(year int) *collector {
	return &collector{year: year, seen: make(map[string]bool)}
}

func (c *collector) full() bool { return len(c.games) >= maxGames }

func (c *collector) add(title, scoreText, platform, released string) {
	title = strings.TrimSpace(rankPrefixRe.ReplaceAllString(strings.TrimSpace(title), ""))
	score, _ := strconv.Atoi(leadingIntRe.FindString(strings.TrimSpace(scoreText)))
	if title == "" || score == 0 || c.seen[title] || c.full() {
		return
	}
	c.seen[title] = true
	c.games = append(c.games, models.MetacriticGame{
		Rank:        len(c.games) + 1,
		Title:       title,
		Score:       score,
		Platform:    platform,
		ReleaseDate: released,
		Year:        c.year,
	})
}

// parse reads finder cards, falling back to the anchor layout when the page
// yields nothing.
func (c *collector) parse(root *goquery.Selection) {
	root.Find(`div[class*="c-finderProductCard"]`).Each(func(_ int, card *goquery.Selection) {
		title := card.Find(`h3[class*="c-finderProductCard_titleHeading"]`).Text()
		if strings.TrimSpace(title) == "" {
			title = card.Find(`span[class*="c-finderProductCard_title"]`).Text()
		}
		meta := card.Find(`span[class*="c-finderProductCard_meta"]`)
		c.add(title,
			card.Find(`div[class*="c-siteReviewScore"]`).First().Text(),
			strings.TrimSpace(meta.First().Text()),
			strings.TrimSpace(meta.Last().Text()))
	})
	if len(c.games) > 0 {
		return
	}
	root.Find(`a[class*="c-finderProductCard"]`).Each(func(_ int, card *goquery.Selection) {
		c.add(card.Find(`[class*="title"]`).Text(), card.Find(`[class*="score"]`).Text(), "", "")
	})
}

func Parse(root *goquery.Selection, year int) []models.MetacriticGame {
	c := newCollector(year)
	c.parse(root)
	return c.games
}

// SearchTitle strips edition suffixes that confuse the RAWG search.
func SearchTitle(title string) string {
	return strings.TrimSpace(editionRe.ReplaceAllString(title, ""))
}

// Image returns the first RAWG background image that is not a screenshot,
// else the first result's image.
func (s *Scraper) Image(ctx context.Context, title string) string {
	q := url.Values{
		"key":       {s.rawgKey},
		"search":    {SearchTitle(title)},
		"page_size": {"5"},
	}
	res, err := s.http.GetJSON(ctx, s.rawgURL+"/games?"+q.Encode(), nil)
	if err != nil {
		log.Debugf("RAWG image for %q: %v", title, err)
		return ""
	}
	results := res.Get("results").Array()
	for _, r := range results {
		img := r.Get("background_image").String()
		if img != "" && !strings.Contains(img, "/screenshots/") {
			return img
		}
	}
	if len(results) > 0 {
		return results[0].Get("background_image").String()
	}
	return ""
}
