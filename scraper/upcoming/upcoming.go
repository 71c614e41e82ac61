// Package upcoming collects anticipated releases for Steam, Nintendo,
// PlayStation and mobile.
package upcoming

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/appstore"
	"github.com/amankumarsingh77/gamerscrawl/pkg/firecrawl"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	maxGames    = 20
	newAppsDays = 30
	pageMaxAge  = time.Hour

	nintendoURL = "https://www.nintendo.com/kr/schedule"
	ps5URL      = "https://store.playstation.com/ko-kr/category/a7c97306-69bd-45cb-a44f-c9ffd9eaa7d3/1"
)

// TopFree is the part of the App Store client used for new mobile games.
type TopFree interface {
	TopList(ctx context.Context, chart, country string, limit int) ([]models.RankItem, error)
}

type Scraper struct {
	http      *fetch.Client
	firecrawl *firecrawl.Client
	apple     TopFree
	storeURL  string
	now       func() time.Time
}

func NewScraper(httpClient *fetch.Client, fc *firecrawl.Client, apple TopFree) *Scraper {
	return &Scraper{
		http:      httpClient,
		firecrawl: fc,
		apple:     apple,
		storeURL:  "https://store.steampowered.com",
		now:       time.Now,
	}
}

// Fetch runs the four sources concurrently; each failure leaves its list empty.
func (s *Scraper) Fetch(ctx context.Context) models.UpcomingSources {
	var res models.UpcomingSources
	sources := []struct {
		name string
		dst  *[]models.UpcomingGame
		fn   func(context.Context) ([]models.UpcomingGame, error)
	}{
		{"steam", &res.Steam, s.Steam},
		{"nintendo", &res.Nintendo, s.Nintendo},
		{"ps5", &res.PS5, s.PS5},
		{"mobile", &res.Mobile, s.Mobile},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			games, err := src.fn(gctx)
			if err != nil {
				log.WithField("source", src.name).Warnf("upcoming failed: %v", err)
				return nil
			}
			*src.dst = games
			log.Printf("Upcoming %s: %d", src.name, len(games))
			return nil
		})
	}
	_ = g.Wait()
	return res
}

// Steam reads the popular wishlist search, skipping released titles and
// add-ons.
func (s *Scraper) Steam(ctx context.Context) ([]models.UpcomingGame, error) {
	endpoint := s.storeURL + "/search/results/?query&start=0&count=50&sort_by=_ASC&filter=popularwishlist&infinite=1"
	res, err := s.http.GetJSON(ctx, endpoint, map[string]string{"Accept-Language": "ko-KR,ko;q=0.9"})
	if err != nil {
		return nil, err
	}
	if !res.Get("success").Bool() {
		return nil, fmt.Errorf("wishlist search was not successful")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Get("results_html").String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}
	return ParseWishlist(doc.Selection, s.now()), nil
}

var addOnMarkers = []string{"Supporter Pack", "Soundtrack", "Demo", "DLC"}

func ParseWishlist(root *goquery.Selection, now time.Time) []models.UpcomingGame {
	var games []models.UpcomingGame
	root.Find("a.search_result_row").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= maxGames || len(games) >= maxGames {
			return false
		}
		appID, _ := row.Attr("data-ds-appid")
		name := strings.TrimSpace(row.Find(".title").First().Text())
		released := strings.TrimSpace(row.Find(".search_released").First().Text())

		if t, ok := parseStoreDate(released); ok && t.Before(now) {
			return true
		}
		for _, marker := range addOnMarkers {
			if strings.Contains(name, marker) {
				return true
			}
		}
		if released == "" {
			released = "Coming Soon"
		}
		games = append(games, models.UpcomingGame{
			Rank:        len(games) + 1,
			Name:        name,
			AppID:       appID,
			Img:         fmt.Sprintf("https://shared.fastly.steamstatic.com/store_item_assets/steam/apps/%s/header.jpg", appID),
			Link:        "https://store.steampowered.com/app/" + appID,
			ReleaseDate: released,
			Publisher:   fmt.Sprintf("위시리스트 TOP %d", i+1),
		})
		return true
	})
	return games
}

var storeDateLayouts = []string{
	"2006년 1월 2일",
	"2 Jan, 2006",
	"Jan 2, 2006",
	"2 January, 2006",
	"January 2, 2006",
	"2006. 1. 2.",
	"2006-01-02",
}

// parseStoreDate reads a Steam release date. Vague dates such as "Coming
// soon" or "2025년 4분기" do not parse.
func parseStoreDate(s string) (time.Time, bool) {
	lower := strings.ToLower(s)
	if s == "" || strings.Contains(lower, "coming") || strings.Contains(lower, "tba") || strings.Contains(lower, "tbd") {
		return time.Time{}, false
	}
	for _, layout := range storeDateLayouts {
		if t, err := time.ParseInLocation(layout, s, kst.Location); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Mobile returns iOS top free games released within the last 30 days.
func (s *Scraper) Mobile(ctx context.Context) ([]models.UpcomingGame, error) {
	items, err := s.apple.TopList(ctx, appstore.ChartFree, "kr", 200)
	if err != nil {
		return nil, err
	}
	return NewReleases(items, s.now()), nil
}

func NewReleases(items []models.RankItem, now time.Time) []models.UpcomingGame {
	cutoff := now.AddDate(0, 0, -newAppsDays)
	var games []models.UpcomingGame
	for _, item := range items {
		if len(games) >= maxGames {
			break
		}
		released, err := time.Parse(time.RFC3339, item.Released)
		if err != nil || released.Before(cutoff) {
			continue
		}
		local := released.In(kst.Location)
		games = append(games, models.UpcomingGame{
			Rank:        len(games) + 1,
			Name:        item.Title,
			AppID:       item.AppID,
			Img:         item.Icon,
			Link:        item.URL,
			ReleaseDate: fmt.Sprintf("%d/%d 출시", int(local.Month()), local.Day()),
			Publisher:   item.Developer,
		})
	}
	return games
}

var (
	nintendoBgRe      = regexp.MustCompile(`background-image:\s*url\(["']?([^"')]+)`)
	nintendoSectionRe = regexp.MustCompile(`(?m)^\d{4}\.\d{1,2}`)
	nintendoDateRe    = regexp.MustCompile(`^(\d{4}\.\d{1,2}\.?\d*[월화수목금토일]*)`)
	nintendoGameRe    = regexp.MustCompile(`\*\*([^*]+)\*\*\s*\\?\[([^\]]+)\]\s*\]\((https?://[^)]+)\)`)

	ps5BlockRe = regexp.MustCompile(`\n-\s+\[`)
	ps5NameRe  = regexp.MustCompile(`^([^\]]+)\]\((https://store\.playstation\.com/ko-kr/concept/[^)]+)\)`)
	ps5ImageRe = regexp.MustCompile(`!\[\]\((https://image\.api\.playstation\.com/[^?]+)\?w=1920\)`)
	ps5PriceRe = regexp.MustCompile(`([\d,]+원)`)
)

// Nintendo reads the Korean release schedule. Names and dates come from the
// markdown; images come from the card backgrounds in the HTML.
func (s *Scraper) Nintendo(ctx context.Context) ([]models.UpcomingGame, error) {
	if !s.firecrawl.Enabled() {
		return nil, firecrawl.ErrNoAPIKey
	}
	doc, err := s.firecrawl.Scrape(ctx, nintendoURL, pageMaxAge, firecrawl.FormatMarkdown, firecrawl.FormatHTML)
	if err != nil {
		return nil, err
	}
	images := map[string]string{}
	if doc.HTML != "" {
		if images, err = NintendoImages(doc.HTML); err != nil {
			return nil, err
		}
	}
	return ParseNintendo(doc.Markdown, images), nil
}

func NintendoImages(html string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule html: %w", err)
	}
	images := make(map[string]string)
	doc.Find(`div.local-schedule__listContent, a[class*="local-schedule_linkBox"]`).Each(func(_ int, card *goquery.Selection) {
		name := strings.TrimSpace(card.Find("strong").First().Text())
		if name == "" || images[name] != "" {
			return
		}
		styled := card.Find(`[style*="background-image"]`).AddSelection(card.Filter(`[style*="background-image"]`))
		style, _ := styled.First().Attr("style")
		if m := nintendoBgRe.FindStringSubmatch(style); m != nil {
			images[name] = m[1]
		}
	})
	return images, nil
}

func ParseNintendo(md string, images map[string]string) []models.UpcomingGame {
	md = strings.ReplaceAll(md, `\\`, "")

	var sections []string
	start := 0
	for _, loc := range nintendoSectionRe.FindAllStringIndex(md, -1) {
		if loc[0] == 0 {
			continue
		}
		sections = append(sections, md[start:loc[0]-1])
		start = loc[0]
	}
	sections = append(sections, md[start:])

	var games []models.UpcomingGame
	seen := make(map[string]bool)
	currentDate := ""
	for _, section := range sections {
		if m := nintendoDateRe.FindStringSubmatch(section); m != nil {
			currentDate = m[1]
		}
		for _, m := range nintendoGameRe.FindAllStringSubmatch(section, -1) {
			if len(games) >= maxGames {
				return games
			}
			name := strings.TrimSpace(m[1])
			publisher := strings.TrimRight(strings.TrimSpace(m[2]), `\`)
			link := m[3]
			if seen[name] || len([]rune(name)) <= 1 || strings.Contains(name, "업그레이드 패스") || strings.Contains(link, "youtube.com") {
				continue
			}
			seen[name] = true
			date := currentDate
			if date == "" {
				date = "발매 예정"
			}
			games = append(games, models.UpcomingGame{
				Rank:        len(games) + 1,
				Name:        name,
				Img:         images[name],
				Link:        link,
				ReleaseDate: date,
				Publisher:   publisher,
			})
		}
	}
	return games
}

// PS5 reads the PlayStation Store upcoming category.
func (s *Scraper) PS5(ctx context.Context) ([]models.UpcomingGame, error) {
	if !s.firecrawl.Enabled() {
		return nil, firecrawl.ErrNoAPIKey
	}
	doc, err := s.firecrawl.Scrape(ctx, ps5URL, pageMaxAge, firecrawl.FormatMarkdown)
	if err != nil {
		return nil, err
	}
	return ParsePS5(doc.Markdown), nil
}

var ps5Skip = []string{"최신", "카테고리", "프로모션", "구독", "둘러보기"}

func ParsePS5(md string) []models.UpcomingGame {
	blocks := ps5BlockRe.Split(md, -1)
	if len(blocks) < 2 {
		return nil
	}
	var games []models.UpcomingGame
	seen := make(map[string]bool)
	for _, block := range blocks[1:] {
		if len(games) >= maxGames {
			break
		}
		m := ps5NameRe.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		name, link := strings.TrimSpace(m[1]), m[2]
		if name == "PlayStation Store" || seen[name] || containsAny(name, ps5Skip) {
			continue
		}

		var img string
		if im := ps5ImageRe.FindStringSubmatch(block); im != nil {
			img = im[1] + "?w=440"
		}
		price := "출시 예정"
		if pm := ps5PriceRe.FindStringSubmatch(block); pm != nil {
			price = pm[1]
		} else if strings.Contains(block, "발표됨") {
			price = "발표됨"
		}

		seen[name] = true
		games = append(games, models.UpcomingGame{
			Rank:        len(games) + 1,
			Name:        name,
			Img:         img,
			Link:        link,
			ReleaseDate: price,
			Publisher:   "PlayStation",
		})
	}
	return games
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
