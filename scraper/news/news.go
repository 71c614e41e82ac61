// Package news collects headline lists from Korean game news sites.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/gocolly/colly"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	maxItems    = 15
	titleLength = 55
	minTitleLen = 10

	invenBase      = "https://www.inven.co.kr"
	gamemecaBase   = "https://www.gamemeca.com"
	thisisgameBase = "https://www.thisisgame.com"
)

var rssImageRe = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)

// Renderer returns the HTML of a page after its scripts ran.
type Renderer interface {
	RenderHTML(ctx context.Context, pageURL string) (string, error)
}

type Scraper struct {
	http          *fetch.Client
	renderer      Renderer
	invenURL      string
	ruliwebURL    string
	gamemecaURL   string
	thisisgameURL string
}

func NewScraper(httpClient *fetch.Client, renderer Renderer) *Scraper {
	return &Scraper{
		http:          httpClient,
		renderer:      renderer,
		invenURL:      invenBase + "/webzine/news/?hotnews=1",
		ruliwebURL:    "http://bbs.ruliweb.com/news/rss",
		gamemecaURL:   gamemecaBase + "/news.php",
		thisisgameURL: thisisgameBase + "/",
	}
}

// list accumulates items under the shared title rules.
type list struct {
	source string
	items  []models.NewsItem
	seen   map[string]bool
}

func newList(source string) *list {
	return &list{source: source, seen: make(map[string]bool)}
}

func (l *list) full() bool { return len(l.items) >= maxItems }

func (l *list) add(rawTitle, link, thumbnail string) {
	if l.full() || link == "" {
		return
	}
	rawTitle, _, _ = strings.Cut(rawTitle, "\n")
	title := CleanTitle(rawTitle)
	if utf8.RuneCountInString(title) <= minTitleLen || l.seen[title] {
		return
	}
	l.seen[title] = true
	l.items = append(l.items, models.NewsItem{
		Title:     Truncate(title, titleLength),
		Link:      link,
		Tag:       ExtractGameTag(rawTitle),
		Thumbnail: thumbnail,
		Source:    l.source,
	})
}

func absolute(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return base + href
}

// Fetch collects every source concurrently. A failing source is logged and
// left empty.
func (s *Scraper) Fetch(ctx context.Context) models.NewsSources {
	var res models.NewsSources
	sources := []struct {
		name string
		dst  *[]models.NewsItem
		fn   func(context.Context) ([]models.NewsItem, error)
	}{
		{"inven", &res.Inven, s.Inven},
		{"ruliweb", &res.Ruliweb, s.Ruliweb},
		{"gamemeca", &res.Gamemeca, s.Gamemeca},
		{"thisisgame", &res.Thisisgame, s.Thisisgame},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			items, err := src.fn(gctx)
			if err != nil {
				log.WithField("source", src.name).Warnf("news failed: %v", err)
				return nil
			}
			*src.dst = items
			log.Printf("News %s: %d", src.name, len(items))
			return nil
		})
	}
	_ = g.Wait()
	return res
}

// Inven crawls the hot news page.
func (s *Scraper) Inven(ctx context.Context) ([]models.NewsItem, error) {
	c := colly.NewCollector(colly.UserAgent(fetch.UserAgent))
	c.SetRequestTimeout(15 * time.Second)

	var (
		mu    sync.Mutex
		items []models.NewsItem
		err   error
	)
	c.OnError(func(r *colly.Response, e error) {
		mu.Lock()
		err = fmt.Errorf("%s: %w", r.Request.URL, e)
		mu.Unlock()
	})
	c.OnHTML("html", func(e *colly.HTMLElement) {
		mu.Lock()
		items = ParseInven(e.DOM)
		mu.Unlock()
	})

	if visitErr := c.Visit(s.invenURL); visitErr != nil {
		return nil, visitErr
	}
	c.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return items, err
}

func ParseInven(root *goquery.Selection) []models.NewsItem {
	l := newList("inven")
	root.Find(`a[href*="/webzine/news/?news="]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if l.full() {
			return false
		}
		href, _ := a.Attr("href")
		titleEl := a.Find("span.cols.title")
		if href == "" || titleEl.Length() == 0 {
			return true
		}
		thumb, _ := a.Closest("li").Find("img").Attr("src")
		if thumb == "" {
			thumb, _ = a.Find("img").Attr("src")
		}
		titleEl = titleEl.Clone()
		titleEl.Find(".cmtnum").Remove()
		l.add(strings.TrimSpace(titleEl.Text()), absolute(invenBase, href), absolute(invenBase, thumb))
		return true
	})
	return l.items
}

type rssFeed struct {
	Items []struct {
		Title       string `xml:"title"`
		Link        string `xml:"link"`
		Description string `xml:"description"`
	} `xml:"channel>item"`
}

// Ruliweb reads the news RSS feed.
func (s *Scraper) Ruliweb(ctx context.Context) ([]models.NewsItem, error) {
	body, err := s.http.Get(ctx, s.ruliwebURL, nil)
	if err != nil {
		return nil, err
	}
	return ParseRuliweb(body)
}

func ParseRuliweb(body []byte) ([]models.NewsItem, error) {
	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse rss: %w", err)
	}
	l := newList("ruliweb")
	for _, item := range feed.Items {
		var thumb string
		if m := rssImageRe.FindStringSubmatch(item.Description); m != nil {
			thumb = m[1]
		}
		l.add(strings.TrimSpace(item.Title), strings.TrimSpace(item.Link), thumb)
	}
	return l.items, nil
}

// Gamemeca reads the news list page.
func (s *Scraper) Gamemeca(ctx context.Context) ([]models.NewsItem, error) {
	doc, err := s.http.GetDocument(ctx, s.gamemecaURL, nil)
	if err != nil {
		return nil, err
	}
	return ParseGamemeca(doc.Selection), nil
}

func ParseGamemeca(root *goquery.Selection) []models.NewsItem {
	l := newList("gamemeca")
	root.Find("strong.tit_thumb a, strong.tit_thumb_h a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if l.full() {
			return false
		}
		href, _ := a.Attr("href")
		thumb, _ := a.Closest("li").Find("img").Attr("src")
		l.add(strings.TrimSpace(a.Text()), absolute(gamemecaBase, href), absolute(gamemecaBase, thumb))
		return true
	})
	return l.items
}

// Thisisgame renders the front page, which is built client side.
func (s *Scraper) Thisisgame(ctx context.Context) ([]models.NewsItem, error) {
	if s.renderer == nil {
		return nil, nil
	}
	html, err := s.renderer.RenderHTML(ctx, s.thisisgameURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return ParseThisisgame(doc.Selection), nil
}

func ParseThisisgame(root *goquery.Selection) []models.NewsItem {
	l := newList("thisisgame")
	root.Find(`div.relative > a[href*="/articles/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if l.full() {
			return false
		}
		href, _ := a.Attr("href")
		if href == "" || strings.Contains(href, "newsId=") || strings.Contains(href, "categoryId=") || strings.Contains(href, "community") {
			return true
		}
		thumb, _ := a.Find("img").Attr("src")
		if thumb == "" {
			return true
		}
		var title string
		if p := a.Find("p").First(); p.Length() > 0 {
			title = p.Text()
		} else {
			title = a.Text()
		}
		title, _, _ = strings.Cut(strings.TrimSpace(title), "\n")
		if utf8.RuneCountInString(title) >= 100 {
			return true
		}
		l.add(title, absolute(thisisgameBase, href), absolute(thisisgameBase, thumb))
		return true
	})
	return l.items
}
