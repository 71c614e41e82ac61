// Package community collects popular posts from Korean gaming communities.
package community

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/firecrawl"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	maxPosts        = 15
	ruliwebTitle    = 60
	markdownTitle   = 50
	boardTimeout    = 5 * time.Second
	boardFetchers   = 5
	channelLookback = 500

	ruliwebBase = "https://bbs.ruliweb.com"
	arcaURL     = "https://arca.live/b/live"
	dcinsideURL = "https://gall.dcinside.com/board/lists?id=dcbest"
	invenHotURL = "https://hot.inven.co.kr/"
)

var (
	digitsRe = regexp.MustCompile(`^\d+$`)

	arcaPostRe    = regexp.MustCompile(`\[((?:[^\[\]]|\\[\[\]])+)\]\((https://arca\.live/b/live/\d+[^)]*)\)`)
	arcaAgoRe     = regexp.MustCompile(`(?i)\d+\s*(hour|minute|day)s?\s*ago`)
	arcaCountRe   = regexp.MustCompile(`\[\d+\]$`)
	arcaChannelRe = regexp.MustCompile(`\d+\[([^\]]+)\]\(https://arca\.live/b/\w+[^)]*\)`)

	dcinsidePostRe = regexp.MustCompile(`\*\*\\\[([^\]]+)\\\]\*\*\s*([^\]]+)\]\((https://gall\.dcinside\.com/board/view/[^)]+)\)`)

	invenPostRe     = regexp.MustCompile(`\[(\d+)\\\\\n\\\\\n([^\n\\]+)\\\\\n\\\\\n([^\n]+)\s*\\\n\\\[(\d+)\\\]\]\((https://www\.inven\.co\.kr/board/[^)]+)\)`)
	invenTrailingRe = regexp.MustCompile(`\s*\\$`)
)

type Scraper struct {
	http        *fetch.Client
	firecrawl   *firecrawl.Client
	ruliwebBase string
	ruliwebURL  string
}

func NewScraper(httpClient *fetch.Client, fc *firecrawl.Client) *Scraper {
	return &Scraper{
		http:        httpClient,
		firecrawl:   fc,
		ruliwebBase: ruliwebBase,
		ruliwebURL:  ruliwebBase + "/best/game?orderby=recommend&range=24h",
	}
}

// Fetch collects all communities concurrently. Firecrawl sources stay empty
// when no API key is configured.
func (s *Scraper) Fetch(ctx context.Context) models.CommunitySources {
	var res models.CommunitySources

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		posts, err := s.Ruliweb(gctx)
		if err != nil {
			log.WithField("source", "ruliweb").Warnf("community failed: %v", err)
		}
		res.Ruliweb = posts
		log.Printf("Community ruliweb: %d", len(posts))
		return nil
	})

	if !s.firecrawl.Enabled() {
		log.Warn("FIRECRAWL_API_KEY is not set, skipping arca, dcinside and inven")
	} else {
		markdownSources := []struct {
			name  string
			url   string
			parse func(string) []models.CommunityPost
			dst   *[]models.CommunityPost
		}{
			{"arca", arcaURL, ParseArca, &res.Arca},
			{"dcinside", dcinsideURL, ParseDcinside, &res.Dcinside},
			{"inven", invenHotURL, ParseInvenHot, &res.Inven},
		}
		for _, src := range markdownSources {
			g.Go(func() error {
				doc, err := s.firecrawl.Scrape(gctx, src.url, 0, firecrawl.FormatMarkdown)
				if err != nil {
					log.WithField("source", src.name).Warnf("community failed: %v", err)
					return nil
				}
				*src.dst = src.parse(doc.Markdown)
				log.Printf("Community %s: %d", src.name, len(*src.dst))
				return nil
			})
		}
	}
	_ = g.Wait()
	return res
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func ellipsis(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// Ruliweb reads the 24h game best board and resolves each post's board name.
func (s *Scraper) Ruliweb(ctx context.Context) ([]models.CommunityPost, error) {
	doc, err := s.http.GetDocument(ctx, s.ruliwebURL, nil)
	if err != nil {
		return nil, err
	}
	posts := ParseRuliwebBest(doc.Selection, s.ruliwebBase)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(boardFetchers)
	for i := range posts {
		g.Go(func() error {
			posts[i].Channel = s.boardName(gctx, posts[i].Link)
			return nil
		})
	}
	_ = g.Wait()
	return posts, nil
}

func (s *Scraper) boardName(ctx context.Context, link string) string {
	ctx, cancel := context.WithTimeout(ctx, boardTimeout)
	defer cancel()
	doc, err := s.http.GetDocument(ctx, link, nil)
	if err != nil {
		log.Debugf("board name for %s: %v", link, err)
		return ""
	}
	return strings.TrimSpace(doc.Find("#board_name").First().Text())
}

func ParseRuliwebBest(root *goquery.Selection, base string) []models.CommunityPost {
	var posts []models.CommunityPost
	root.Find("table.board_list_table tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if len(posts) >= maxPosts {
			return false
		}
		titleEl := row.Find("a.deco, a.subject_link").First()
		link, _ := titleEl.Attr("href")

		var title string
		if strong := row.Find("strong.text_over, span.text_over"); strong.Length() > 0 {
			strong = strong.Clone()
			strong.Find("span.subject_tag").Remove()
			title = strings.TrimSpace(strong.Text())
		} else {
			title = strings.TrimSpace(titleEl.Text())
		}
		if title == "" || link == "" || digitsRe.MatchString(title) {
			return true
		}
		if !strings.HasPrefix(link, "http") {
			link = base + link
		}
		posts = append(posts, models.CommunityPost{
			Title:  truncate(title, ruliwebTitle),
			Link:   link,
			Source: "ruliweb",
		})
		return true
	})
	return posts
}

func cleanArcaTitle(raw string) string {
	title := strings.ReplaceAll(raw, `\\n`, " ")
	title = strings.ReplaceAll(title, `\\`, "")
	title = strings.ReplaceAll(title, `\n`, " ")
	title = strings.ReplaceAll(title, `\[`, "[")
	title = strings.ReplaceAll(title, `\]`, "]")
	title = arcaCountRe.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// ParseArca extracts live best posts from the arca.live markdown. The channel
// is the last channel link within the text preceding the post.
func ParseArca(md string) []models.CommunityPost {
	var posts []models.CommunityPost
	seen := make(map[string]bool)
	for _, m := range arcaPostRe.FindAllStringSubmatch(md, -1) {
		if len(posts) >= maxPosts {
			break
		}
		text, link := m[1], m[2]
		if seen[link] {
			continue
		}
		seen[link] = true
		if arcaAgoRe.MatchString(text) {
			continue
		}
		title := cleanArcaTitle(text)
		if title == "" || strings.Contains(title, "모바일 앱 이용 안내") {
			continue
		}

		var channel string
		if idx := strings.Index(md, link); idx > 0 {
			before := md[max(0, idx-channelLookback):idx]
			if found := arcaChannelRe.FindAllStringSubmatch(before, -1); len(found) > 0 {
				channel = found[len(found)-1][1]
			}
		}
		posts = append(posts, models.CommunityPost{
			Title:   ellipsis(title, markdownTitle),
			Link:    link,
			Channel: channel,
			Source:  "arca",
		})
	}
	return posts
}

func ParseDcinside(md string) []models.CommunityPost {
	var posts []models.CommunityPost
	seen := make(map[string]bool)
	for _, m := range dcinsidePostRe.FindAllStringSubmatch(md, -1) {
		if len(posts) >= maxPosts {
			break
		}
		channel, link := m[1], m[3]
		if seen[link] {
			continue
		}
		seen[link] = true
		title := strings.TrimSpace(m[2])
		if title == "" || strings.Contains(title, "이용 안내") {
			continue
		}
		posts = append(posts, models.CommunityPost{
			Title:   ellipsis(title, markdownTitle),
			Link:    link,
			Channel: channel,
			Source:  "dcinside",
		})
	}
	return posts
}

func ParseInvenHot(md string) []models.CommunityPost {
	var posts []models.CommunityPost
	seen := make(map[string]bool)
	for _, m := range invenPostRe.FindAllStringSubmatch(md, -1) {
		if len(posts) >= maxPosts {
			break
		}
		game, link := m[2], m[5]
		if seen[link] {
			continue
		}
		seen[link] = true
		title := strings.TrimSpace(invenTrailingRe.ReplaceAllString(m[3], ""))
		posts = append(posts, models.CommunityPost{
			Title:   ellipsis(title, markdownTitle),
			Link:    link,
			Channel: strings.TrimSpace(game),
			Source:  "inven",
		})
	}
	return posts
}
