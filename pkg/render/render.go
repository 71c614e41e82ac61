// Package render writes the static site under the docs directory.
package render

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/pkg/registry"
	"github.com/amankumarsingh77/gamerscrawl/scraper/rankings"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
)

//go:embed templates static
var assets embed.FS

const (
	chartSize   = 50
	historyDays = 30
)

var layoutPages = []string{"index.html", "insight.html", "weekly.html", "list.html", "game.html", "games.html"}

var funcs = template.FuncMap{
	"comma":         comma,
	"kdate":         KoreanDate,
	"platformLabel": platformLabel,
	"countryName":   rankings.CountryName,
	"change":        changeLabel,
	"cards":         func(heading string, cards []models.InsightCard) cardSection { return cardSection{heading, cards} },
	"inc":           func(i int) int { return i + 1 },
	"join":          strings.Join,
}

type cardSection struct {
	Heading string
	Cards   []models.InsightCard
}

// page is the value every layout page executes with. Root is the relative
// path back to the docs directory.
type page struct {
	Root      string
	Title     string
	SiteURL   string
	Path      string
	Generated string
	Data      any
}

type Renderer struct {
	store   *storage.Storage
	siteURL string
	pages   map[string]*template.Template
	card    *template.Template
	now     func() time.Time
}

func New(store *storage.Storage, siteURL string) (*Renderer, error) {
	r := &Renderer{
		store:   store,
		siteURL: strings.TrimRight(siteURL, "/"),
		pages:   make(map[string]*template.Template, len(layoutPages)),
		now:     time.Now,
	}
	for _, name := range layoutPages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(assets, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	card, err := template.New("xcard.html").Funcs(funcs).ParseFS(assets, "templates/xcard.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse card template: %w", err)
	}
	r.card = card
	return r, nil
}

func (r *Renderer) write(tmpl, rel, title string, data any) error {
	p := page{
		Root:      strings.Repeat("../", strings.Count(rel, "/")),
		Title:     title,
		SiteURL:   r.siteURL,
		Path:      rel,
		Generated: r.now().In(kst.Location).Format("2006-01-02 15:04 KST"),
		Data:      data,
	}
	var buf bytes.Buffer
	if err := r.pages[tmpl].Execute(&buf, p); err != nil {
		return fmt.Errorf("failed to render %s: %w", rel, err)
	}
	return r.store.WriteDoc(rel, buf.Bytes())
}

type platformList struct {
	Platform string
	Items    []models.RankItem
}

type chartView struct {
	Country rankings.Country
	Label   string
	Lists   []platformList
}

type newsView struct {
	Name string
	News []models.NewsItem
}

type postsView struct {
	Name  string
	Posts []models.CommunityPost
}

type liveView struct {
	Name    string
	Streams []models.LiveStream
}

type upcomingView struct {
	Name  string
	Games []models.UpcomingGame
}

type indexView struct {
	Date       string
	Insight    *models.AIInsight
	Charts     []chartView
	Steam      models.SteamRankings
	YouTube    []models.Video
	Live       []liveView
	News       []newsView
	Community  []postsView
	Upcoming   []upcomingView
	Metacritic *models.MetacriticList
	Links      map[string]string
}

var chartLabels = []struct{ chart, label string }{
	{rankings.ChartGrossing, "매출 순위"},
	{rankings.ChartFree, "무료 순위"},
}

func top[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func buildCharts(ranks models.Rankings) []chartView {
	var charts []chartView
	for _, cl := range chartLabels {
		for _, c := range rankings.Countries {
			view := chartView{Country: c, Label: cl.label}
			for _, p := range []string{models.PlatformIOS, models.PlatformAndroid} {
				if items := ranks.List(cl.chart, c.Code, p); len(items) > 0 {
					view.Lists = append(view.Lists, platformList{Platform: p, Items: top(items, chartSize)})
				}
			}
			if len(view.Lists) > 0 {
				charts = append(charts, view)
			}
		}
	}
	return charts
}

// Index writes index.html for the snapshot of date. links maps game titles
// to registry slugs.
func (r *Renderer) Index(snap *models.Snapshot, date string, ins *models.AIInsight, links map[string]string) error {
	view := indexView{
		Date:    date,
		Insight: ins,
		Charts:  buildCharts(snap.Rankings),
		Steam:   snap.Steam,
		YouTube: snap.YouTube.Gaming,
		Live: []liveView{
			{"치지직", snap.Chzzk},
			{"SOOP", snap.Soop},
		},
		Upcoming: []upcomingView{
			{"Steam", snap.Upcoming.Steam},
			{"Nintendo", snap.Upcoming.Nintendo},
			{"PS5", snap.Upcoming.PS5},
			{"모바일", snap.Upcoming.Mobile},
		},
		Links: links,
	}
	for _, name := range []string{"inven", "ruliweb", "gamemeca", "thisisgame"} {
		view.News = append(view.News, newsView{name, snap.News.Source(name)})
	}
	for _, name := range []string{"ruliweb", "arca", "dcinside", "inven"} {
		view.Community = append(view.Community, postsView{name, snap.Community.Source(name)})
	}
	if len(snap.Metacritic.Games) > 0 {
		view.Metacritic = &snap.Metacritic
	}
	return r.write("index.html", "index.html", KoreanDate(date)+" 게임 순위", view)
}

// Insight writes insight/<date>.html.
func (r *Renderer) Insight(report *models.DailyReport) error {
	return r.write("insight.html", "insight/"+report.Date+".html", KoreanDate(report.Date)+" 데일리 인사이트", report)
}

// Weekly writes trends/<id>.html.
func (r *Renderer) Weekly(id string, w *models.WeeklyReport) error {
	title := fmt.Sprintf("%d년 %d주차 트렌드", w.WeekInfo.Year, w.WeekInfo.WeekNumber)
	return r.write("weekly.html", "trends/"+id+".html", title, w)
}

type archiveEntry struct {
	Href  string
	Label string
}

func (r *Renderer) archive(rel, title string, entries []archiveEntry) error {
	return r.write("list.html", rel, title, entries)
}

// Stats counts the pages written by Site.
type Stats struct {
	Reports int
	Weekly  int
	Games   int
	Pages   int
}

// Site renders every page from the data store and copies the stylesheet.
func (r *Renderer) Site(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	reg, err := r.store.LoadRegistry()
	if err != nil {
		return nil, err
	}
	slugs := registry.AssignSlugs(reg)

	dates, err := r.store.ReportDates()
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	var latest *models.AIInsight
	archive := make([]archiveEntry, 0, len(dates))
	for i := len(dates) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report, err := r.store.LoadReport(dates[i])
		if err != nil {
			log.Warnf("skipping report %s: %v", dates[i], err)
			continue
		}
		if latest == nil && report.AI != nil {
			latest = report.AI
			if latest.Date == "" {
				latest.Date = report.Date
			}
		}
		if err := r.Insight(report); err != nil {
			return nil, err
		}
		label := KoreanDate(report.Date)
		if report.AI != nil && report.AI.Headline != "" {
			label += " · " + report.AI.Headline
		}
		archive = append(archive, archiveEntry{Href: report.Date + ".html", Label: label})
		stats.Reports++
	}
	if err := r.archive("insight/index.html", "데일리 인사이트", archive); err != nil {
		return nil, err
	}

	ids, err := r.store.WeeklyIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly reports: %w", err)
	}
	archive = archive[:0]
	for i := len(ids) - 1; i >= 0; i-- {
		w, err := r.store.LoadWeekly(ids[i])
		if err != nil {
			log.Warnf("skipping weekly report %s: %v", ids[i], err)
			continue
		}
		if err := r.Weekly(ids[i], w); err != nil {
			return nil, err
		}
		label := fmt.Sprintf("%d년 %d주차", w.WeekInfo.Year, w.WeekInfo.WeekNumber)
		if w.AI != nil && w.AI.Headline != "" {
			label += " · " + w.AI.Headline
		}
		archive = append(archive, archiveEntry{Href: ids[i] + ".html", Label: label})
		stats.Weekly++
	}
	if err := r.archive("trends/index.html", "주간 트렌드", archive); err != nil {
		return nil, err
	}

	snap, err := r.store.LoadCache()
	date := kst.Date(r.now())
	if errors.Is(err, storage.ErrNotFound) {
		date, snap, err = r.store.LatestSnapshot()
	}
	switch {
	case err == nil:
		if err := r.Index(snap, date, latest, titleLinks(reg, slugs)); err != nil {
			return nil, err
		}
		stats.Pages++
	case errors.Is(err, storage.ErrNotFound):
		log.Warnf("no snapshot to render, index.html skipped")
	default:
		return nil, err
	}

	popular, err := r.store.LoadPopularGames()
	if err != nil {
		return nil, err
	}
	hist, err := LoadHistory(r.store, historyDays)
	if err != nil {
		return nil, err
	}
	n, err := r.Games(ctx, reg, slugs, popular, hist)
	if err != nil {
		return nil, err
	}
	stats.Games = n

	css, err := assets.ReadFile("static/styles.css")
	if err != nil {
		return nil, err
	}
	if err := r.store.WriteDoc("styles.css", css); err != nil {
		return nil, err
	}

	stats.Pages += stats.Reports + stats.Weekly + stats.Games + 3
	log.Printf("Rendered %d pages (%d reports, %d weekly, %d games)", stats.Pages, stats.Reports, stats.Weekly, stats.Games)
	return stats, nil
}

// KoreanDate formats 2025-03-10 as "2025년 3월 10일". Unparseable input is
// returned as is.
func KoreanDate(date string) string {
	t, err := kst.ParseDate(date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%d년 %d월 %d일", t.Year(), int(t.Month()), t.Day())
}

func comma(v any) string {
	switch n := v.(type) {
	case int:
		return humanize.Comma(int64(n))
	case int64:
		return humanize.Comma(n)
	}
	return fmt.Sprint(v)
}

func platformLabel(p string) string {
	switch p {
	case models.PlatformIOS:
		return "iOS"
	case models.PlatformAndroid:
		return "Android"
	case models.PlatformSteam:
		return "Steam"
	}
	return p
}

func changeLabel(status string, n int) string {
	switch status {
	case models.ChangeNew:
		return "NEW"
	case models.ChangeUp:
		return fmt.Sprintf("▲%d", n)
	case models.ChangeDown:
		return fmt.Sprintf("▼%d", -n)
	}
	return "-"
}

func sortedNames(reg *models.Registry) []string {
	names := make([]string, 0, len(reg.Games))
	for name := range reg.Games {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
