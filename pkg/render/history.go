package render

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/registry"
	"github.com/amankumarsingh77/gamerscrawl/scraper/rankings"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	log "github.com/sirupsen/logrus"
)

type RankPoint struct {
	Date     string
	Country  string
	Platform string
	Rank     int
}

type SteamPoint struct {
	Date string
	Rank int
	CCU  int
}

// Mention is an AI insight card that names the game.
type Mention struct {
	Date    string
	Section string
	Title   string
}

type GameHistory struct {
	Ranks    []RankPoint
	Steam    []SteamPoint
	Mentions []Mention
}

type datedSnapshot struct {
	date string
	snap *models.Snapshot
}

// History holds the recent snapshots and reports that game pages are
// built from.
type History struct {
	snaps   []datedSnapshot
	reports []*models.DailyReport
}

func lastN(dates []string, n int) []string {
	if n > 0 && len(dates) > n {
		return dates[len(dates)-n:]
	}
	return dates
}

// LoadHistory reads the newest days snapshots and daily reports. Unreadable
// files are skipped.
func LoadHistory(store *storage.Storage, days int) (*History, error) {
	h := &History{}
	dates, err := store.HistoryDates()
	if err != nil {
		return nil, err
	}
	for _, date := range lastN(dates, days) {
		snap, err := store.LoadSnapshot(date)
		if err != nil {
			log.Warnf("skipping history %s: %v", date, err)
			continue
		}
		h.snaps = append(h.snaps, datedSnapshot{date, snap})
	}

	dates, err = store.ReportDates()
	if err != nil {
		return nil, err
	}
	for _, date := range lastN(dates, days) {
		r, err := store.LoadReport(date)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				log.Warnf("skipping report %s: %v", date, err)
			}
			continue
		}
		h.reports = append(h.reports, r)
	}
	return h, nil
}

type matcher struct {
	game  *models.Game
	keys  map[string]bool
	names []string
}

func newMatcher(name string, g *models.Game) *matcher {
	m := &matcher{game: g, keys: map[string]bool{}}
	for _, n := range append([]string{name}, g.Aliases...) {
		if key := registry.NormalizeName(n); key != "" {
			m.keys[key] = true
		}
		if utf8.RuneCountInString(n) >= 2 {
			m.names = append(m.names, n)
		}
	}
	return m
}

func (m *matcher) item(appID, title string) bool {
	if appID != "" && m.game.AppIDs.Contains(appID) {
		return true
	}
	return m.keys[registry.NormalizeName(title)]
}

func (m *matcher) mentioned(text string) bool {
	for _, n := range m.names {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// For collects the grossing ranks, Steam player counts and insight mentions
// of the game stored under name.
func (h *History) For(name string, g *models.Game) GameHistory {
	var out GameHistory
	if h == nil {
		return out
	}
	m := newMatcher(name, g)
	for _, ds := range h.snaps {
		for _, c := range rankings.Countries {
			for _, p := range []string{models.PlatformIOS, models.PlatformAndroid} {
				for _, item := range ds.snap.Rankings.List(rankings.ChartGrossing, c.Code, p) {
					if m.item(item.AppID, item.Title) {
						out.Ranks = append(out.Ranks, RankPoint{Date: ds.date, Country: c.Code, Platform: p, Rank: item.Rank})
						break
					}
				}
			}
		}
		for _, sg := range ds.snap.Steam.MostPlayed {
			if m.item(sg.AppID, sg.Name) {
				out.Steam = append(out.Steam, SteamPoint{Date: ds.date, Rank: sg.Rank, CCU: sg.CCU})
				break
			}
		}
	}

	for _, r := range h.reports {
		if r.AI == nil {
			continue
		}
		sections := []struct {
			name  string
			cards []models.InsightCard
		}{
			{"issues", r.AI.Issues},
			{"industryIssues", r.AI.IndustryIssues},
			{"metrics", r.AI.Metrics},
			{"community", r.AI.Community},
			{"streaming", r.AI.Streaming},
		}
		for _, s := range sections {
			for _, card := range s.cards {
				if m.mentioned(card.Tag + " " + card.Title + " " + card.Desc) {
					out.Mentions = append(out.Mentions, Mention{Date: r.Date, Section: s.name, Title: card.Title})
				}
			}
		}
	}
	return out
}
