// Package insight builds the daily report, the AI written insight and the
// weekly recap from stored snapshots.
package insight

import (
	"fmt"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/scraper/rankings"
)

const (
	compareLimit   = 20
	highlightLimit = 5
	perSource      = 2
)

var (
	newsSources      = []string{"inven", "ruliweb", "gamemeca", "thisisgame"}
	communitySources = []string{"ruliweb", "arca", "dcinside", "inven"}
)

// AnalyzeRankingChanges compares the top limit grossing entries of country
// against yesterday's chart, matching by title.
func AnalyzeRankingChanges(today, yesterday models.Rankings, country string, limit int) models.PlatformChanges {
	changes := models.PlatformChanges{IOS: []models.RankChange{}, Android: []models.RankChange{}}
	for _, platform := range []string{models.PlatformIOS, models.PlatformAndroid} {
		prev := make(map[string]int)
		for i, app := range yesterday.List(rankings.ChartGrossing, country, platform) {
			prev[app.Title] = i + 1
		}

		list := today.List(rankings.ChartGrossing, country, platform)
		if len(list) > limit {
			list = list[:limit]
		}
		out := make([]models.RankChange, 0, len(list))
		for i, app := range list {
			rank := i + 1
			c := models.RankChange{
				Rank:      rank,
				Title:     app.Title,
				Developer: app.Developer,
				Icon:      app.Icon,
				Status:    models.ChangeNew,
			}
			if y, ok := prev[app.Title]; ok {
				c.YesterdayRank = y
				c.Change = y - rank
				c.Status = status(c.Change)
			}
			out = append(out, c)
		}
		if platform == models.PlatformIOS {
			changes.IOS = out
		} else {
			changes.Android = out
		}
	}
	return changes
}

// AnalyzeSteamChanges compares the most played chart by game name.
func AnalyzeSteamChanges(today, yesterday models.SteamRankings, limit int) []models.SteamChange {
	type prevEntry struct{ rank, ccu int }
	prev := make(map[string]prevEntry)
	for i, g := range yesterday.MostPlayed {
		prev[g.Name] = prevEntry{i + 1, g.CCU}
	}

	list := today.MostPlayed
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]models.SteamChange, 0, len(list))
	for i, g := range list {
		rank := i + 1
		c := models.SteamChange{
			Rank:   rank,
			Name:   g.Name,
			CCU:    g.CCU,
			Status: models.ChangeNew,
			Image:  g.Img,
		}
		if y, ok := prev[g.Name]; ok {
			c.Change = y.rank - rank
			c.CCUChange = g.CCU - y.ccu
			c.Status = status(c.Change)
		}
		out = append(out, c)
	}
	return out
}

func status(change int) string {
	switch {
	case change > 0:
		return models.ChangeUp
	case change < 0:
		return models.ChangeDown
	}
	return models.ChangeSame
}

// NewsHighlights takes the first two headlines of each news source.
func NewsHighlights(news models.NewsSources) []models.Highlight {
	out := []models.Highlight{}
	for _, source := range newsSources {
		items := news.Source(source)
		for i := 0; i < len(items) && i < perSource; i++ {
			out = append(out, models.Highlight{
				Source:    source,
				Title:     items[i].Title,
				Link:      items[i].Link,
				Thumbnail: items[i].Thumbnail,
			})
		}
	}
	if len(out) > highlightLimit {
		out = out[:highlightLimit]
	}
	return out
}

// CommunityHot takes the first two posts of each community.
func CommunityHot(community models.CommunitySources) []models.Highlight {
	out := []models.Highlight{}
	for _, source := range communitySources {
		posts := community.Source(source)
		for i := 0; i < len(posts) && i < perSource; i++ {
			out = append(out, models.Highlight{
				Source:  source,
				Title:   posts[i].Title,
				Link:    posts[i].Link,
				Channel: posts[i].Channel,
			})
		}
	}
	if len(out) > highlightLimit {
		out = out[:highlightLimit]
	}
	return out
}

// Summarize lists the notable movements of the day in Korean.
func Summarize(mobile models.PlatformChanges, steam []models.SteamChange) []string {
	summary := []string{}
	risers := func(list []models.RankChange) []models.RankChange {
		var out []models.RankChange
		for _, g := range list {
			if g.Status == models.ChangeUp && g.Change >= 3 && len(out) < 3 {
				out = append(out, g)
			}
		}
		return out
	}
	entries := func(list []models.RankChange) []models.RankChange {
		var out []models.RankChange
		for _, g := range list {
			if g.Status == models.ChangeNew && len(out) < 2 {
				out = append(out, g)
			}
		}
		return out
	}

	for _, g := range risers(mobile.IOS) {
		summary = append(summary, fmt.Sprintf("iOS: \"%s\" %d단계 상승 (현재 %d위)", g.Title, g.Change, g.Rank))
	}
	for _, g := range entries(mobile.IOS) {
		summary = append(summary, fmt.Sprintf("iOS: \"%s\" TOP%d 신규 진입 (%d위)", g.Title, len(mobile.IOS), g.Rank))
	}
	for _, g := range risers(mobile.Android) {
		summary = append(summary, fmt.Sprintf("Android: \"%s\" %d단계 상승 (현재 %d위)", g.Title, g.Change, g.Rank))
	}
	n := 0
	for _, g := range steam {
		if g.Status != models.ChangeNew || n == 2 {
			continue
		}
		summary = append(summary, fmt.Sprintf("Steam: \"%s\" TOP%d 신규 진입 (%d위)", g.Name, len(steam), g.Rank))
		n++
	}
	return summary
}

// BuildDaily assembles reports/<date>.json. yesterday may be nil, in which
// case every entry counts as new.
func BuildDaily(today, yesterday *models.Snapshot, date string, now time.Time) *models.DailyReport {
	var prev models.Snapshot
	if yesterday != nil {
		prev = *yesterday
	}
	kr := AnalyzeRankingChanges(today.Rankings, prev.Rankings, "kr", compareLimit)
	us := AnalyzeRankingChanges(today.Rankings, prev.Rankings, "us", compareLimit)
	steam := AnalyzeSteamChanges(today.Steam, prev.Steam, compareLimit)

	return &models.DailyReport{
		Date:             date,
		GeneratedAt:      kst.Timestamp(now),
		HasYesterdayData: yesterday != nil,
		Summary:          Summarize(kr, steam),
		Mobile:           map[string]models.PlatformChanges{"kr": kr, "us": us},
		Steam:            steam,
		News:             NewsHighlights(today.News),
		Community:        CommunityHot(today.Community),
	}
}

// rankingsFromReport rebuilds the kr grossing chart of a stored report, used
// when the history snapshot of that day is gone.
func rankingsFromReport(r *models.DailyReport) (models.Rankings, bool) {
	kr, ok := r.Mobile["kr"]
	if !ok {
		return nil, false
	}
	convert := func(list []models.RankChange) []models.RankItem {
		items := make([]models.RankItem, 0, len(list))
		for _, c := range list {
			items = append(items, models.RankItem{Rank: c.Rank, Title: c.Title, Developer: c.Developer, Icon: c.Icon})
		}
		return items
	}
	out := models.Rankings{}
	out.Set(rankings.ChartGrossing, "kr", models.PlatformIOS, convert(kr.IOS))
	out.Set(rankings.ChartGrossing, "kr", models.PlatformAndroid, convert(kr.Android))
	return out, true
}
