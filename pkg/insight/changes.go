package insight

import (
	"sort"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/scraper/rankings"
)

const (
	TagRise  = "급상승"
	TagFall  = "급하락"
	TagEntry = "신규진입"
)

// Changes groups the chart movements handed to the insight writer.
type Changes struct {
	Up   []models.RankingCard
	Down []models.RankingCard
	New  []models.RankingCard
}

func (c Changes) Empty() bool {
	return len(c.Up) == 0 && len(c.Down) == 0 && len(c.New) == 0
}

func (c *Changes) sort() {
	sort.SliceStable(c.Up, func(i, j int) bool { return c.Up[i].Change > c.Up[j].Change })
	sort.SliceStable(c.Down, func(i, j int) bool { return c.Down[i].Change < c.Down[j].Change })
	sort.SliceStable(c.New, func(i, j int) bool { return c.New[i].Rank < c.New[j].Rank })
}

var platformLabels = []struct{ key, label string }{
	{models.PlatformIOS, "iOS"},
	{models.PlatformAndroid, "Android"},
}

// BuildRankingChanges compares the kr grossing top 100 with yesterday. Moves
// of five places or more count as rises and falls.
func BuildRankingChanges(today, yesterday models.Rankings) Changes {
	var c Changes
	for _, p := range platformLabels {
		prev := make(map[string]int)
		for i, app := range yesterday.List(rankings.ChartGrossing, "kr", p.key) {
			prev[app.Title] = i + 1
		}
		list := today.List(rankings.ChartGrossing, "kr", p.key)
		if len(list) > 100 {
			list = list[:100]
		}
		for i, app := range list {
			rank := i + 1
			prevRank, ok := prev[app.Title]
			if !ok {
				c.New = append(c.New, models.RankingCard{Tag: TagEntry, Title: app.Title, Rank: rank, Platform: p.label})
				continue
			}
			change := prevRank - rank
			card := models.RankingCard{Title: app.Title, PrevRank: prevRank, Rank: rank, Change: change, Platform: p.label}
			switch {
			case change >= 5:
				card.Tag = TagRise
				c.Up = append(c.Up, card)
			case change <= -5:
				card.Tag = TagFall
				c.Down = append(c.Down, card)
			}
		}
	}
	c.sort()
	return c
}

// WeeklyRankingChanges compares the kr charts of the last and first daily
// reports of a week. Moves of ten places count, and new entries only inside
// the top 50.
func WeeklyRankingChanges(last, first *models.DailyReport) Changes {
	var c Changes
	if last == nil || first == nil {
		return c
	}
	lastKR, ok1 := last.Mobile["kr"]
	firstKR, ok2 := first.Mobile["kr"]
	if !ok1 || !ok2 {
		return c
	}
	for _, p := range platformLabels {
		prev := make(map[string]int)
		for _, g := range firstKR.Get(p.key) {
			if g.Title != "" {
				prev[g.Title] = g.Rank
			}
		}
		for _, g := range lastKR.Get(p.key) {
			if g.Title == "" {
				continue
			}
			prevRank, ok := prev[g.Title]
			if !ok {
				if g.Rank <= 50 {
					c.New = append(c.New, models.RankingCard{Tag: TagEntry, Title: g.Title, Rank: g.Rank, Platform: p.label})
				}
				continue
			}
			change := prevRank - g.Rank
			card := models.RankingCard{Title: g.Title, PrevRank: prevRank, Rank: g.Rank, Change: change, Platform: p.label}
			switch {
			case change >= 10:
				card.Tag = TagRise
				c.Up = append(c.Up, card)
			case change <= -10:
				card.Tag = TagFall
				c.Down = append(c.Down, card)
			}
		}
	}
	c.sort()
	return c
}
