package insight

import (
	"testing"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRankingChanges(t *testing.T) {
	yesterday := grossing("kr", chart("a", "b", "c", "d", "e", "f", "g"), chart("x", "y", "z", "w", "v", "u"))
	today := grossing("kr", chart("g", "a", "b", "c", "d", "e", "f", "new1"), chart("y", "z", "w", "v", "u", "x"))

	c := BuildRankingChanges(today, yesterday)
	assert.Equal(t, []models.RankingCard{{Tag: TagRise, Title: "g", PrevRank: 7, Rank: 1, Change: 6, Platform: "iOS"}}, c.Up)
	assert.Equal(t, []models.RankingCard{{Tag: TagFall, Title: "x", PrevRank: 1, Rank: 6, Change: -5, Platform: "Android"}}, c.Down)
	assert.Equal(t, []models.RankingCard{{Tag: TagEntry, Title: "new1", Rank: 8, Platform: "iOS"}}, c.New)
	assert.False(t, c.Empty())

	assert.True(t, BuildRankingChanges(today, today).Empty())
}

func TestBuildRankingChangesSortsByMagnitude(t *testing.T) {
	yesterday := grossing("kr", chart("a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"), nil)
	today := grossing("kr", chart("l", "g", "a", "b", "c", "d", "e", "f", "h", "i", "j", "k"), nil)

	c := BuildRankingChanges(today, yesterday)
	require.Len(t, c.Up, 2)
	assert.Equal(t, "l", c.Up[0].Title)
	assert.Equal(t, 11, c.Up[0].Change)
	assert.Equal(t, "g", c.Up[1].Title)
}

func report(date string, ios ...models.RankChange) *models.DailyReport {
	return &models.DailyReport{
		Date:   date,
		Mobile: map[string]models.PlatformChanges{"kr": {IOS: ios}},
	}
}

func TestWeeklyRankingChanges(t *testing.T) {
	first := report("2025-03-03", models.RankChange{Rank: 30, Title: "A"}, models.RankChange{Rank: 5, Title: "B"})
	last := report("2025-03-09",
		models.RankChange{Rank: 10, Title: "A"},
		models.RankChange{Rank: 20, Title: "B"},
		models.RankChange{Rank: 40, Title: "C"},
		models.RankChange{Rank: 60, Title: "D"},
		models.RankChange{Rank: 61},
	)

	c := WeeklyRankingChanges(last, first)
	assert.Equal(t, []models.RankingCard{{Tag: TagRise, Title: "A", PrevRank: 30, Rank: 10, Change: 20, Platform: "iOS"}}, c.Up)
	assert.Equal(t, []models.RankingCard{{Tag: TagFall, Title: "B", PrevRank: 5, Rank: 20, Change: -15, Platform: "iOS"}}, c.Down)
	assert.Equal(t, []models.RankingCard{{Tag: TagEntry, Title: "C", Rank: 40, Platform: "iOS"}}, c.New)

	assert.True(t, WeeklyRankingChanges(nil, first).Empty())
	assert.True(t, WeeklyRankingChanges(last, &models.DailyReport{}).Empty())
}

func TestLastWeek(t *testing.T) {
	w := LastWeek(time.Date(2025, 3, 9, 16, 0, 0, 0, time.UTC))
	assert.Equal(t, 2025, w.Year)
	assert.Equal(t, 10, w.WeekNumber)
	assert.Equal(t, "2025-03-03", w.StartDate)
	assert.Equal(t, "2025-03-09", w.EndDate)
	require.Len(t, w.Dates, 7)
	assert.Equal(t, "2025-03-05", w.Dates[2])
	assert.Equal(t, "2025-W10", WeekID(w))

	sunday := LastWeek(time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-12-23", sunday.StartDate)
	assert.Equal(t, "2024-12-29", sunday.EndDate)
	assert.Equal(t, "2024-W52", WeekID(sunday))
}

func TestPreviousWeekIDs(t *testing.T) {
	w := models.WeekInfo{Year: 2025, WeekNumber: 2}
	assert.Equal(t, []string{"2025-W01", "2024-W52", "2024-W51"}, PreviousWeekIDs(w, 3))
}
