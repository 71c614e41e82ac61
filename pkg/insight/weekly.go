package insight

import (
	"fmt"
	"math"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
)

// LastWeek returns the Monday to Sunday week before the one containing now,
// in KST. Weeks are numbered from January 1st of the Monday's year.
func LastWeek(now time.Time) models.WeekInfo {
	t := now.In(kst.Location)
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, kst.Location)
	sinceMonday := int(today.Weekday()) - 1
	if today.Weekday() == time.Sunday {
		sinceMonday = 6
	}
	monday := today.AddDate(0, 0, -(sinceMonday + 7))
	sunday := monday.AddDate(0, 0, 6)

	jan1 := time.Date(monday.Year(), time.January, 1, 0, 0, 0, 0, kst.Location)
	days := monday.Sub(jan1).Hours() / 24
	week := int(math.Ceil((days + float64(jan1.Weekday()) + 1) / 7))

	dates := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		dates = append(dates, monday.AddDate(0, 0, i).Format(kst.DateLayout))
	}
	return models.WeekInfo{
		Year:       monday.Year(),
		WeekNumber: week,
		StartDate:  monday.Format(kst.DateLayout),
		EndDate:    sunday.Format(kst.DateLayout),
		Dates:      dates,
	}
}

// WeekID names the weekly report file, e.g. 2025-W09.
func WeekID(w models.WeekInfo) string {
	return weekID(w.Year, w.WeekNumber)
}

func weekID(year, week int) string {
	return fmt.Sprintf("%d-W%02d", year, week)
}

// PreviousWeekIDs lists the n weeks before w, newest first. Weeks before the
// first of the year continue from week 52 of the previous year.
func PreviousWeekIDs(w models.WeekInfo, n int) []string {
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		year, week := w.Year, w.WeekNumber-i
		if week < 1 {
			year--
			week += 52
		}
		ids = append(ids, weekID(year, week))
	}
	return ids
}
