package insight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	log "github.com/sirupsen/logrus"
)

var ErrWeeklyExists = errors.New("weekly report already exists")

const recentCount = 3

// StockPricer resolves the stock picks of an insight to codes and prices.
type StockPricer interface {
	Prices(ctx context.Context, picks []models.StockPick) (map[string]string, map[string]models.StockPrice)
}

// Mirror receives a copy of every saved report.
type Mirror interface {
	SaveReport(ctx context.Context, r *models.DailyReport) error
	SaveWeekly(ctx context.Context, id string, w *models.WeeklyReport) error
}

type Service struct {
	store  *storage.Storage
	writer *Writer
	stocks StockPricer
	mirror Mirror
	now    func() time.Time
}

// NewService wires the report builders to storage. writer, stocks and mirror
// may be nil; the AI steps then fail or skip their part.
func NewService(store *storage.Storage, writer *Writer, stocks StockPricer, mirror Mirror) *Service {
	return &Service{
		store:  store,
		writer: writer,
		stocks: stocks,
		mirror: mirror,
		now:    time.Now,
	}
}

// yesterday loads the snapshot before date, falling back to the kr charts of
// that day's report. It returns nil when neither exists.
func (s *Service) yesterday(date string) *models.Snapshot {
	prev, err := kst.AddDays(date, -1)
	if err != nil {
		return nil
	}
	snap, err := s.store.LoadSnapshot(prev)
	if err == nil {
		return snap
	}
	if !errors.Is(err, storage.ErrNotFound) {
		log.Warnf("history %s unreadable: %v", prev, err)
	}
	report, err := s.store.LoadReport(prev)
	if err != nil {
		return nil
	}
	ranks, ok := rankingsFromReport(report)
	if !ok {
		return nil
	}
	log.Printf("Using reports/%s.json for yesterday's charts", prev)
	return &models.Snapshot{Rankings: ranks}
}

func (s *Service) saveReport(ctx context.Context, r *models.DailyReport) error {
	if err := s.store.SaveReport(r); err != nil {
		return fmt.Errorf("failed to save report %s: %w", r.Date, err)
	}
	if s.mirror != nil {
		if err := s.mirror.SaveReport(ctx, r); err != nil {
			log.Warnf("report mirror failed: %v", err)
		}
	}
	return nil
}

// Daily compares the cached snapshot with yesterday and saves
// reports/<date>.json, keeping any AI section already written for the day.
func (s *Service) Daily(ctx context.Context) (*models.DailyReport, error) {
	snap, err := s.store.LoadCache()
	if err != nil {
		return nil, err
	}
	now := s.now()
	date := kst.Date(now)
	report := BuildDaily(snap, s.yesterday(date), date, now)

	if existing, err := s.store.LoadReport(date); err == nil {
		report.AI = existing.AI
		report.AIGeneratedAt = existing.AIGeneratedAt
		report.StockMap = existing.StockMap
		report.StockPrices = existing.StockPrices
	}
	if err := s.saveReport(ctx, report); err != nil {
		return nil, err
	}
	log.Printf("Daily report saved: reports/%s.json (%d summary lines)", date, len(report.Summary))
	return report, nil
}

// recentInsights returns the AI sections of up to n reports before date,
// newest first.
func (s *Service) recentInsights(date string, n int) []*models.AIInsight {
	dates, err := s.store.ReportDates()
	if err != nil {
		log.Warnf("report list failed: %v", err)
		return nil
	}
	var out []*models.AIInsight
	for i := len(dates) - 1; i >= 0 && len(out) < n; i-- {
		if dates[i] >= date {
			continue
		}
		r, err := s.store.LoadReport(dates[i])
		if err != nil || r.AI == nil {
			continue
		}
		out = append(out, r.AI)
	}
	return out
}

// AI writes the AI insight for today's cache, prices its stock picks and
// stores it in reports/<date>.json and docs/daily-insight.json.
func (s *Service) AI(ctx context.Context) (*models.DailyReport, error) {
	if s.writer == nil {
		return nil, fmt.Errorf("insight writer is not configured")
	}
	snap, err := s.store.LoadCache()
	if err != nil {
		return nil, err
	}
	now := s.now()
	date := kst.Date(now)

	var changes Changes
	if y := s.yesterday(date); y != nil {
		changes = BuildRankingChanges(snap.Rankings, y.Rankings)
		log.Printf("Ranking changes: %d up, %d down, %d new", len(changes.Up), len(changes.Down), len(changes.New))
	} else {
		log.Warnf("no data for the day before %s, ranking changes skipped", date)
	}

	prompt, err := DailyPrompt(snap, changes, s.recentInsights(date, recentCount), now)
	if err != nil {
		return nil, err
	}
	ins, err := s.writer.Write(ctx, prompt)
	if err != nil {
		return nil, err
	}
	ins.Date = date

	report, err := s.store.LoadReport(date)
	if err != nil {
		report = &models.DailyReport{Date: date}
	}
	report.AI = ins
	report.AIGeneratedAt = kst.Timestamp(s.now())
	if picks := ins.StockPicks(); len(picks) > 0 && s.stocks != nil {
		report.StockMap, report.StockPrices = s.stocks.Prices(ctx, picks)
	}

	if err := s.saveReport(ctx, report); err != nil {
		return nil, err
	}
	if err := s.store.WriteDocJSON("daily-insight.json", ins); err != nil {
		return nil, fmt.Errorf("failed to write daily insight: %w", err)
	}
	log.Printf("AI insight saved: reports/%s.json", date)
	return report, nil
}

// Weekly writes the recap of last week. An existing recap is kept unless
// force is set.
func (s *Service) Weekly(ctx context.Context, force bool) (*models.WeeklyReport, error) {
	if s.writer == nil {
		return nil, fmt.Errorf("insight writer is not configured")
	}
	now := s.now()
	week := LastWeek(now)
	id := WeekID(week)
	if s.store.WeeklyExists(id) && !force {
		return nil, fmt.Errorf("%s: %w", id, ErrWeeklyExists)
	}
	log.Printf("Weekly insight for %s ~ %s (week %d)", week.StartDate, week.EndDate, week.WeekNumber)

	var reports []*models.DailyReport
	for _, date := range week.Dates {
		r, err := s.store.LoadReport(date)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				log.Warnf("skipping report %s: %v", date, err)
			}
			continue
		}
		reports = append(reports, r)
	}
	var changes Changes
	if len(reports) > 0 {
		changes = WeeklyRankingChanges(reports[len(reports)-1], reports[0])
	} else {
		log.Warnf("no daily reports for %s, writing from search only", id)
	}

	var previous []*models.AIInsight
	for _, prevID := range PreviousWeekIDs(week, recentCount) {
		w, err := s.store.LoadWeekly(prevID)
		if err != nil || w.AI == nil {
			continue
		}
		previous = append(previous, w.AI)
	}

	prompt, err := WeeklyPrompt(reports, week, changes, previous, now)
	if err != nil {
		return nil, err
	}
	ins, err := s.writer.Write(ctx, prompt)
	if err != nil {
		return nil, err
	}

	weekly := &models.WeeklyReport{
		WeekInfo:         week,
		GeneratedAt:      kst.Timestamp(s.now()),
		DailyReportCount: len(reports),
		AI:               ins,
	}
	if err := s.store.SaveWeekly(id, weekly); err != nil {
		return nil, fmt.Errorf("failed to save weekly report %s: %w", id, err)
	}
	if err := s.store.WriteDocJSON("reports/weekly/"+id+".json", weekly); err != nil {
		return nil, fmt.Errorf("failed to copy weekly report to docs: %w", err)
	}
	if s.mirror != nil {
		if err := s.mirror.SaveWeekly(ctx, id, weekly); err != nil {
			log.Warnf("weekly mirror failed: %v", err)
		}
	}
	log.Printf("Weekly report saved: reports/weekly/%s.json", id)
	return weekly, nil
}
