// Package crawl runs every source once and stores the resulting snapshot.
package crawl

import (
	"context"
	"fmt"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type RankingsSource interface {
	Fetch(ctx context.Context) models.Rankings
}

type SteamSource interface {
	Rankings(ctx context.Context) models.SteamRankings
}

type YouTubeSource interface {
	Popular(ctx context.Context) models.YouTubeVideos
}

type LiveSource interface {
	Chzzk(ctx context.Context) []models.LiveStream
	Soop(ctx context.Context) []models.LiveStream
}

type NewsSource interface {
	Fetch(ctx context.Context) models.NewsSources
}

type CommunitySource interface {
	Fetch(ctx context.Context) models.CommunitySources
}

type UpcomingSource interface {
	Fetch(ctx context.Context) models.UpcomingSources
}

type MetacriticSource interface {
	Fetch(ctx context.Context, year int) models.MetacriticList
}

// Sources lists the scrapers of a run. Nil sources are skipped.
type Sources struct {
	Rankings   RankingsSource
	Steam      SteamSource
	YouTube    YouTubeSource
	Live       LiveSource
	News       NewsSource
	Community  CommunitySource
	Upcoming   UpcomingSource
	Metacritic MetacriticSource
}

// Mirror receives a copy of each snapshot, typically MongoDB.
type Mirror interface {
	SaveSnapshot(ctx context.Context, date string, snap *models.Snapshot) error
}

type Crawler struct {
	sources Sources
	store   *storage.Storage
	mirror  Mirror
	now     func() time.Time
}

func NewCrawler(sources Sources, store *storage.Storage, mirror Mirror) *Crawler {
	return &Crawler{
		sources: sources,
		store:   store,
		mirror:  mirror,
		now:     time.Now,
	}
}

type Result struct {
	RunID    string
	Date     string
	Snapshot *models.Snapshot
	Elapsed  time.Duration
}

// Run crawls all sources concurrently and writes data-cache.json and
// history/<date>.json. Source failures only empty that source.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	start := c.now()
	runID := uuid.NewString()
	log.WithField("run", runID).Printf("Crawl started")

	snap := &models.Snapshot{
		RunID:    runID,
		Rankings: models.Rankings{},
	}

	g, gctx := errgroup.WithContext(ctx)
	if s := c.sources.Rankings; s != nil {
		g.Go(func() error { snap.Rankings = s.Fetch(gctx); return nil })
	}
	if s := c.sources.Steam; s != nil {
		g.Go(func() error { snap.Steam = s.Rankings(gctx); return nil })
	}
	if s := c.sources.YouTube; s != nil {
		g.Go(func() error { snap.YouTube = s.Popular(gctx); return nil })
	}
	if s := c.sources.Live; s != nil {
		g.Go(func() error { snap.Chzzk = s.Chzzk(gctx); return nil })
		g.Go(func() error { snap.Soop = s.Soop(gctx); return nil })
	}
	if s := c.sources.News; s != nil {
		g.Go(func() error { snap.News = s.Fetch(gctx); return nil })
	}
	if s := c.sources.Community; s != nil {
		g.Go(func() error { snap.Community = s.Fetch(gctx); return nil })
	}
	if s := c.sources.Upcoming; s != nil {
		g.Go(func() error { snap.Upcoming = s.Fetch(gctx); return nil })
	}
	if s := c.sources.Metacritic; s != nil {
		g.Go(func() error { snap.Metacritic = s.Fetch(gctx, 0); return nil })
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("crawl cancelled: %w", err)
	}

	end := c.now()
	snap.Timestamp = kst.Timestamp(end)
	date := kst.Date(end)

	if err := c.store.SaveCache(snap); err != nil {
		return nil, err
	}
	if err := c.store.SaveSnapshot(date, snap); err != nil {
		return nil, fmt.Errorf("failed to save history %s: %w", date, err)
	}
	if c.mirror != nil {
		if err := c.mirror.SaveSnapshot(ctx, date, snap); err != nil {
			log.WithField("run", runID).Warnf("snapshot mirror failed: %v", err)
		}
	}

	res := &Result{RunID: runID, Date: date, Snapshot: snap, Elapsed: end.Sub(start)}
	log.WithField("run", runID).Printf("Crawl finished in %s, saved history/%s.json", res.Elapsed.Round(time.Millisecond), date)
	return res, nil
}

type SourceCount struct {
	Source string
	Count  int
}

// Counts summarizes how many items each source produced.
func Counts(snap *models.Snapshot) []SourceCount {
	mobile := 0
	for _, byCountry := range snap.Rankings {
		for _, lists := range byCountry {
			mobile += len(lists.IOS) + len(lists.Android)
		}
	}
	return []SourceCount{
		{"mobile rankings", mobile},
		{"steam most played", len(snap.Steam.MostPlayed)},
		{"steam top sellers", len(snap.Steam.TopSellers)},
		{"youtube gaming", len(snap.YouTube.Gaming)},
		{"youtube music", len(snap.YouTube.Music)},
		{"chzzk", len(snap.Chzzk)},
		{"soop", len(snap.Soop)},
		{"news", len(snap.News.Inven) + len(snap.News.Ruliweb) + len(snap.News.Gamemeca) + len(snap.News.Thisisgame)},
		{"community", len(snap.Community.Ruliweb) + len(snap.Community.Arca) + len(snap.Community.Dcinside) + len(snap.Community.Inven)},
		{"upcoming", len(snap.Upcoming.Steam) + len(snap.Upcoming.Nintendo) + len(snap.Upcoming.PS5) + len(snap.Upcoming.Mobile)},
		{"metacritic", len(snap.Metacritic.Games)},
	}
}
