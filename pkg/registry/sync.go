package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ObservedGame is one chart entry taken from a snapshot.
type ObservedGame struct {
	Platform  string
	Region    string
	AppID     string
	Title     string
	Developer string
	Icon      string
}

// SyncStats counts what one sync run did.
type SyncStats struct {
	Date       string
	Observed   int
	Existing   int
	Steam      int
	Matched    int
	Single     int
	Pending    int
	TotalGames int
	QueueSize  int
}

// ExtractGames lists the kr mobile chart entries and the Steam charts of
// snap, deduplicated by app id.
func ExtractGames(snap *models.Snapshot) []ObservedGame {
	var games []ObservedGame
	for _, chart := range []string{"grossing", "free"} {
		for _, platform := range []string{models.PlatformIOS, models.PlatformAndroid} {
			for _, item := range snap.Rankings.List(chart, "kr", platform) {
				if item.AppID == "" || item.Title == "" {
					continue
				}
				games = append(games, ObservedGame{
					Platform:  platform,
					Region:    "kr",
					AppID:     item.AppID,
					Title:     item.Title,
					Developer: item.Developer,
					Icon:      item.Icon,
				})
			}
		}
	}
	for _, list := range [][]models.SteamGame{snap.Steam.MostPlayed, snap.Steam.TopSellers} {
		for _, g := range list {
			if g.AppID == "" || g.Name == "" {
				continue
			}
			games = append(games, ObservedGame{
				Platform:  models.PlatformSteam,
				Region:    "global",
				AppID:     g.AppID,
				Title:     g.Name,
				Developer: g.Developer,
				Icon:      g.Img,
			})
		}
	}

	seen := make(map[string]bool)
	unique := games[:0]
	for _, g := range games {
		if seen[g.AppID] {
			continue
		}
		seen[g.AppID] = true
		unique = append(unique, g)
	}
	return unique
}

type globalPair struct {
	title   string
	ios     *ObservedGame
	android *ObservedGame
}

// buildGlobalPairs indexes the mobile entries of one snapshot by name key so
// that a game charting on both stores pairs up without a store search.
func buildGlobalPairs(games []ObservedGame) map[string]*globalPair {
	pairs := make(map[string]*globalPair)
	for i := range games {
		g := &games[i]
		if g.Platform != models.PlatformIOS && g.Platform != models.PlatformAndroid {
			continue
		}
		key := NormalizeNameKey(g.Title)
		if keyLen(key) < 3 {
			continue
		}
		p, ok := pairs[key]
		if !ok {
			p = &globalPair{title: g.Title}
			pairs[key] = p
		}
		if g.Platform == models.PlatformIOS {
			p.ios = g
		} else {
			p.android = g
		}
	}
	return pairs
}

type syncRun struct {
	s     *Service
	reg   *models.Registry
	index map[string]string
	pairs map[string]*globalPair
	stats *SyncStats
}

// entryFor returns the registry entry stored under target, or a fresh one.
func (r *syncRun) entryFor(target string) *models.Game {
	if g, ok := r.reg.Games[target]; ok {
		if g.AppIDs == nil {
			g.AppIDs = make(models.AppIDs)
		}
		return g
	}
	return &models.Game{
		Name:    target,
		AppIDs:  make(models.AppIDs),
		Aliases: []string{},
		Slug:    GenerateSlug(target, nil),
	}
}

func (r *syncRun) store(target string, g *models.Game) {
	if g.Slug == "" {
		g.Slug = GenerateSlug(target, g.Aliases)
	}
	g.Name = target
	r.reg.Games[target] = g
	for _, id := range g.AppIDs {
		if id != "" {
			r.index[id] = target
		}
	}
}

func (r *syncRun) targetName(name string) string {
	if existing := findExistingName(r.reg, name); existing != "" {
		return existing
	}
	return name
}

func (r *syncRun) processSteam(g ObservedGame) {
	target := r.targetName(g.Title)
	entry := r.entryFor(target)
	entry.AppIDs[models.PlatformSteam] = g.AppID
	entry.AddAlias(g.Title, target)
	entry.AddPlatform(models.PlatformSteam)
	if entry.Developer == "" {
		entry.Developer = g.Developer
	}
	if entry.Icon == "" {
		entry.Icon = g.Icon
	}
	r.store(target, entry)
	r.stats.Steam++
	log.Printf("  [Steam] registered %q", target)
}

func (r *syncRun) preMatch(g ObservedGame, krTitle string) *models.SearchResult {
	var keys []string
	for _, k := range []string{NormalizeNameKey(krTitle), NormalizeNameKey(g.Title)} {
		if keyLen(k) >= 3 && (len(keys) == 0 || keys[0] != k) {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		p := r.pairs[k]
		if p == nil || p.ios == nil || p.android == nil {
			continue
		}
		opposite := p.android
		if g.Platform == models.PlatformAndroid {
			opposite = p.ios
		}
		if opposite.AppID != g.AppID {
			return &models.SearchResult{Title: opposite.Title, AppID: opposite.AppID, Developer: opposite.Developer}
		}
	}
	return nil
}

func (r *syncRun) processMobile(ctx context.Context, g ObservedGame) (*models.PendingItem, error) {
	krTitle := g.Title
	if g.Region != "kr" && r.s.lookup != nil {
		title, err := r.s.lookup.KrTitle(ctx, g.Platform, g.AppID)
		switch {
		case err != nil:
			log.WithFields(log.Fields{"platform": g.Platform, "appId": g.AppID}).Warnf("kr title lookup failed: %v", err)
		case title != "":
			log.Printf("  kr title: %q -> %q", g.Title, title)
			krTitle = title
		}
	}

	opposite := oppositePlatform(g.Platform)
	var results []models.SearchResult
	matched := r.preMatch(g, krTitle)
	if matched != nil {
		results = []models.SearchResult{*matched}
	} else if r.s.lookup != nil {
		var err error
		results, err = r.s.lookup.Search(ctx, opposite, krTitle, 5)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithFields(log.Fields{"platform": opposite, "term": krTitle}).Warnf("store search failed: %v", err)
		}
		want := NormalizeTitle(krTitle)
		for i, res := range topResults(results, 3) {
			if NormalizeTitle(res.Title) == want {
				m := results[i]
				matched = &m
				break
			}
		}
	}

	name := krTitle
	if matched != nil && IsKoreanName(matched.Title) {
		name = matched.Title
	}
	if !IsKoreanName(name) && IsKoreanName(krTitle) {
		name = krTitle
	}

	target := r.targetName(name)
	entry := r.entryFor(target)
	entry.AppIDs[g.Platform] = g.AppID
	entry.AddAlias(name, target)
	entry.AddAlias(krTitle, target)
	entry.AddPlatform(g.Platform)
	if entry.Developer == "" {
		entry.Developer = g.Developer
	}
	if entry.Icon == "" {
		entry.Icon = g.Icon
	}

	item := &models.PendingItem{
		Title:         target,
		SearchResults: topResults(results, 3),
		AddedAt:       r.s.timestamp(),
	}

	if matched != nil {
		entry.AppIDs[opposite] = matched.AppID
		entry.AddAlias(matched.Title, target)
		entry.AddPlatform(opposite)
		if entry.Developer == "" {
			entry.Developer = matched.Developer
		}
		r.store(target, entry)
		r.stats.Matched++
		log.Printf("  [%s+%s] merged %q", strings.ToUpper(g.Platform), strings.ToUpper(opposite), target)
		item.Status = models.StatusMatched
	} else {
		r.store(target, entry)
		r.stats.Single++
		log.Printf("  [%s] single %q", strings.ToUpper(g.Platform), target)
		if len(entry.Platforms) != 1 || (entry.Platforms[0] != models.PlatformIOS && entry.Platforms[0] != models.PlatformAndroid) {
			return nil, nil
		}
		item.Status = models.StatusSingle
	}

	item.AppIDs = copyAppIDs(entry.AppIDs)
	item.Developer = entry.Developer
	item.Icon = entry.Icon
	return item, nil
}

func copyAppIDs(ids models.AppIDs) models.AppIDs {
	out := make(models.AppIDs, len(ids))
	for k, v := range ids {
		out[k] = v
	}
	return out
}

// mergeSearchResults concatenates a and b, keeps one result per app id at the
// position it first appeared with the value seen last, and caps at three.
func mergeSearchResults(a, b []models.SearchResult) []models.SearchResult {
	pos := make(map[string]int)
	var out []models.SearchResult
	for _, r := range append(append([]models.SearchResult(nil), a...), b...) {
		if i, ok := pos[r.AppID]; ok {
			out[i] = r
			continue
		}
		pos[r.AppID] = len(out)
		out = append(out, r)
	}
	kept := out[:0]
	for _, r := range out {
		if r.AppID != "" {
			kept = append(kept, r)
		}
	}
	if len(kept) > 3 {
		kept = kept[:3]
	}
	return kept
}

func mergeStatus(a, b string) string {
	if a == models.StatusMatched || b == models.StatusMatched {
		return models.StatusMatched
	}
	if a != "" {
		return a
	}
	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// mergePending folds the items of one run into the queue, one entry per
// title. Entries already queued keep their id, addedAt, developer and icon.
func mergePending(queue *models.ReviewQueue, items []*models.PendingItem) {
	byTitle := make(map[string]int)
	for i, p := range queue.Pending {
		if p != nil && p.Title != "" {
			byTitle[p.Title] = i
		}
	}
	for _, item := range items {
		if item == nil || item.Title == "" {
			continue
		}
		i, ok := byTitle[item.Title]
		if !ok {
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			queue.Pending = append(queue.Pending, item)
			byTitle[item.Title] = len(queue.Pending) - 1
			continue
		}
		existing := queue.Pending[i]
		ids := copyAppIDs(existing.AppIDs)
		for k, v := range item.AppIDs {
			ids[k] = v
		}
		queue.Pending[i] = &models.PendingItem{
			ID:            firstNonEmpty(existing.ID, item.ID, uuid.NewString()),
			Title:         item.Title,
			Status:        mergeStatus(existing.Status, item.Status),
			AppIDs:        ids,
			Developer:     firstNonEmpty(existing.Developer, item.Developer),
			Icon:          firstNonEmpty(existing.Icon, item.Icon),
			SearchResults: mergeSearchResults(existing.SearchResults, item.SearchResults),
			AddedAt:       firstNonEmpty(existing.AddedAt, item.AddedAt),
			LastSearched:  firstNonEmpty(item.LastSearched, existing.LastSearched),
		}
	}
}

// collectPending merges items of the same title produced within one run.
func collectPending(items []*models.PendingItem) []*models.PendingItem {
	var out []*models.PendingItem
	byTitle := make(map[string]int)
	for _, item := range items {
		i, ok := byTitle[item.Title]
		if !ok {
			byTitle[item.Title] = len(out)
			out = append(out, item)
			continue
		}
		prev := out[i]
		ids := copyAppIDs(prev.AppIDs)
		for k, v := range item.AppIDs {
			ids[k] = v
		}
		merged := *item
		merged.AppIDs = ids
		merged.SearchResults = mergeSearchResults(prev.SearchResults, item.SearchResults)
		merged.Status = prev.Status
		if item.Status == models.StatusMatched {
			merged.Status = models.StatusMatched
		}
		out[i] = &merged
	}
	return out
}

func (s *Service) syncDate(ctx context.Context, reg *models.Registry, queue *models.ReviewQueue, date string, snap *models.Snapshot) (*SyncStats, error) {
	games := ExtractGames(snap)
	stats := &SyncStats{Date: date, Observed: len(games)}
	log.Printf("Syncing %s: %d known games, %d observed", date, len(reg.Games), len(games))

	run := &syncRun{
		s:     s,
		reg:   reg,
		index: appIDIndex(reg),
		pairs: buildGlobalPairs(games),
		stats: stats,
	}

	var items []*models.PendingItem
	for i, g := range games {
		if (i+1)%50 == 0 {
			log.Printf("Progress: %d/%d", i+1, len(games))
		}
		if _, ok := run.index[g.AppID]; ok {
			stats.Existing++
			continue
		}
		if g.Platform == models.PlatformSteam {
			run.processSteam(g)
			continue
		}
		item, err := run.processMobile(ctx, g)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, item)
			stats.Pending++
		}
		if err := s.pause(ctx, 100*time.Millisecond); err != nil {
			return nil, err
		}
	}

	mergePending(queue, collectPending(items))
	reg.LastUpdated = date
	reg.TotalGames = len(reg.Games)
	stats.TotalGames = reg.TotalGames
	stats.QueueSize = len(queue.Pending)
	log.Printf("Synced %s: existing=%d steam=%d matched=%d single=%d pending=%d total=%d",
		date, stats.Existing, stats.Steam, stats.Matched, stats.Single, stats.Pending, stats.TotalGames)
	return stats, nil
}

// Sync registers the games of one history snapshot and queues the new
// mobile entries for review.
func (s *Service) Sync(ctx context.Context, date string) (*SyncStats, error) {
	snap, err := s.store.LoadSnapshot(date)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", date, ErrNoHistory)
	}
	if err != nil {
		return nil, err
	}

	unlock, err := s.store.LockRegistry(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	reg, queue, err := s.load()
	if err != nil {
		return nil, err
	}
	stats, err := s.syncDate(ctx, reg, queue, date, snap)
	if err != nil {
		return nil, err
	}
	return stats, s.save(reg, queue)
}

// SyncAll replays Sync over every history date in order. Progress is saved
// after each date.
func (s *Service) SyncAll(ctx context.Context) ([]*SyncStats, error) {
	dates, err := s.store.HistoryDates()
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, ErrNoHistory
	}

	unlock, err := s.store.LockRegistry(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	reg, queue, err := s.load()
	if err != nil {
		return nil, err
	}
	var all []*SyncStats
	for i, date := range dates {
		log.Printf("[%d/%d] %s", i+1, len(dates), date)
		snap, err := s.store.LoadSnapshot(date)
		if err != nil {
			log.Warnf("Skipping %s: %v", date, err)
			continue
		}
		stats, err := s.syncDate(ctx, reg, queue, date, snap)
		if err != nil {
			return all, err
		}
		if err := s.save(reg, queue); err != nil {
			return all, err
		}
		all = append(all, stats)
	}
	return all, nil
}

func (s *Service) load() (*models.Registry, *models.ReviewQueue, error) {
	reg, err := s.store.LoadRegistry()
	if err != nil {
		return nil, nil, err
	}
	queue, err := s.store.LoadReviewQueue()
	if err != nil {
		return nil, nil, err
	}
	return reg, queue, nil
}

func (s *Service) save(reg *models.Registry, queue *models.ReviewQueue) error {
	if err := s.store.SaveRegistry(reg); err != nil {
		return err
	}
	return s.store.SaveReviewQueue(queue)
}
