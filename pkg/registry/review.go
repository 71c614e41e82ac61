package registry

import (
	"context"
	"strings"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	log "github.com/sirupsen/logrus"
)

const (
	platformStatusSteam       = "steam"
	platformStatusBoth        = "both"
	platformStatusIOSOnly     = "ios-only"
	platformStatusAndroidOnly = "android-only"
	platformStatusUnknown     = "unknown"
)

// ReviewStats counts the outcome of one review queue pass.
type ReviewStats struct {
	Processed       int
	AutoMerged      int
	AlreadyComplete int
	Skipped         int
	NoMatch         int
	MergedGroups    int
	Deleted         int
	Remaining       int
	TotalGames      int
}

func platformStatus(ids models.AppIDs) string {
	var ios, android, steam bool
	for k := range ids {
		switch models.KeyPlatform(k) {
		case models.PlatformIOS:
			ios = true
		case models.PlatformAndroid:
			android = true
		case models.PlatformSteam:
			steam = true
		}
	}
	switch {
	case steam:
		return platformStatusSteam
	case ios && android:
		return platformStatusBoth
	case ios:
		return platformStatusIOSOnly
	case android:
		return platformStatusAndroidOnly
	}
	return platformStatusUnknown
}

func (s *Service) itemKrTitle(ctx context.Context, item *models.PendingItem, platform string) string {
	for _, k := range sortedKeys(item.AppIDs) {
		if models.KeyPlatform(k) != platform || item.AppIDs[k] == "" {
			continue
		}
		title, err := s.lookup.KrTitle(ctx, platform, item.AppIDs[k])
		if err != nil {
			log.WithFields(log.Fields{"platform": platform, "appId": item.AppIDs[k]}).Warnf("kr title lookup failed: %v", err)
			continue
		}
		if title != "" {
			return title
		}
	}
	return ""
}

// ownerOf returns the registry entry holding any of ids.
func ownerOf(reg *models.Registry, ids models.AppIDs) (string, *models.Game) {
	for _, name := range sortedNames(reg) {
		game := reg.Games[name]
		for _, id := range game.AppIDs {
			if id != "" && ids.Contains(id) {
				return name, game
			}
		}
	}
	return "", nil
}

// ProcessReviewQueue searches the opposite store for the first limit pending
// items (all when limit is 0) and links exact name matches into the registry.
// Items stay queued for a final human check.
func (s *Service) ProcessReviewQueue(ctx context.Context, limit int) (*ReviewStats, error) {
	unlock, err := s.store.LockRegistry(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	reg, queue, err := s.load()
	if err != nil {
		return nil, err
	}

	toProcess := queue.Pending
	var remaining []*models.PendingItem
	if limit > 0 && limit < len(queue.Pending) {
		toProcess = queue.Pending[:limit]
		remaining = queue.Pending[limit:]
	}
	log.Printf("Processing %d of %d pending items", len(toProcess), len(queue.Pending))

	stats := &ReviewStats{}
	kept := make([]*models.PendingItem, 0, len(queue.Pending))
	for _, item := range toProcess {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stats.Processed++
		kept = append(kept, item)
		if item.AppIDs == nil {
			item.AppIDs = make(models.AppIDs)
		}

		status := platformStatus(item.AppIDs)
		log.Printf("Reviewing %q (%s)", item.Title, status)
		switch status {
		case platformStatusSteam:
			stats.Skipped++
			continue
		case platformStatusBoth:
			item.Status = models.StatusMatched
			stats.Skipped++
			continue
		}

		var own, opposite string
		switch status {
		case platformStatusIOSOnly:
			own, opposite = models.PlatformIOS, models.PlatformAndroid
		case platformStatusAndroidOnly:
			own, opposite = models.PlatformAndroid, models.PlatformIOS
		}

		var krTitle string
		var results []models.SearchResult
		searchTitle := item.Title
		if own != "" && s.lookup != nil {
			krTitle = s.itemKrTitle(ctx, item, own)
			if krTitle != "" {
				searchTitle = krTitle
			}
			results, err = s.lookup.Search(ctx, opposite, searchTitle, 5)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.WithFields(log.Fields{"platform": opposite, "term": searchTitle}).Warnf("store search failed: %v", err)
			}
		}
		if len(results) == 0 {
			log.Printf("  no search results, kept pending")
			stats.NoMatch++
			continue
		}

		var matched *models.SearchResult
		wantSearch, wantTitle := NormalizeName(searchTitle), NormalizeName(item.Title)
		for i := range topResults(results, 3) {
			got := NormalizeName(results[i].Title)
			if got == wantSearch || got == wantTitle {
				matched = &results[i]
				break
			}
		}

		now := s.timestamp()
		if matched == nil {
			titles := make([]string, 0, 3)
			for _, r := range topResults(results, 3) {
				titles = append(titles, r.Title)
			}
			log.Printf("  no exact match: %s", strings.Join(titles, ", "))
			item.SearchResults = topResults(results, 5)
			item.LastSearched = now
			stats.NoMatch++
		} else {
			log.Printf("  exact match %q (%s)", matched.Title, matched.AppID)
			s.applyReviewMatch(reg, item, matched, krTitle, opposite, stats)
			item.SearchResults = topResults(results, 3)
			item.LastSearched = now
		}

		if err := s.pause(ctx, 500*time.Millisecond); err != nil {
			return nil, err
		}
	}

	queue.Pending = append(kept, remaining...)
	stats.Remaining = len(queue.Pending)

	var logs []MergeLog
	stats.Deleted, logs = MergeByAppID(reg)
	stats.MergedGroups = len(logs)
	reg.TotalGames = len(reg.Games)
	stats.TotalGames = reg.TotalGames
	log.Printf("Review done: merged=%d complete=%d skipped=%d nomatch=%d removed=%d total=%d",
		stats.AutoMerged, stats.AlreadyComplete, stats.Skipped, stats.NoMatch, stats.Deleted, stats.TotalGames)

	if err := s.save(reg, queue); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Service) applyReviewMatch(reg *models.Registry, item *models.PendingItem, matched *models.SearchResult, krTitle, opposite string, stats *ReviewStats) {
	name, entry := ownerOf(reg, item.AppIDs)
	if entry == nil {
		switch {
		case IsKoreanName(matched.Title):
			name = matched.Title
		case krTitle != "" && IsKoreanName(krTitle):
			name = krTitle
		default:
			name = item.Title
		}
		entry = &models.Game{
			Name:      name,
			AppIDs:    copyAppIDs(item.AppIDs),
			Aliases:   []string{},
			Developer: item.Developer,
			Icon:      item.Icon,
		}
		entry.AddAlias(item.Title, name)
		for k := range entry.AppIDs {
			entry.AddPlatform(models.KeyPlatform(k))
		}
		entry.Slug = GenerateSlug(name, entry.Aliases)
		reg.Games[name] = entry
		log.Printf("  created %q", name)
	}

	if entry.AppIDs[opposite] == "" {
		entry.AppIDs[opposite] = matched.AppID
		entry.AddPlatform(opposite)
		stats.AutoMerged++
		log.Printf("  %s=%s added to %q", opposite, matched.AppID, name)
	} else {
		stats.AlreadyComplete++
	}
	if item.AppIDs[opposite] == "" {
		item.AppIDs[opposite] = matched.AppID
	}
	item.Status = models.StatusMatched

	if matched.Title == name || !IsKoreanName(matched.Title) || IsKoreanName(name) {
		return
	}
	newName := matched.Title
	log.Printf("  renamed %q -> %q", name, newName)
	entry.AddAlias(name, newName)
	if item.Title != matched.Title {
		entry.AddAlias(item.Title, newName)
	}
	delete(reg.Games, name)
	if existing, ok := reg.Games[newName]; ok {
		MergeInto(existing, entry, name, newName)
		return
	}
	entry.Name = newName
	entry.Aliases = removeName(entry.Aliases, newName)
	reg.Games[newName] = entry
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
