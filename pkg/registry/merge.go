package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	log "github.com/sirupsen/logrus"
)

const (
	MergeTypeAppID   = "appId"
	MergeTypeKrTitle = "krTitle"
)

// MergeLog records one group folded into a main entry.
type MergeLog struct {
	Main   string   `json:"main"`
	Merged []string `json:"merged"`
	Type   string   `json:"type"`
	Key    string   `json:"key"`
}

type MergeResult struct {
	ByAppID    int
	ByKrTitle  int
	Fetched    int
	TotalGames int
	Log        []MergeLog
}

func nameRank(name string) int {
	switch {
	case IsKoreanName(name):
		return 0
	case IsEnglishName(name):
		return 1
	}
	return 2
}

// SelectMain picks the name a group is merged into: Korean names first, then
// plain English ones, keeping the input order otherwise.
func SelectMain(names []string) string {
	if len(names) == 0 {
		return ""
	}
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return nameRank(sorted[i]) < nameRank(sorted[j])
	})
	return sorted[0]
}

// MergeInto folds other into main. main keeps its own values; other only
// fills what main lacks.
func MergeInto(main, other *models.Game, otherName, mainName string) {
	main.AddAlias(otherName, mainName)
	for _, alias := range other.Aliases {
		main.AddAlias(alias, mainName)
	}
	if main.AppIDs == nil {
		main.AppIDs = make(models.AppIDs)
	}
	for _, key := range sortedKeys(other.AppIDs) {
		if main.AppIDs[key] == "" && other.AppIDs[key] != "" {
			main.AppIDs[key] = other.AppIDs[key]
		}
	}
	for _, p := range other.Platforms {
		main.AddPlatform(p)
	}
	if main.Developer == "" {
		main.Developer = other.Developer
	}
	if main.Icon == "" {
		main.Icon = other.Icon
	}
}

// mergeGroups merges every group of two or more names. Names already merged
// away resolve to the entry that absorbed them.
func mergeGroups(reg *models.Registry, keys []string, groups map[string][]string, typ string) (int, []MergeLog) {
	mergedInto := make(map[string]string)
	resolve := func(name string) string {
		for {
			next, ok := mergedInto[name]
			if !ok {
				return name
			}
			name = next
		}
	}

	count := 0
	var logs []MergeLog
	for _, key := range keys {
		var live []string
		seen := make(map[string]bool)
		for _, name := range groups[key] {
			name = resolve(name)
			if seen[name] {
				continue
			}
			if _, ok := reg.Games[name]; !ok {
				continue
			}
			seen[name] = true
			live = append(live, name)
		}
		if len(live) < 2 {
			continue
		}

		mainName := SelectMain(live)
		main := reg.Games[mainName]
		var merged []string
		for _, name := range live {
			if name == mainName {
				continue
			}
			MergeInto(main, reg.Games[name], name, mainName)
			delete(reg.Games, name)
			mergedInto[name] = mainName
			merged = append(merged, name)
			count++
		}
		logs = append(logs, MergeLog{Main: mainName, Merged: merged, Type: typ, Key: key})
	}
	return count, logs
}

// MergeByAppID merges entries sharing any app id value.
func MergeByAppID(reg *models.Registry) (int, []MergeLog) {
	groups := make(map[string][]string)
	var keys []string
	for _, name := range sortedNames(reg) {
		game := reg.Games[name]
		for _, k := range sortedKeys(game.AppIDs) {
			id := game.AppIDs[k]
			if id == "" {
				continue
			}
			if _, ok := groups[id]; !ok {
				keys = append(keys, id)
			}
			groups[id] = append(groups[id], name)
		}
	}
	return mergeGroups(reg, keys, groups, MergeTypeAppID)
}

// MergeByKrTitle merges entries whose app ids resolve to the same normalized
// Korean store title. krTitles maps app id to that title.
func MergeByKrTitle(reg *models.Registry, krTitles map[string]string) (int, []MergeLog) {
	groups := make(map[string][]string)
	var keys []string
	for _, name := range sortedNames(reg) {
		title := krTitleOf(reg.Games[name], krTitles)
		if title == "" {
			continue
		}
		if _, ok := groups[title]; !ok {
			keys = append(keys, title)
		}
		groups[title] = append(groups[title], name)
	}
	return mergeGroups(reg, keys, groups, MergeTypeKrTitle)
}

func krTitleOf(game *models.Game, krTitles map[string]string) string {
	for _, k := range sortedKeys(game.AppIDs) {
		if title := krTitles[game.AppIDs[k]]; title != "" {
			return title
		}
	}
	return ""
}

// historyKrTitles maps app ids seen in the kr charts to their normalized
// title, newest snapshot first.
func (s *Service) historyKrTitles() (map[string]string, error) {
	dates, err := s.store.HistoryDates()
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string)
	for i := len(dates) - 1; i >= 0; i-- {
		snap, err := s.store.LoadSnapshot(dates[i])
		if err != nil {
			log.Warnf("Skipping history %s: %v", dates[i], err)
			continue
		}
		for _, chart := range []string{"grossing", "free"} {
			for _, platform := range []string{models.PlatformIOS, models.PlatformAndroid} {
				for _, item := range snap.Rankings.List(chart, "kr", platform) {
					if item.AppID == "" || item.Title == "" {
						continue
					}
					if _, ok := titles[item.AppID]; !ok {
						titles[item.AppID] = NormalizeTitle(item.Title)
					}
				}
			}
		}
	}
	return titles, nil
}

// fetchKrTitles looks up the mobile app ids missing from titles.
func (s *Service) fetchKrTitles(ctx context.Context, reg *models.Registry, titles map[string]string) (int, error) {
	if s.lookup == nil {
		return 0, nil
	}
	type target struct{ platform, appID string }
	var todo []target
	queued := make(map[string]bool)
	for _, name := range sortedNames(reg) {
		game := reg.Games[name]
		for _, k := range sortedKeys(game.AppIDs) {
			id := game.AppIDs[k]
			platform := models.KeyPlatform(k)
			if id == "" || queued[id] || (platform != models.PlatformIOS && platform != models.PlatformAndroid) {
				continue
			}
			if _, ok := titles[id]; ok {
				continue
			}
			queued[id] = true
			todo = append(todo, target{platform, id})
		}
	}
	log.Printf("Looking up %d kr titles", len(todo))

	fetched := 0
	for i, t := range todo {
		title, err := s.lookup.KrTitle(ctx, t.platform, t.appID)
		if err != nil {
			if ctx.Err() != nil {
				return fetched, ctx.Err()
			}
			log.WithFields(log.Fields{"platform": t.platform, "appId": t.appID}).Warnf("kr title lookup failed: %v", err)
		} else if key := NormalizeTitle(title); key != "" {
			titles[t.appID] = key
			fetched++
		}
		if err := s.pause(ctx, 100*time.Millisecond); err != nil {
			return fetched, err
		}
		if (i+1)%100 == 0 {
			log.Printf("Progress: %d/%d (found %d)", i+1, len(todo), fetched)
		}
	}
	return fetched, nil
}

// MergeDuplicates merges registry entries first by shared app id, then by
// shared Korean store title.
func (s *Service) MergeDuplicates(ctx context.Context) (*MergeResult, error) {
	unlock, err := s.store.LockRegistry(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	reg, err := s.store.LoadRegistry()
	if err != nil {
		return nil, err
	}
	log.Printf("Merging duplicates across %d games", len(reg.Games))

	res := &MergeResult{}
	var logs []MergeLog
	res.ByAppID, logs = MergeByAppID(reg)
	res.Log = append(res.Log, logs...)
	log.Printf("Merged %d games by app id", res.ByAppID)

	titles, err := s.historyKrTitles()
	if err != nil {
		return nil, fmt.Errorf("failed to read history titles: %w", err)
	}
	log.Printf("Found %d kr titles in history", len(titles))
	res.Fetched, err = s.fetchKrTitles(ctx, reg, titles)
	if err != nil {
		return nil, err
	}

	res.ByKrTitle, logs = MergeByKrTitle(reg, titles)
	res.Log = append(res.Log, logs...)
	log.Printf("Merged %d games by kr title", res.ByKrTitle)
	for _, l := range logs {
		log.Printf("[%s] (kr: %s) merged: %s", l.Main, l.Key, strings.Join(l.Merged, ", "))
	}

	reg.TotalGames = len(reg.Games)
	reg.LastMerged = kst.Date(s.now())
	res.TotalGames = reg.TotalGames
	if err := s.store.SaveRegistry(reg); err != nil {
		return nil, err
	}
	return res, nil
}
