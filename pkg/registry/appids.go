package registry

import (
	"context"
	"errors"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	log "github.com/sirupsen/logrus"
)

var appIDRegions = []string{"kr", "jp", "us", "cn", "tw"}

type regionID struct {
	key   string
	appID string
}

type observedApp struct {
	names   []string
	regions []regionID
}

func (o *observedApp) hasName(name string) bool {
	for _, n := range o.names {
		if n == name {
			return true
		}
	}
	return false
}

func (o *observedApp) addRegion(key, appID string) {
	for i := range o.regions {
		if o.regions[i].key == key {
			o.regions[i].appID = appID
			return
		}
	}
	o.regions = append(o.regions, regionID{key, appID})
}

// AppIDSyncResult counts the aliases and regional keys added.
type AppIDSyncResult struct {
	Date    string
	Aliases int
	Regions int
}

// SyncAppIDs copies regional app ids and localized titles from the grossing
// charts of snap onto the registry entries that own those apps.
func SyncAppIDs(reg *models.Registry, snap *models.Snapshot) (aliases, regions int) {
	apps := make(map[string]*observedApp)
	var order []string
	for _, region := range appIDRegions {
		for _, platform := range []string{models.PlatformIOS, models.PlatformAndroid} {
			for _, item := range snap.Rankings.List("grossing", region, platform) {
				if item.Title == "" || item.AppID == "" {
					continue
				}
				app, ok := apps[item.AppID]
				if !ok {
					app = &observedApp{}
					apps[item.AppID] = app
					order = append(order, item.AppID)
				}
				if !app.hasName(item.Title) {
					app.names = append(app.names, item.Title)
				}
				app.addRegion(platform+":"+region, item.AppID)
			}
		}
	}

	for _, name := range sortedNames(reg) {
		game := reg.Games[name]
		if game.AppIDs == nil {
			game.AppIDs = make(models.AppIDs)
		}
		// Aliases are tried before the name when filling region keys.
		known := make([]string, 0, len(game.Aliases)+1)
		knownSet := make(map[string]bool, len(game.Aliases)+1)
		for _, n := range append(append([]string(nil), game.Aliases...), name) {
			if !knownSet[n] {
				known = append(known, n)
				knownSet[n] = true
			}
		}

		for _, k := range sortedKeys(game.AppIDs) {
			app := apps[game.AppIDs[k]]
			if app == nil {
				continue
			}
			for _, n := range app.names {
				if knownSet[n] {
					continue
				}
				game.Aliases = append(game.Aliases, n)
				known = append(known, n)
				knownSet[n] = true
				aliases++
				log.Printf("Alias added: %s <- %q", name, n)
			}
		}

		for _, alias := range known {
			for _, id := range order {
				app := apps[id]
				if !app.hasName(alias) {
					continue
				}
				for _, r := range app.regions {
					base := game.AppIDs[models.KeyPlatform(r.key)]
					if base == "" || base == r.appID || game.AppIDs[r.key] != "" {
						continue
					}
					game.AppIDs[r.key] = r.appID
					regions++
					log.Printf("Regional app id: %s [%s] = %s", name, r.key, r.appID)
				}
			}
		}
	}
	return aliases, regions
}

// SyncAppIDs runs SyncAppIDs against the latest history snapshot.
func (s *Service) SyncAppIDs(ctx context.Context) (*AppIDSyncResult, error) {
	date, snap, err := s.store.LatestSnapshot()
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, err
	}

	unlock, err := s.store.LockRegistry(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	reg, err := s.store.LoadRegistry()
	if err != nil {
		return nil, err
	}
	res := &AppIDSyncResult{Date: date}
	res.Aliases, res.Regions = SyncAppIDs(reg, snap)
	log.Printf("App id sync from %s: %d aliases, %d regional ids", date, res.Aliases, res.Regions)
	if err := s.store.SaveRegistry(reg); err != nil {
		return nil, err
	}
	return res, nil
}
