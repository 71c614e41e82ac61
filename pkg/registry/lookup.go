package registry

import (
	"context"
	"fmt"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/appstore"
	"github.com/amankumarsingh77/gamerscrawl/pkg/playstore"
)

// StoreLookup is the store access the registry jobs need. Both calls query
// the Korean storefront.
type StoreLookup interface {
	KrTitle(ctx context.Context, platform, appID string) (string, error)
	Search(ctx context.Context, platform, term string, n int) ([]models.SearchResult, error)
}

// StoreClients implements StoreLookup over the App Store and Google Play clients.
type StoreClients struct {
	Apple *appstore.Client
	Play  *playstore.Client
}

func (s *StoreClients) KrTitle(ctx context.Context, platform, appID string) (string, error) {
	switch platform {
	case models.PlatformIOS:
		return s.Apple.Lookup(ctx, appID, "kr")
	case models.PlatformAndroid:
		return s.Play.Title(ctx, appID, "kr")
	}
	return "", fmt.Errorf("unsupported platform: %s", platform)
}

func (s *StoreClients) Search(ctx context.Context, platform, term string, n int) ([]models.SearchResult, error) {
	switch platform {
	case models.PlatformIOS:
		return s.Apple.Search(ctx, term, "kr", n)
	case models.PlatformAndroid:
		return s.Play.Search(ctx, term, "kr", n)
	}
	return nil, fmt.Errorf("unsupported platform: %s", platform)
}
