package main

import (
	"context"

	"github.com/amankumarsingh77/gamerscrawl/config"
	"github.com/amankumarsingh77/gamerscrawl/db"
	"github.com/amankumarsingh77/gamerscrawl/db/repository"
	"github.com/amankumarsingh77/gamerscrawl/logging"
	"github.com/amankumarsingh77/gamerscrawl/pkg/appstore"
	"github.com/amankumarsingh77/gamerscrawl/pkg/browser"
	"github.com/amankumarsingh77/gamerscrawl/pkg/crawl"
	"github.com/amankumarsingh77/gamerscrawl/pkg/firecrawl"
	"github.com/amankumarsingh77/gamerscrawl/pkg/insight"
	"github.com/amankumarsingh77/gamerscrawl/pkg/playstore"
	"github.com/amankumarsingh77/gamerscrawl/pkg/registry"
	"github.com/amankumarsingh77/gamerscrawl/scraper/community"
	"github.com/amankumarsingh77/gamerscrawl/scraper/fetch"
	"github.com/amankumarsingh77/gamerscrawl/scraper/live"
	"github.com/amankumarsingh77/gamerscrawl/scraper/metacritic"
	"github.com/amankumarsingh77/gamerscrawl/scraper/news"
	"github.com/amankumarsingh77/gamerscrawl/scraper/rankings"
	"github.com/amankumarsingh77/gamerscrawl/scraper/steam"
	"github.com/amankumarsingh77/gamerscrawl/scraper/stocks"
	"github.com/amankumarsingh77/gamerscrawl/scraper/upcoming"
	"github.com/amankumarsingh77/gamerscrawl/scraper/youtube"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

// app holds what every command shares: configuration, the JSON store, the
// HTTP client and the optional MongoDB mirror.
type app struct {
	cfg    *config.Config
	store  *storage.Storage
	http   *fetch.Client
	repo   *repository.MongoRepo
	client *mongo.Client
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(rootFlags.config)
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Log); err != nil {
		return nil, err
	}
	a := &app{
		cfg:   cfg,
		store: storage.NewStorage(cfg.DataRoot, cfg.DocsDir),
		http:  fetch.NewClient(cfg.HTTP),
	}
	if cfg.Mongo.URI != "" {
		client, database, err := db.NewMongoConn(ctx, cfg.Mongo)
		if err != nil {
			log.Warnf("MongoDB mirror disabled: %v", err)
		} else {
			a.client = client
			a.repo = repository.NewMongoRepo(database)
		}
	}
	return a, nil
}

func (a *app) Close() {
	if a.client != nil {
		if err := a.client.Disconnect(context.Background()); err != nil {
			log.Warnf("failed to disconnect from MongoDB: %v", err)
		}
	}
}

// withApp builds the app for one command run and closes it afterwards.
func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, cmd, a)
	}
}

func (a *app) sources() crawl.Sources {
	apple := appstore.NewClient(a.http)
	play := playstore.NewClient(a.http)
	fc := firecrawl.NewClient(a.http, a.cfg.Keys.Firecrawl)
	return crawl.Sources{
		Rankings:   rankings.NewCollector(apple, play),
		Steam:      steam.NewScraper(a.http),
		YouTube:    youtube.NewClient(a.http, a.cfg.Keys.YouTube),
		Live:       live.NewClient(a.http),
		News:       news.NewScraper(a.http, browser.New(a.cfg.ChromePath)),
		Community:  community.NewScraper(a.http, fc),
		Upcoming:   upcoming.NewScraper(a.http, fc, apple),
		Metacritic: metacritic.NewScraper(a.http, a.cfg.Keys.RAWG),
	}
}

func (a *app) crawlMirror() crawl.Mirror {
	if a.repo == nil {
		return nil
	}
	return a.repo
}

func (a *app) insightMirror() insight.Mirror {
	if a.repo == nil {
		return nil
	}
	return a.repo
}

// insightService builds the report service. The AI writer is only created
// when withAI is set, since it requires GEMINI_API_KEY.
func (a *app) insightService(ctx context.Context, withAI bool) (*insight.Service, error) {
	var writer *insight.Writer
	if withAI {
		gen, err := insight.NewGenAI(ctx, a.cfg.AI)
		if err != nil {
			return nil, err
		}
		writer = insight.NewWriter(gen)
	}
	return insight.NewService(a.store, writer, stocks.NewClient(a.http), a.insightMirror()), nil
}

func (a *app) registryService() *registry.Service {
	return registry.NewService(a.store, &registry.StoreClients{
		Apple: appstore.NewClient(a.http),
		Play:  playstore.NewClient(a.http),
	})
}

// mirrorRegistry copies the registry and review queue to MongoDB.
func (a *app) mirrorRegistry(ctx context.Context) {
	if a.repo == nil {
		return
	}
	reg, err := a.store.LoadRegistry()
	if err != nil {
		log.Warnf("registry mirror skipped: %v", err)
		return
	}
	if err := a.repo.SyncRegistry(ctx, reg); err != nil {
		log.Warnf("registry mirror failed: %v", err)
	}
	queue, err := a.store.LoadReviewQueue()
	if err != nil {
		log.Warnf("review queue mirror skipped: %v", err)
		return
	}
	if err := a.repo.SaveReviewQueue(ctx, queue); err != nil {
		log.Warnf("review queue mirror failed: %v", err)
	}
}
