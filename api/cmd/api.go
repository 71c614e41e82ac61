package main

import (
	"context"
	"fmt"

	"github.com/amankumarsingh77/gamerscrawl/api/handlers"
	"github.com/amankumarsingh77/gamerscrawl/config"
	"github.com/amankumarsingh77/gamerscrawl/db"
	"github.com/amankumarsingh77/gamerscrawl/db/repository"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	log "github.com/sirupsen/logrus"
)

// newBackend returns the Mongo repository when MONGO_URI is set, otherwise
// the JSON store with a watcher that keeps the registry fresh. The returned
// func releases the backend.
func newBackend(ctx context.Context, cfg *config.Config) (handlers.Backend, func(), error) {
	if cfg.Mongo.URI != "" {
		client, database, err := db.NewMongoConn(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Serving from MongoDB database %s", cfg.Mongo.DBName)
		return repository.NewMongoRepo(database), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warnf("failed to disconnect from MongoDB: %v", err)
			}
		}, nil
	}

	store := storage.NewStorage(cfg.DataRoot, cfg.DocsDir)
	backend, err := handlers.NewFileBackend(store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load file backend: %w", err)
	}
	watchCtx, cancel := context.WithCancel(ctx)
	go func() {
		if err := backend.Watch(watchCtx); err != nil {
			log.Warnf("registry watcher stopped: %v", err)
		}
	}()
	log.Printf("Serving from %s", store.Root)
	return backend, cancel, nil
}
