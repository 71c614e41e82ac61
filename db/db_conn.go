package db

import (
	"context"
	"fmt"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/config"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	GamesCollection     = "games"
	SnapshotsCollection = "snapshots"
	ReportsCollection   = "reports"
	WeeklyCollection    = "weekly_reports"
	ReviewCollection    = "review_queue"
)

// NewMongoConn connects, pings and ensures the indexes of every collection.
func NewMongoConn(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if cfg.URI == "" {
		return nil, nil, fmt.Errorf("MONGO_URI environment variable is not set")
	}
	if cfg.DBName == "" {
		return nil, nil, fmt.Errorf("DB_NAME environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.DBName)
	if err := EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	log.Println("Connected to MongoDB successfully")
	return client, database, nil
}

func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	if err := createGameIndexes(ctx, database.Collection(GamesCollection)); err != nil {
		return err
	}
	for _, name := range []string{SnapshotsCollection, ReportsCollection} {
		_, err := database.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.M{"date": 1},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create date index on %s collection: %w", name, err)
		}
	}
	return nil
}

func createGameIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "aliases", Value: "text"},
			},
			Options: options.Index().SetDefaultLanguage("none"),
		},
		{
			Keys:    bson.M{"name": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.M{"slug": 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes on games collection: %w", err)
	}

	log.Println("Indexes created on games collection")
	return nil
}
