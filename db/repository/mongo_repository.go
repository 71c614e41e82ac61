package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/db"
	"github.com/amankumarsingh77/gamerscrawl/db/models"
	"github.com/amankumarsingh77/gamerscrawl/pkg/registry"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	opTimeout     = 5 * time.Second
	bulkTimeout   = 60 * time.Second
	reviewQueueID = "review-queue"
)

// MongoRepo mirrors the flat store into MongoDB and serves the read API.
type MongoRepo struct {
	games     *mongo.Collection
	snapshots *mongo.Collection
	reports   *mongo.Collection
	weekly    *mongo.Collection
	review    *mongo.Collection
}

func NewMongoRepo(database *mongo.Database) *MongoRepo {
	return &MongoRepo{
		games:     database.Collection(db.GamesCollection),
		snapshots: database.Collection(db.SnapshotsCollection),
		reports:   database.Collection(db.ReportsCollection),
		weekly:    database.Collection(db.WeeklyCollection),
		review:    database.Collection(db.ReviewCollection),
	}
}

// gameDoc is a registry game as stored in Mongo, with the page slug the site
// uses and the NormalizeName keys searched by the API.
type gameDoc struct {
	models.Game `bson:",inline"`
	SearchKeys  []string `bson:"search_keys"`
}

type snapshotDoc struct {
	Date     string           `bson:"date"`
	Snapshot *models.Snapshot `bson:"snapshot"`
}

type weeklyDoc struct {
	ID     string               `bson:"_id"`
	Report *models.WeeklyReport `bson:"report"`
}

type reviewDoc struct {
	ID    string              `bson:"_id"`
	Queue *models.ReviewQueue `bson:"queue"`
}

// gameDocs builds one document per registry game, sorted by name. Slugs come
// from registry.AssignSlugs so they match the rendered pages; games without a
// page get no slug.
func gameDocs(reg *models.Registry) []gameDoc {
	slugs := registry.AssignSlugs(reg)
	docs := make([]gameDoc, 0, len(reg.Games))
	for name, g := range reg.Games {
		doc := gameDoc{Game: *g, SearchKeys: registry.SearchKeys(name, g)}
		doc.Name = name
		doc.Slug = slugs[name]
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs
}

// SyncRegistry upserts every game by name and removes games that are no
// longer in the registry.
func (m *MongoRepo) SyncRegistry(ctx context.Context, reg *models.Registry) error {
	ctx, cancel := context.WithTimeout(ctx, bulkTimeout)
	defer cancel()

	docs := gameDocs(reg)
	names := make([]string, 0, len(docs))
	writes := make([]mongo.WriteModel, 0, len(docs))
	for i := range docs {
		names = append(names, docs[i].Name)
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"name": docs[i].Name}).
			SetReplacement(&docs[i]).
			SetUpsert(true))
	}
	if len(writes) > 0 {
		if _, err := m.games.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("failed to upsert games: %w", err)
		}
	}
	if _, err := m.games.DeleteMany(ctx, bson.M{"name": bson.M{"$nin": names}}); err != nil {
		return fmt.Errorf("failed to remove merged games: %w", err)
	}
	return nil
}

func (m *MongoRepo) SaveSnapshot(ctx context.Context, date string, snap *models.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := m.snapshots.ReplaceOne(ctx, bson.M{"date": date}, snapshotDoc{Date: date, Snapshot: snap},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", date, err)
	}
	return nil
}

func (m *MongoRepo) SaveReport(ctx context.Context, r *models.DailyReport) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := m.reports.ReplaceOne(ctx, bson.M{"date": r.Date}, r, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", r.Date, err)
	}
	return nil
}

func (m *MongoRepo) SaveWeekly(ctx context.Context, id string, w *models.WeeklyReport) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := m.weekly.ReplaceOne(ctx, bson.M{"_id": id}, weeklyDoc{ID: id, Report: w}, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save weekly report %s: %w", id, err)
	}
	return nil
}

func (m *MongoRepo) SaveReviewQueue(ctx context.Context, q *models.ReviewQueue) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := m.review.ReplaceOne(ctx, bson.M{"_id": reviewQueueID}, reviewDoc{ID: reviewQueueID, Queue: q},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save review queue: %w", err)
	}
	return nil
}

// SearchFilter matches the NormalizeName form of q inside any stored search
// key. It reports false when q normalizes to nothing.
func SearchFilter(q string) (bson.M, bool) {
	key := registry.NormalizeName(q)
	if key == "" {
		return nil, false
	}
	return bson.M{"search_keys": primitive.Regex{Pattern: regexp.QuoteMeta(key)}}, true
}

func (m *MongoRepo) SearchGames(ctx context.Context, q string, limit int) ([]*models.Game, error) {
	games := []*models.Game{}
	filter, ok := SearchFilter(q)
	if !ok {
		return games, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opt := options.Find().SetSort(bson.M{"name": 1})
	if limit > 0 {
		opt.SetLimit(int64(limit))
	}
	cursor, err := m.games.Find(ctx, filter, opt)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc gameDoc
		if err = cursor.Decode(&doc); err != nil {
			return nil, err
		}
		games = append(games, &doc.Game)
	}
	return games, cursor.Err()
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return err
}

func (m *MongoRepo) GameBySlug(ctx context.Context, slug string) (*models.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var doc gameDoc
	if err := m.games.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc); err != nil {
		return nil, notFound(err, "game "+slug)
	}
	return &doc.Game, nil
}

func (m *MongoRepo) Report(ctx context.Context, date string) (*models.DailyReport, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var r models.DailyReport
	if err := m.reports.FindOne(ctx, bson.M{"date": date}).Decode(&r); err != nil {
		return nil, notFound(err, "report "+date)
	}
	return &r, nil
}

func (m *MongoRepo) Weekly(ctx context.Context, id string) (*models.WeeklyReport, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var doc weeklyDoc
	if err := m.weekly.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err, "weekly report "+id)
	}
	return doc.Report, nil
}

// ReviewQueue returns an empty queue when none was mirrored yet.
func (m *MongoRepo) ReviewQueue(ctx context.Context) (*models.ReviewQueue, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var doc reviewDoc
	err := m.review.FindOne(ctx, bson.M{"_id": reviewQueueID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && doc.Queue == nil) {
		return models.NewReviewQueue(), nil
	}
	if err != nil {
		return nil, err
	}
	return doc.Queue, nil
}
