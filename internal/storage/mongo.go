package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"plugmon/internal/domain"
)

// MongoStore is the secondary sink: one collection per device, indexed
// ascending on timestamp. It is constructed once at startup and closed at
// shutdown; an unconfigured store is represented as a nil *MongoStore.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database

	mu      sync.Mutex
	indexed map[string]bool
}

// ConnectMongo opens the document store. An empty URI means the secondary
// sink is not configured, which is not an error: the caller gets a nil store.
// The database name comes from the URI path when present, else fallbackDB.
func ConnectMongo(ctx context.Context, uri, fallbackDB string) (*MongoStore, error) {
	if uri == "" {
		return nil, nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect document store: %w", err)
	}
	name := databaseFromURI(uri)
	if name == "" {
		name = fallbackDB
	}
	if name == "" {
		name = "tuya_energy"
	}
	return &MongoStore{
		client:  client,
		db:      client.Database(name),
		indexed: make(map[string]bool),
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) collection(ctx context.Context, deviceID string) *mongo.Collection {
	coll := s.db.Collection("readings_" + deviceID)

	s.mu.Lock()
	seen := s.indexed[deviceID]
	s.indexed[deviceID] = true
	s.mu.Unlock()

	if !seen {
		model := mongo.IndexModel{Keys: bson.D{{Key: "timestamp", Value: 1}}}
		if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
			log.Warn().Err(err).Str("device_id", deviceID).Msg("timestamp index create failed")
		}
	}
	return coll
}

func (s *MongoStore) Insert(ctx context.Context, r domain.Reading) error {
	_, err := s.collection(ctx, r.DeviceID).InsertOne(ctx, r)
	return err
}

// Upsert writes a reading keyed on (device_id, timestamp), so re-running a
// backfill cannot duplicate rows.
func (s *MongoStore) Upsert(ctx context.Context, r domain.Reading) error {
	filter := bson.D{
		{Key: "device_id", Value: r.DeviceID},
		{Key: "timestamp", Value: r.Timestamp},
	}
	update := bson.D{{Key: "$set", Value: r}}
	_, err := s.collection(ctx, r.DeviceID).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Range returns readings with start <= timestamp <= end, ascending.
func (s *MongoStore) Range(ctx context.Context, deviceID string, start, end time.Time) ([]domain.Reading, error) {
	filter := bson.D{{Key: "timestamp", Value: bson.D{
		{Key: "$gte", Value: start},
		{Key: "$lte", Value: end},
	}}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := s.collection(ctx, deviceID).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}
	var out []domain.Reading
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode range query: %w", err)
	}
	return out, nil
}

// Latest returns the n most recent readings, newest first.
func (s *MongoStore) Latest(ctx context.Context, deviceID string, n int) ([]domain.Reading, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if n > 0 {
		opts = opts.SetLimit(int64(n))
	}
	cur, err := s.collection(ctx, deviceID).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("latest query: %w", err)
	}
	var out []domain.Reading
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode latest query: %w", err)
	}
	return out, nil
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.Trim(u.Path, "/")
}
