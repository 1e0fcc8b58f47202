package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	documentsCollection = "documents"
	historyCollection   = "history"
)

// MongoOpts configures a MongoStore.
type MongoOpts struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// MongoStore is a Gateway backed by two MongoDB collections: point documents keyed by _id
// and an append-only history collection ordered by ObjectID.
// Payloads are kept verbatim as JSON strings.
type MongoStore struct {
	client *mongo.Client
	docs   *mongo.Collection
	hist   *mongo.Collection
	logger zerolog.Logger
}

type pointDocument struct {
	Key       string    `bson:"_id"`
	Data      string    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type historyDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Key       string             `bson:"key"`
	Data      string             `bson:"data"`
	CreatedAt time.Time          `bson:"created_at"`
}

// NewMongoStore connects, pings and prepares indexes.
func NewMongoStore(ctx context.Context, o MongoOpts, logger zerolog.Logger) (*MongoStore, error) {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	start := time.Now()
	logger.Info().Str("uri", redactURI(o.URI)).Str("database", o.Database).Msg("Connecting to MongoDB")

	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(o.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	m := newMongoStoreFromClient(client, o.Database, logger)
	if err := m.createIndexes(ctx); err != nil {
		logger.Warn().Err(err).Msg("MongoDB index creation reported warnings")
	}

	logger.Info().Dur("elapsed", time.Since(start)).Msg("Connected to MongoDB")
	return m, nil
}

func newMongoStoreFromClient(client *mongo.Client, database string, logger zerolog.Logger) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client: client,
		docs:   db.Collection(documentsCollection),
		hist:   db.Collection(historyCollection),
		logger: logger,
	}
}

func (m *MongoStore) createIndexes(ctx context.Context) error {
	ictx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := m.hist.Indexes().CreateOne(ictx, mongo.IndexModel{
		Keys: bson.D{{Key: "key", Value: 1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("history key,_id: %w", err)
	}
	return nil
}

// Read returns the document at key.
func (m *MongoStore) Read(ctx context.Context, key string) ([]byte, error) {
	var doc pointDocument
	err := m.docs.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find %s: %w", key, err)
	}
	return []byte(doc.Data), nil
}

// Write upserts doc at key.
func (m *MongoStore) Write(ctx context.Context, key string, doc []byte) error {
	replacement := pointDocument{Key: key, Data: string(doc), UpdatedAt: time.Now().UTC()}
	_, err := m.docs.ReplaceOne(ctx, bson.M{"_id": key}, replacement, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert %s: %w", key, err)
	}
	return nil
}

// AppendHistory inserts record as a new history entry for key.
func (m *MongoStore) AppendHistory(ctx context.Context, key string, record []byte) error {
	entry := historyDocument{Key: key, Data: string(record), CreatedAt: time.Now().UTC()}
	if _, err := m.hist.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("mongo insert history %s: %w", key, err)
	}
	return nil
}

// ReadHistory returns up to limit entries, newest first.
func (m *MongoStore) ReadHistory(ctx context.Context, key string, limit int) ([][]byte, error) {
	if limit <= 0 {
		return [][]byte{}, nil
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit))
	cur, err := m.hist.Find(ctx, bson.M{"key": key}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo find history %s: %w", key, err)
	}
	defer cur.Close(ctx)

	out := make([][]byte, 0, limit)
	for cur.Next(ctx) {
		var entry historyDocument
		if err := cur.Decode(&entry); err != nil {
			return nil, fmt.Errorf("mongo decode history %s: %w", key, err)
		}
		out = append(out, []byte(entry.Data))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor history %s: %w", key, err)
	}
	return out, nil
}

// List returns the point documents whose key starts with prefix, ordered by key.
func (m *MongoStore) List(ctx context.Context, prefix string) ([][]byte, error) {
	filter := bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	cur, err := m.docs.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo list %s: %w", prefix, err)
	}
	defer cur.Close(ctx)

	out := make([][]byte, 0)
	for cur.Next(ctx) {
		var doc pointDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode %s: %w", prefix, err)
		}
		out = append(out, []byte(doc.Data))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor %s: %w", prefix, err)
	}
	return out, nil
}

// Ping checks the primary is reachable.
func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func redactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}
