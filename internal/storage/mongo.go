package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"sprintlens/internal/cache"
)

// Mongo is the persistent cache.Backend over a MongoDB database.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects to the given URI and verifies the connection.
func NewMongo(ctx context.Context, uri string, dbName string) (*Mongo, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Mongo{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Close disconnects from the database.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) Insert(ctx context.Context, collection string, docs []cache.Entry) error {
	payload := make([]any, len(docs))
	for i, d := range docs {
		payload[i] = d
	}
	_, err := m.db.Collection(collection).InsertMany(ctx, payload)
	return err
}

func (m *Mongo) Upsert(ctx context.Context, collection string, filter cache.Query, doc cache.Entry) error {
	_, err := m.db.Collection(collection).ReplaceOne(ctx,
		toBSON(filter), doc, options.Replace().SetUpsert(true))
	return err
}

func (m *Mongo) Find(ctx context.Context, collection string, filter cache.Query, opts cache.FindOptions) ([]cache.Entry, error) {
	findOpts := options.Find()
	if opts.Sort != "" {
		direction := 1
		if opts.Descending {
			direction = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.Sort, Value: direction}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := m.db.Collection(collection).Find(ctx, toBSON(filter), findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []cache.Entry
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, normalize(doc))
	}
	return results, cursor.Err()
}

func (m *Mongo) DeleteMany(ctx context.Context, collection string, filter cache.Query) error {
	_, err := m.db.Collection(collection).DeleteMany(ctx, toBSON(filter))
	return err
}

func (m *Mongo) EnsureUniqueIndex(ctx context.Context, collection string, field string) error {
	_, err := m.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// toBSON translates the query contract into a Mongo filter. Dot-paths pass
// through untouched; Mongo resolves them natively.
func toBSON(filter cache.Query) bson.M {
	out := bson.M{}
	for field, cond := range filter {
		if gte, ok := cond.(cache.GTE); ok {
			out[field] = bson.M{"$gte": gte.Value}
			continue
		}
		out[field] = cond
	}
	return out
}

// normalize converts BSON decode artifacts back into the plain types the
// rest of the system works with, and strips the synthetic _id.
func normalize(doc bson.M) cache.Entry {
	out := make(cache.Entry, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.A:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = normalizeValue(item)
		}
		return items
	case bson.M:
		nested := make(map[string]any, len(val))
		for k, item := range val {
			nested[k] = normalizeValue(item)
		}
		return nested
	case bson.D:
		nested := make(map[string]any, len(val))
		for _, elem := range val {
			nested[elem.Key] = normalizeValue(elem.Value)
		}
		return nested
	case int32:
		return int(val)
	default:
		return v
	}
}
