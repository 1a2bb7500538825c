package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/observability"
)

const collectionName = "documents"

// MongoStore persists documents in a MongoDB collection, one BSON document
// per flow document, keyed by _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoOptions configures a MongoDB store connection.
type MongoOptions struct {
	// URI is the mongodb:// connection string.
	URI string

	// Database is the database name.
	Database string
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(collectionName),
	}, nil
}

// Get returns the document with the given ID.
func (s *MongoStore) Get(ctx context.Context, id string) (flow.Document, error) {
	start := time.Now()

	var doc flow.Document
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = fmt.Errorf("get %q: %w", id, ErrNotFound)
		observability.Store().OnStoreRead(ctx, "mongo", id, time.Since(start), err)
		return flow.Document{}, err
	}
	if err != nil {
		err = fmt.Errorf("get %q: %w", id, err)
		observability.Store().OnStoreRead(ctx, "mongo", id, time.Since(start), err)
		return flow.Document{}, err
	}

	observability.Store().OnStoreRead(ctx, "mongo", id, time.Since(start), nil)
	return doc, nil
}

// Put upserts the document, assigning an ID and bumping the version.
func (s *MongoStore) Put(ctx context.Context, doc flow.Document) (flow.Document, error) {
	start := time.Now()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.Version++

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		err = fmt.Errorf("put %q: %w", doc.ID, err)
		observability.Store().OnStoreWrite(ctx, "mongo", doc.ID, time.Since(start), err)
		return flow.Document{}, err
	}

	observability.Store().OnStoreWrite(ctx, "mongo", doc.ID, time.Since(start), nil)
	return doc, nil
}

// Delete removes a document.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	return nil
}

// List returns summaries of all stored documents, sorted by name.
func (s *MongoStore) List(ctx context.Context) ([]Info, error) {
	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$project", Value: bson.M{
			"name":       1,
			"version":    1,
			"node_count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$nodes", bson.A{}}}},
			"edge_count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$edges", bson.A{}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Info
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
