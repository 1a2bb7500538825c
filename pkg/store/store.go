// Package store persists flow documents.
//
// Two implementations are provided: [MemoryStore] for tests and single
// process usage, and [MongoStore] for the HTTP service. Both assign
// UUIDv4 document IDs on first save and bump the document version on every
// save, so hosts can detect concurrent edits cheaply.
package store

import (
	"context"
	"errors"

	"github.com/mlindgren/flowcanvas/pkg/flow"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Info is a document listing entry.
type Info struct {
	ID      string `json:"id" bson:"_id"`
	Name    string `json:"name" bson:"name"`
	Version int    `json:"version" bson:"version"`
	Nodes   int    `json:"nodes" bson:"node_count"`
	Edges   int    `json:"edges" bson:"edge_count"`
}

// Store persists flow documents.
type Store interface {
	// Get returns the document with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (flow.Document, error)

	// Put saves the document, assigning an ID when empty and incrementing
	// the version. The saved document is returned.
	Put(ctx context.Context, doc flow.Document) (flow.Document, error)

	// Delete removes a document, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns summaries of all stored documents.
	List(ctx context.Context) ([]Info, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
