package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Document - Flow Serialization Format
// =============================================================================

// Document is the serialization format for a survey flow: the graph plus
// descriptive metadata. It is what the CLI reads from disk, what the HTTP
// API accepts, and what the document store persists.
type Document struct {
	ID      string `json:"id,omitempty" bson:"_id,omitempty"`
	Name    string `json:"name,omitempty" bson:"name,omitempty"`
	Version int    `json:"version,omitempty" bson:"version,omitempty"`
	Nodes   []Node `json:"nodes" bson:"nodes"`
	Edges   []Edge `json:"edges" bson:"edges"`
}

// FromGraph converts a graph to its document form.
// Nodes keep insertion order so the serialized block order is stable.
func FromGraph(g *Graph, name string) Document {
	doc := Document{Name: name}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, *n)
	}
	doc.Edges = g.Edges()
	return doc
}

// Graph builds a graph from the document.
// Returns the first node or edge error encountered (duplicate IDs, unknown
// endpoints), wrapped with the offending identifier.
func (d Document) Graph() (*Graph, error) {
	g := New()
	for _, n := range d.Nodes {
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
	}
	for _, e := range d.Edges {
		if err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("edge %s: %w", e.ID(), err)
		}
	}
	return g, nil
}

// =============================================================================
// Document Serialization API
// =============================================================================

// MarshalDocument converts a document to pretty-printed JSON bytes.
func MarshalDocument(d Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeDocumentTo(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalDocument decodes JSON bytes into a document.
func UnmarshalDocument(data []byte) (Document, error) {
	return readDocumentFrom(bytes.NewReader(data))
}

// WriteDocumentFile writes a document to a JSON file.
// The file is created with 0644 permissions.
func WriteDocumentFile(d Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeDocumentTo(d, f)
}

// ReadDocumentFile reads a JSON file and returns the decoded document.
func ReadDocumentFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readDocumentFrom(f)
}

// ReadDocument decodes a JSON document from an io.Reader.
func ReadDocument(r io.Reader) (Document, error) {
	return readDocumentFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeDocumentTo(d Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readDocumentFrom(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, fmt.Errorf("decode: %w", err)
	}
	for _, n := range d.Nodes {
		if n.Kind != "" && !n.Kind.Valid() {
			return Document{}, fmt.Errorf("node %q: unknown kind %q", n.ID, n.Kind)
		}
	}
	return d, nil
}
