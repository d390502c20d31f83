package etl

import (
	"context"
	"io"
	"time"
)

// Node is the minimal DOM surface the extractor needs. Implementations wrap a
// concrete HTML parser.
type Node interface {
	// Find returns all descendant elements with the given tag, in document order.
	Find(tag string) []Node
	// Attr returns the named attribute and whether it was present.
	Attr(name string) (string, bool)
	// LeadingText returns the text of the node's first child.
	LeadingText() string
}

// Parser turns raw HTML into a root Node.
type Parser interface {
	Parse(raw string) (Node, error)
}

// Fetcher retrieves the raw HTML text behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// TableStore persists converted record sets and answers read queries.
type TableStore interface {
	ReplaceTable(ctx context.Context, table string, set ConvertedSet) error
	Query(ctx context.Context, query string) (QueryResult, error)
	Close()
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes run notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// ProgressLogger appends phase-boundary lines to the progress log.
type ProgressLogger interface {
	Log(message string) error
}

// Hasher computes content digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
