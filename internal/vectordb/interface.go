package vectordb

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_client.go -package=mocks vector-starter/internal/vectordb Client

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrCollectionExists is returned by CreateCollection when the collection is already present.
	ErrCollectionExists = errors.New("collection already exists")
	// ErrCollectionNotFound is returned when an operation targets a missing collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrVectorRequired is returned when an object without a vector is inserted into a collection that has no vectorizer.
	ErrVectorRequired = errors.New("vector required: collection has no vectorizer")
	// ErrVectorizerUnavailable is returned when managed vectorization is requested but no embedder is configured.
	ErrVectorizerUnavailable = errors.New("vectorizer unavailable")
)

// Vectorizer selects how a collection's vectors are produced.
type Vectorizer string

const (
	// VectorizerText2Vec requests the managed text embedding integration.
	VectorizerText2Vec Vectorizer = "text2vec"
	// VectorizerNone means the caller supplies vectors at insert time.
	VectorizerNone Vectorizer = "none"
)

// Property is a field of the collection's records as sent in a create request.
type Property struct {
	Name     string
	DataType string
}

// CreateRequest describes a collection to create.
type CreateRequest struct {
	Name       string
	Vectorizer Vectorizer
	// Dimensions is required for VectorizerNone. For VectorizerText2Vec the
	// embedder's size is used.
	Dimensions int
	Properties []Property
}

// Target identifies the collection an operation runs against along with what
// the backend needs to vectorize for it.
type Target struct {
	Collection string
	Vectorizer Vectorizer
	// TextFields lists the properties concatenated into the text that is
	// embedded for VectorizerText2Vec.
	TextFields []string
}

// Object is a record stored in a collection.
type Object struct {
	ID         string
	Properties map[string]any
	Vector     []float32
}

// Result is a single hit of a similarity query.
type Result struct {
	ID         string
	Properties map[string]any
	// Score is the similarity to the query; higher is closer.
	Score float32
}

// Client is a session with a vector database. Implementations must be safe
// for concurrent use.
type Client interface {
	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error

	// CollectionExists reports whether a collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates a collection. It returns an error wrapping
	// ErrCollectionExists if the collection is already present.
	CreateCollection(ctx context.Context, req CreateRequest) error

	// Insert stores objects and returns their IDs.
	Insert(ctx context.Context, target Target, objects []Object) ([]string, error)

	// NearText returns the objects closest to the embedding of query.
	NearText(ctx context.Context, target Target, query string, limit int) ([]Result, error)

	// NearVector returns the objects closest to vector.
	NearVector(ctx context.Context, target Target, vector []float32, limit int) ([]Result, error)

	// Count returns the number of objects in a collection.
	Count(ctx context.Context, collection string) (int, error)

	// Close releases the session.
	Close() error
}

// ObjectText joins the non-empty string values of fields in obj.
func ObjectText(obj Object, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if s, ok := obj.Properties[field].(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
