package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vector-starter/internal/collections"
	"vector-starter/internal/vectordb"
)

// Collection is a typed handle on a provisioned collection whose records
// decode into T. Obtain one with GetCollection.
type Collection[T any] struct {
	client  vectordb.Client
	name    collections.Name
	schema  collections.Schema
	timeout time.Duration
}

// Record is an object to insert. ID must be empty, to let the database assign
// one, or a UUID; every backend accepts UUIDs. Vector is required for
// caller-supplied-vectors collections.
type Record[T any] struct {
	ID         string
	Properties T
	Vector     []float32
}

// Match is a query hit.
type Match[T any] struct {
	ID         string
	Properties T
	Score      float32
}

// GetCollection ensures def's collection exists and returns a handle to it.
// T must have exactly the properties registered for the collection.
func GetCollection[T any](ctx context.Context, p *Provisioner, client vectordb.Client, def collections.Def[T]) (*Collection[T], error) {
	schema, ok := p.registry.Lookup(def.Name)
	if !ok {
		return nil, &ConfigurationError{Name: def.Name, Err: ErrNotRegistered}
	}
	shape, err := collections.ShapeOf[T]()
	if err != nil {
		return nil, &ConfigurationError{Name: def.Name, Err: fmt.Errorf("%w: %v", ErrShapeMismatch, err)}
	}
	if !schema.Matches(shape) {
		return nil, &ConfigurationError{Name: def.Name, Err: ErrShapeMismatch}
	}

	schema, err = p.ensure(ctx, client, def.Name)
	if err != nil {
		return nil, err
	}

	return &Collection[T]{
		client:  client,
		name:    def.Name,
		schema:  schema,
		timeout: p.timeout,
	}, nil
}

// Name returns the collection name.
func (c *Collection[T]) Name() collections.Name {
	return c.name
}

// Properties returns the declared property shape.
func (c *Collection[T]) Properties() []collections.Property {
	props := make([]collections.Property, len(c.schema.Properties))
	copy(props, c.schema.Properties)
	return props
}

// Vectorization returns the collection's provisioning policy.
func (c *Collection[T]) Vectorization() collections.Vectorization {
	return c.schema.Vectorization
}

func (c *Collection[T]) target() vectordb.Target {
	return vectordb.Target{
		Collection: string(c.name),
		Vectorizer: vectorizerFor(c.schema.Vectorization),
		TextFields: c.schema.TextFields(),
	}
}

func (c *Collection[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// InsertMany inserts items without explicit IDs or vectors. It only works on
// externally vectorized collections.
func (c *Collection[T]) InsertMany(ctx context.Context, items []T) ([]string, error) {
	records := make([]Record[T], len(items))
	for i, item := range items {
		records[i] = Record[T]{Properties: item}
	}
	return c.Insert(ctx, records...)
}

// Insert stores records and returns their IDs in order.
func (c *Collection[T]) Insert(ctx context.Context, records ...Record[T]) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}

	objects := make([]vectordb.Object, len(records))
	for i, rec := range records {
		if rec.ID != "" {
			if _, err := uuid.Parse(rec.ID); err != nil {
				return nil, fmt.Errorf("record %d: id %q is not a UUID", i, rec.ID)
			}
		}
		if c.schema.Vectorization == collections.CallerSuppliedVectors {
			if len(rec.Vector) == 0 {
				return nil, fmt.Errorf("record %d: %w", i, vectordb.ErrVectorRequired)
			}
			if len(rec.Vector) != c.schema.Dimensions {
				return nil, fmt.Errorf("record %d: vector has %d dimensions, collection %s expects %d", i, len(rec.Vector), c.name, c.schema.Dimensions)
			}
		}
		props, err := encodeProperties(rec.Properties)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		objects[i] = vectordb.Object{ID: rec.ID, Properties: props, Vector: rec.Vector}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ids, err := c.client.Insert(ctx, c.target(), objects)
	if err != nil {
		return nil, &RemoteError{Op: "insert into", Collection: c.name, Err: err}
	}
	return ids, nil
}

// NearText returns up to limit records closest to query. It requires an
// externally vectorized collection.
func (c *Collection[T]) NearText(ctx context.Context, query string, limit int) ([]Match[T], error) {
	if c.schema.Vectorization != collections.ExternallyVectorized {
		return nil, fmt.Errorf("near text on %s: %w", c.name, vectordb.ErrVectorizerUnavailable)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	results, err := c.client.NearText(ctx, c.target(), query, limit)
	if err != nil {
		return nil, &RemoteError{Op: "query", Collection: c.name, Err: err}
	}
	return decodeMatches[T](results)
}

// NearVector returns up to limit records closest to vector.
func (c *Collection[T]) NearVector(ctx context.Context, vector []float32, limit int) ([]Match[T], error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	results, err := c.client.NearVector(ctx, c.target(), vector, limit)
	if err != nil {
		return nil, &RemoteError{Op: "query", Collection: c.name, Err: err}
	}
	return decodeMatches[T](results)
}

// Count returns the number of records in the collection.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	n, err := c.client.Count(ctx, string(c.name))
	if err != nil {
		return 0, &RemoteError{Op: "count", Collection: c.name, Err: err}
	}
	return n, nil
}

func encodeProperties(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding properties: %w", err)
	}
	props := map[string]any{}
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("encoding properties: %w", err)
	}
	return props, nil
}

func decodeMatches[T any](results []vectordb.Result) ([]Match[T], error) {
	matches := make([]Match[T], 0, len(results))
	for _, r := range results {
		raw, err := json.Marshal(r.Properties)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", r.ID, err)
		}
		var props T
		if err := json.Unmarshal(raw, &props); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", r.ID, err)
		}
		matches = append(matches, Match[T]{ID: r.ID, Properties: props, Score: r.Score})
	}
	return matches, nil
}
