package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"vector-starter/internal/contextutil"
	"vector-starter/internal/embeddings"
)

const (
	propertiesKey = "properties"
	vectorizerKey = "vectorizer"
)

// ChromemClient implements Client with the embedded chromem-go database.
// It needs no external service and is used for local runs and tests.
type ChromemClient struct {
	db       *chromem.DB
	embedder embeddings.Embedder

	// mu serializes the existence check and create in CreateCollection,
	// since chromem silently replaces an existing collection of the same
	// name. It also guards colls.
	mu sync.Mutex
	// colls caches resolved collections. chromem's GetCollection sets the
	// embedding function under a read lock, so it is called at most once
	// per name.
	colls map[string]*chromem.Collection
}

// NewChromemClient opens a chromem database. An empty path keeps everything
// in memory; otherwise data is persisted under path ("~" is expanded).
func NewChromemClient(path string, embedder embeddings.Embedder) (*ChromemClient, error) {
	if path == "" {
		return &ChromemClient{db: chromem.NewDB(), embedder: embedder, colls: map[string]*chromem.Collection{}}, nil
	}

	expanded, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(expanded, 0755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", expanded, err)
	}

	db, err := chromem.NewPersistentDB(expanded, false)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}
	return &ChromemClient{db: db, embedder: embedder, colls: map[string]*chromem.Collection{}}, nil
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// Ping always succeeds for the embedded database.
func (c *ChromemClient) Ping(ctx context.Context) error {
	return ctx.Err()
}

// CollectionExists checks if a collection exists.
func (c *ChromemClient) CollectionExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := c.db.ListCollections()[name]
	return ok, nil
}

// CreateCollection creates a collection whose embedding function follows the
// requested vectorizer.
func (c *ChromemClient) CreateCollection(ctx context.Context, req CreateRequest) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := ctx.Err(); err != nil {
		return err
	}
	switch req.Vectorizer {
	case VectorizerText2Vec:
		if c.embedder == nil {
			return fmt.Errorf("create collection %s: %w", req.Name, ErrVectorizerUnavailable)
		}
	case VectorizerNone:
		if req.Dimensions <= 0 {
			return fmt.Errorf("create collection %s: dimensions must be greater than 0", req.Name)
		}
	default:
		return fmt.Errorf("create collection %s: unknown vectorizer %q", req.Name, req.Vectorizer)
	}

	props, err := json.Marshal(req.Properties)
	if err != nil {
		return fmt.Errorf("encoding properties: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.db.ListCollections()[req.Name]; ok {
		return fmt.Errorf("create collection %s: %w", req.Name, ErrCollectionExists)
	}

	metadata := map[string]string{
		vectorizerKey: string(req.Vectorizer),
		propertiesKey: string(props),
	}
	coll, err := c.db.CreateCollection(req.Name, metadata, c.embeddingFunc(req.Vectorizer))
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", req.Name, err)
	}
	c.colls[req.Name] = coll

	logger.InfoContext(ctx, "collection created", "collection", req.Name, "vectorizer", req.Vectorizer)
	return nil
}

// embeddingFunc returns the chromem embedding function for a vectorizer.
// VectorizerNone gets a function that always fails, so every document must
// carry its own embedding.
func (c *ChromemClient) embeddingFunc(v Vectorizer) chromem.EmbeddingFunc {
	if v != VectorizerText2Vec || c.embedder == nil {
		return func(ctx context.Context, text string) ([]float32, error) {
			return nil, ErrVectorRequired
		}
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := c.embedder.EmbedTexts(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		return vecs[0], nil
	}
}

func (c *ChromemClient) collection(target Target) (*chromem.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if coll, ok := c.colls[target.Collection]; ok {
		return coll, nil
	}
	coll := c.db.GetCollection(target.Collection, c.embeddingFunc(target.Vectorizer))
	if coll == nil {
		return nil, fmt.Errorf("%s: %w", target.Collection, ErrCollectionNotFound)
	}
	c.colls[target.Collection] = coll
	return coll, nil
}

// Insert adds objects. Objects without an ID get a random UUID.
func (c *ChromemClient) Insert(ctx context.Context, target Target, objects []Object) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(objects) == 0 {
		return nil, nil
	}

	coll, err := c.collection(target)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(objects))
	docs := make([]chromem.Document, len(objects))
	for i, obj := range objects {
		if target.Vectorizer == VectorizerNone && len(obj.Vector) == 0 {
			return nil, fmt.Errorf("object %d: %w", i, ErrVectorRequired)
		}
		ids[i] = obj.ID
		if ids[i] == "" {
			ids[i] = uuid.NewString()
		} else if _, err := uuid.Parse(ids[i]); err != nil {
			return nil, fmt.Errorf("object %d: id %q is not a UUID", i, ids[i])
		}
		props, err := json.Marshal(obj.Properties)
		if err != nil {
			return nil, fmt.Errorf("object %d: encoding properties: %w", i, err)
		}
		docs[i] = chromem.Document{
			ID:        ids[i],
			Content:   ObjectText(obj, target.TextFields),
			Metadata:  map[string]string{propertiesKey: string(props)},
			Embedding: obj.Vector,
		}
	}

	if err := coll.AddDocuments(ctx, docs, 1); err != nil {
		logger.ErrorContext(ctx, "failed to add documents", "collection", target.Collection, "count", len(docs), "error", err)
		return nil, fmt.Errorf("adding documents: %w", err)
	}

	logger.InfoContext(ctx, "added documents", "collection", target.Collection, "count", len(docs))
	return ids, nil
}

// NearText queries with the embedding of query.
func (c *ChromemClient) NearText(ctx context.Context, target Target, query string, limit int) ([]Result, error) {
	if target.Vectorizer != VectorizerText2Vec || c.embedder == nil {
		return nil, fmt.Errorf("near text on %s: %w", target.Collection, ErrVectorizerUnavailable)
	}
	return c.query(ctx, target, limit, func(coll *chromem.Collection, n int) ([]chromem.Result, error) {
		return coll.Query(ctx, query, n, nil, nil)
	})
}

// NearVector queries with vector.
func (c *ChromemClient) NearVector(ctx context.Context, target Target, vector []float32, limit int) ([]Result, error) {
	return c.query(ctx, target, limit, func(coll *chromem.Collection, n int) ([]chromem.Result, error) {
		return coll.QueryEmbedding(ctx, vector, n, nil, nil)
	})
}

func (c *ChromemClient) query(ctx context.Context, target Target, limit int, run func(*chromem.Collection, int) ([]chromem.Result, error)) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}
	coll, err := c.collection(target)
	if err != nil {
		return nil, err
	}

	// chromem requires nResults <= document count
	n := coll.Count()
	if n == 0 {
		return []Result{}, nil
	}
	if limit < n {
		n = limit
	}

	hits, err := run(coll, n)
	if err != nil {
		logger.ErrorContext(ctx, "failed to query collection", "collection", target.Collection, "limit", limit, "error", err)
		return nil, fmt.Errorf("querying collection %s: %w", target.Collection, err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		props := map[string]any{}
		if raw, ok := hit.Metadata[propertiesKey]; ok {
			if err := json.Unmarshal([]byte(raw), &props); err != nil {
				return nil, fmt.Errorf("decoding properties of %s: %w", hit.ID, err)
			}
		}
		results = append(results, Result{
			ID:         hit.ID,
			Properties: props,
			Score:      hit.Similarity,
		})
	}

	logger.InfoContext(ctx, "search completed", "collection", target.Collection, "limit", limit, "results", len(results))
	return results, nil
}

// Count returns the number of documents in a collection.
func (c *ChromemClient) Count(ctx context.Context, collection string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	coll, ok := c.db.ListCollections()[collection]
	if !ok {
		return 0, fmt.Errorf("%s: %w", collection, ErrCollectionNotFound)
	}
	return coll.Count(), nil
}

// Close is a no-op; persistent databases write through on every change.
func (c *ChromemClient) Close() error {
	return nil
}

var _ Client = (*ChromemClient)(nil)
