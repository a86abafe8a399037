package vectordb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vector-starter/internal/contextutil"
	"vector-starter/internal/embeddings"
)

// Vector names used for the two vectorizers. A collection carries exactly one.
const (
	text2vecVectorName = "text2vec"
	noneVectorName     = "vector"
)

// QdrantClient implements Client using Qdrant over gRPC. Managed
// vectorization is performed with the configured embedder before points
// reach Qdrant.
type QdrantClient struct {
	client   *qdrant.Client
	embedder embeddings.Embedder
}

// QdrantConfig configures a QdrantClient.
type QdrantConfig struct {
	// URL should be in the format "http://host:port" (e.g., "http://localhost:6333").
	// The gRPC port (typically 6334) is derived from the HTTP port.
	URL    string
	APIKey string
}

// NewQdrantClient creates a new Qdrant client. embedder may be nil, in which
// case only VectorizerNone collections can be created and used.
func NewQdrantClient(cfg QdrantConfig, embedder embeddings.Embedder) (*QdrantClient, error) {
	host, port, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantClient{
		client:   client,
		embedder: embedder,
	}, nil
}

// parseQdrantURL returns the gRPC host and port for an HTTP URL.
func parseQdrantURL(urlStr string) (string, int, bool, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334 // Default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}

	return host, port, parsedURL.Scheme == "https", nil
}

// Ping checks Qdrant health.
func (c *QdrantClient) Ping(ctx context.Context) error {
	if _, err := c.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

// CollectionExists checks if a collection exists.
func (c *QdrantClient) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := c.client.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// CreateCollection creates a collection with a single named vector whose
// name and size follow the requested vectorizer.
func (c *QdrantClient) CreateCollection(ctx context.Context, req CreateRequest) error {
	logger := contextutil.LoggerFromContext(ctx)

	vectorName, size, err := c.vectorParams(req)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "creating collection", "collection", req.Name, "vectorizer", req.Vectorizer, "vector_size", size)
	err = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: req.Name,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			vectorName: {
				Size:     uint64(size),
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		if isAlreadyExists(err) {
			return fmt.Errorf("create collection %s: %w", req.Name, ErrCollectionExists)
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (c *QdrantClient) vectorParams(req CreateRequest) (string, int, error) {
	switch req.Vectorizer {
	case VectorizerText2Vec:
		if c.embedder == nil {
			return "", 0, fmt.Errorf("create collection %s: %w", req.Name, ErrVectorizerUnavailable)
		}
		return text2vecVectorName, c.embedder.Dimensions(), nil
	case VectorizerNone:
		if req.Dimensions <= 0 {
			return "", 0, fmt.Errorf("create collection %s: dimensions must be greater than 0", req.Name)
		}
		return noneVectorName, req.Dimensions, nil
	default:
		return "", 0, fmt.Errorf("create collection %s: unknown vectorizer %q", req.Name, req.Vectorizer)
	}
}

// isAlreadyExists reports whether a create error is a name conflict. Qdrant
// answers with InvalidArgument and an "already exists" message.
func isAlreadyExists(err error) bool {
	if st, ok := status.FromError(err); ok {
		if st.Code() == codes.AlreadyExists {
			return true
		}
		return strings.Contains(st.Message(), "already exists")
	}
	return strings.Contains(err.Error(), "already exists")
}

// Insert upserts objects. Objects without an ID get a random UUID.
func (c *QdrantClient) Insert(ctx context.Context, target Target, objects []Object) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(objects) == 0 {
		return nil, nil
	}

	vectors, err := c.objectVectors(ctx, target, objects)
	if err != nil {
		return nil, err
	}
	vectorName := vectorNameFor(target.Vectorizer)

	ids := make([]string, len(objects))
	points := make([]*qdrant.PointStruct, 0, len(objects))
	for i, obj := range objects {
		id := obj.ID
		if id == "" {
			id = uuid.NewString()
		} else if _, err := uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("object %d: id %q is not a UUID", i, id)
		}
		ids[i] = id

		point := &qdrant.PointStruct{
			Id: qdrant.NewID(id),
			Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
				vectorName: qdrant.NewVector(vectors[i]...),
			}),
		}
		if len(obj.Properties) > 0 {
			payload, err := qdrant.TryValueMap(obj.Properties)
			if err != nil {
				return nil, fmt.Errorf("object %d: invalid properties: %w", i, err)
			}
			point.Payload = payload
		}
		points = append(points, point)
	}

	_, err = c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: target.Collection,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", target.Collection, "count", len(points), "error", err)
		return nil, notFoundOr(err, target.Collection, "failed to upsert points")
	}

	logger.InfoContext(ctx, "upserted points", "collection", target.Collection, "count", len(points))
	return ids, nil
}

// objectVectors returns the vector of each object, embedding text for
// VectorizerText2Vec targets.
func (c *QdrantClient) objectVectors(ctx context.Context, target Target, objects []Object) ([][]float32, error) {
	vectors := make([][]float32, len(objects))
	switch target.Vectorizer {
	case VectorizerNone:
		for i, obj := range objects {
			if len(obj.Vector) == 0 {
				return nil, fmt.Errorf("object %d: %w", i, ErrVectorRequired)
			}
			vectors[i] = obj.Vector
		}
		return vectors, nil
	case VectorizerText2Vec:
		if c.embedder == nil {
			return nil, ErrVectorizerUnavailable
		}
		var texts []string
		var pending []int
		for i, obj := range objects {
			if len(obj.Vector) > 0 {
				vectors[i] = obj.Vector
				continue
			}
			texts = append(texts, ObjectText(obj, target.TextFields))
			pending = append(pending, i)
		}
		if len(texts) == 0 {
			return vectors, nil
		}
		embedded, err := c.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to vectorize objects: %w", err)
		}
		for j, i := range pending {
			vectors[i] = embedded[j]
		}
		return vectors, nil
	default:
		return nil, fmt.Errorf("unknown vectorizer %q", target.Vectorizer)
	}
}

// NearText embeds query and searches with the resulting vector.
func (c *QdrantClient) NearText(ctx context.Context, target Target, query string, limit int) ([]Result, error) {
	if target.Vectorizer != VectorizerText2Vec || c.embedder == nil {
		return nil, fmt.Errorf("near text on %s: %w", target.Collection, ErrVectorizerUnavailable)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	embedded, err := c.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to vectorize query: %w", err)
	}
	return c.NearVector(ctx, target, embedded[0], limit)
}

// NearVector performs a similarity search.
func (c *QdrantClient) NearVector(ctx context.Context, target Target, vector []float32, limit int) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	vectorName := vectorNameFor(target.Vectorizer)
	lim := uint64(limit)
	scoredPoints, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: target.Collection,
		Query:          qdrant.NewQuery(vector...),
		Using:          &vectorName,
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", target.Collection, "limit", limit, "error", err)
		return nil, notFoundOr(err, target.Collection, "failed to search points")
	}

	results := make([]Result, 0, len(scoredPoints))
	for _, point := range scoredPoints {
		results = append(results, Result{
			ID:         pointIDString(point.Id),
			Properties: convertPayloadToMap(point.Payload),
			Score:      point.Score,
		})
	}

	logger.InfoContext(ctx, "search completed", "collection", target.Collection, "limit", limit, "results", len(results))
	return results, nil
}

// Count returns the exact number of points in a collection.
func (c *QdrantClient) Count(ctx context.Context, collection string) (int, error) {
	exact := true
	count, err := c.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, notFoundOr(err, collection, "failed to count points")
	}
	return int(count), nil
}

// Close closes the gRPC connection.
func (c *QdrantClient) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close Qdrant client: %w", err)
	}
	return nil
}

func vectorNameFor(v Vectorizer) string {
	if v == VectorizerText2Vec {
		return text2vecVectorName
	}
	return noneVectorName
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}

var _ Client = (*QdrantClient)(nil)

// notFoundOr maps Qdrant's NotFound status to ErrCollectionNotFound and
// wraps any other error with msg.
func notFoundOr(err error, collection, msg string) error {
	var st interface{ GRPCStatus() *status.Status }
	if errors.As(err, &st) && st.GRPCStatus().Code() == codes.NotFound {
		return fmt.Errorf("%s: %w", collection, ErrCollectionNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
