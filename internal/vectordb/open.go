package vectordb

import (
	"fmt"

	"vector-starter/internal/embeddings"
)

// Backend names accepted by Open.
const (
	BackendQdrant  = "qdrant"
	BackendChromem = "chromem"
)

// Options selects and configures a backend.
type Options struct {
	Backend      string
	QdrantURL    string
	QdrantAPIKey string
	ChromemPath  string
}

// Open connects to the configured backend. The caller owns the returned
// client and must Close it.
func Open(opts Options, embedder embeddings.Embedder) (Client, error) {
	switch opts.Backend {
	case BackendQdrant, "":
		return NewQdrantClient(QdrantConfig{URL: opts.QdrantURL, APIKey: opts.QdrantAPIKey}, embedder)
	case BackendChromem:
		return NewChromemClient(opts.ChromemPath, embedder)
	default:
		return nil, fmt.Errorf("unknown vector database backend %q", opts.Backend)
	}
}
