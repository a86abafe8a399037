// Package provision makes sure registered collections exist in the vector
// database and hands out typed handles to them.
package provision

import (
	"context"
	"errors"
	"sync"
	"time"

	"vector-starter/internal/collections"
	"vector-starter/internal/contextutil"
	"vector-starter/internal/vectordb"
)

// DefaultTimeout bounds each remote call made by a Provisioner.
const DefaultTimeout = 10 * time.Second

// Provisioner creates collections on demand from a registry.
// It is safe for concurrent use.
type Provisioner struct {
	registry *collections.Registry
	timeout  time.Duration

	mu sync.Mutex
	// locks holds a one-slot semaphore per name so waiters can give up
	// when their context ends.
	locks map[collections.Name]chan struct{}
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithTimeout sets the per-call deadline for remote calls. Zero disables it;
// the caller's context still applies.
func WithTimeout(d time.Duration) Option {
	return func(p *Provisioner) {
		p.timeout = d
	}
}

// New creates a Provisioner for registry.
func New(registry *collections.Registry, opts ...Option) *Provisioner {
	p := &Provisioner{
		registry: registry,
		timeout:  DefaultTimeout,
		locks:    make(map[collections.Name]chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the registry the provisioner reads from.
func (p *Provisioner) Registry() *collections.Registry {
	return p.registry
}

// EnsureCollection creates the collection name if it does not exist.
//
// The registry is consulted before any remote call, so an unregistered name
// fails with a ConfigurationError without touching the database. Existence is
// checked on every call. Concurrent callers on the same Provisioner are
// serialized per name; a caller whose context ends while waiting for its turn
// gets a RemoteError wrapping the context error. A create that loses a race
// against another process is treated as success.
func (p *Provisioner) EnsureCollection(ctx context.Context, client vectordb.Client, name collections.Name) error {
	_, err := p.ensure(ctx, client, name)
	return err
}

func (p *Provisioner) ensure(ctx context.Context, client vectordb.Client, name collections.Name) (collections.Schema, error) {
	logger := contextutil.LoggerFromContext(ctx)

	schema, ok := p.registry.Lookup(name)
	if !ok {
		return collections.Schema{}, &ConfigurationError{Name: name, Err: ErrNotRegistered}
	}

	unlock, err := p.lock(ctx, name)
	if err != nil {
		return collections.Schema{}, &RemoteError{Op: "wait to provision", Collection: name, Err: err}
	}
	defer unlock()

	var exists bool
	err = p.call(ctx, func(ctx context.Context) error {
		var err error
		exists, err = client.CollectionExists(ctx, string(name))
		return err
	})
	if err != nil {
		return collections.Schema{}, &RemoteError{Op: "check existence of", Collection: name, Err: err}
	}
	if exists {
		logger.DebugContext(ctx, "collection exists", "collection", name)
		return schema, nil
	}

	req := createRequest(name, schema)
	err = p.call(ctx, func(ctx context.Context) error {
		return client.CreateCollection(ctx, req)
	})
	if errors.Is(err, vectordb.ErrCollectionExists) {
		logger.InfoContext(ctx, "collection created concurrently", "collection", name)
		return schema, nil
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to create collection", "collection", name, "error", err)
		return collections.Schema{}, &RemoteError{Op: "create", Collection: name, Err: err}
	}

	logger.InfoContext(ctx, "collection provisioned", "collection", name, "vectorizer", req.Vectorizer)
	return schema, nil
}

// lock acquires the per-name semaphore and returns its release function.
// It returns ctx.Err() if ctx ends first.
func (p *Provisioner) lock(ctx context.Context, name collections.Name) (func(), error) {
	p.mu.Lock()
	sem, ok := p.locks[name]
	if !ok {
		sem = make(chan struct{}, 1)
		p.locks[name] = sem
	}
	p.mu.Unlock()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// call runs fn under the per-call deadline.
func (p *Provisioner) call(ctx context.Context, fn func(context.Context) error) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return fn(ctx)
}

// createRequest translates a registry entry into the database request.
func createRequest(name collections.Name, schema collections.Schema) vectordb.CreateRequest {
	req := vectordb.CreateRequest{
		Name:       string(name),
		Vectorizer: vectorizerFor(schema.Vectorization),
		Properties: make([]vectordb.Property, 0, len(schema.Properties)),
	}
	if req.Vectorizer == vectordb.VectorizerNone {
		req.Dimensions = schema.Dimensions
	}
	for _, prop := range schema.Properties {
		req.Properties = append(req.Properties, vectordb.Property{
			Name:     prop.Name,
			DataType: string(prop.DataType),
		})
	}
	return req
}

func vectorizerFor(v collections.Vectorization) vectordb.Vectorizer {
	if v == collections.ExternallyVectorized {
		return vectordb.VectorizerText2Vec
	}
	return vectordb.VectorizerNone
}
