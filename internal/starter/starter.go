// Package starter runs the demo: provision the Notes collection, insert a
// handful of notes and run one near-text query.
package starter

import (
	"context"
	"fmt"

	"vector-starter/internal/collections"
	"vector-starter/internal/contextutil"
	"vector-starter/internal/provision"
	"vector-starter/internal/vectordb"
)

// DefaultQuery is the near-text query used when none is given.
const DefaultQuery = "how do vector databases find similar text"

// Options configures a demo run.
type Options struct {
	Notes []collections.Note
	Query string
	Limit int
}

// Result is the outcome of a demo run.
type Result struct {
	InsertedIDs []string
	Matches     []provision.Match[collections.Note]
}

// Run executes the demo against client. The caller owns client.
func Run(ctx context.Context, client vectordb.Client, p *provision.Provisioner, opts Options) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if opts.Query == "" {
		opts.Query = DefaultQuery
	}
	if opts.Limit <= 0 {
		opts.Limit = 1
	}

	notes, err := provision.GetCollection(ctx, p, client, collections.NotesDef)
	if err != nil {
		return nil, fmt.Errorf("getting notes collection: %w", err)
	}
	logger.InfoContext(ctx, "collection ready", "collection", notes.Name(), "vectorization", notes.Vectorization())

	var ids []string
	if len(opts.Notes) > 0 {
		ids, err = notes.InsertMany(ctx, opts.Notes)
		if err != nil {
			return nil, fmt.Errorf("inserting notes: %w", err)
		}
		logger.InfoContext(ctx, "inserted notes", "count", len(ids))
	}

	matches, err := notes.NearText(ctx, opts.Query, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	for _, m := range matches {
		logger.InfoContext(ctx, "match", "id", m.ID, "title", m.Properties.Title, "score", m.Score)
	}

	return &Result{InsertedIDs: ids, Matches: matches}, nil
}
