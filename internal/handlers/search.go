package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"vector-starter/internal/collections"
	"vector-starter/internal/contextutil"
	"vector-starter/internal/provision"
	"vector-starter/internal/vectordb"
)

const (
	defaultSearchLimit = 3
	maxSearchLimit     = 50
)

// SearchHandler runs near-text queries over the Notes collection.
type SearchHandler struct {
	client      vectordb.Client
	provisioner *provision.Provisioner
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(client vectordb.Client, provisioner *provision.Provisioner) *SearchHandler {
	return &SearchHandler{
		client:      client,
		provisioner: provisioner,
	}
}

// SearchRequest is the body of POST /api/notes/search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchHit is a single note in a search response.
type SearchHit struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Body  string  `json:"body"`
	Score float32 `json:"score"`
}

// SearchResponse is the response of POST /api/notes/search.
type SearchResponse struct {
	Results []SearchHit `json:"results"`
}

// ServeHTTP handles note searches.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}
	if req.Limit > maxSearchLimit {
		req.Limit = maxSearchLimit
	}

	notes, err := provision.GetCollection(ctx, h.provisioner, h.client, collections.NotesDef)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get notes collection", "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	matches, err := notes.NearText(ctx, req.Query, req.Limit)
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := SearchResponse{Results: make([]SearchHit, 0, len(matches))}
	for _, m := range matches {
		resp.Results = append(resp.Results, SearchHit{
			ID:    m.ID,
			Title: m.Properties.Title,
			Body:  m.Properties.Body,
			Score: m.Score,
		})
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
