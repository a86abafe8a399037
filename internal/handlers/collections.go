package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vector-starter/internal/collections"
	"vector-starter/internal/contextutil"
	"vector-starter/internal/provision"
	"vector-starter/internal/vectordb"
)

// CollectionHandler provisions collections on request.
type CollectionHandler struct {
	client      vectordb.Client
	provisioner *provision.Provisioner
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(client vectordb.Client, provisioner *provision.Provisioner) *CollectionHandler {
	return &CollectionHandler{
		client:      client,
		provisioner: provisioner,
	}
}

// CollectionResponse describes a provisioned collection.
type CollectionResponse struct {
	Name          string     `json:"name"`
	Vectorization string     `json:"vectorization"`
	Properties    []Property `json:"properties"`
}

// Property is a collection property in API responses.
type Property struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// ServeHTTP ensures the collection named in the URL exists.
// PUT /api/collections/{name}
func (h *CollectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	name := collections.Name(chi.URLParam(r, "name"))
	if err := h.provisioner.EnsureCollection(ctx, h.client, name); err != nil {
		logger.ErrorContext(ctx, "failed to ensure collection", "collection", name, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	schema, _ := h.provisioner.Registry().Lookup(name)
	resp := CollectionResponse{
		Name:          string(name),
		Vectorization: schema.Vectorization.String(),
		Properties:    make([]Property, 0, len(schema.Properties)),
	}
	for _, p := range schema.Properties {
		resp.Properties = append(resp.Properties, Property{Name: p.Name, DataType: string(p.DataType)})
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
