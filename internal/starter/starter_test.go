package starter

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"vector-starter/internal/collections"
	"vector-starter/internal/embeddings/embeddingstest"
	"vector-starter/internal/provision"
	"vector-starter/internal/seed"
	"vector-starter/internal/vectordb"
	"vector-starter/internal/vectordb/mocks"
)

func TestRun_Chromem(t *testing.T) {
	ctx := context.Background()
	client, err := vectordb.NewChromemClient("", embeddingstest.NewKeyword("vector", "embedding", "coffee", "trail"))
	if err != nil {
		t.Fatalf("NewChromemClient() error = %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	result, err := Run(ctx, client, provision.New(collections.Default()), Options{
		Notes: seed.DefaultNotes(),
		Query: "where is the trail",
		Limit: 1,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.InsertedIDs) != len(seed.DefaultNotes()) {
		t.Errorf("Run() inserted %d notes, want %d", len(result.InsertedIDs), len(seed.DefaultNotes()))
	}
	if len(result.Matches) != 1 || result.Matches[0].Properties.Title != "Weekend hike" {
		t.Errorf("Run() matches = %+v, want Weekend hike", result.Matches)
	}
}

func TestRun_Defaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().CollectionExists(gomock.Any(), "Notes").Return(true, nil)
	client.EXPECT().NearText(gomock.Any(), gomock.Any(), DefaultQuery, 1).Return([]vectordb.Result{
		{ID: "n1", Properties: map[string]any{"title": "Vector databases", "body": "..."}, Score: 0.9},
	}, nil)

	result, err := Run(context.Background(), client, provision.New(collections.Default()), Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.InsertedIDs) != 0 {
		t.Errorf("Run() without notes inserted %v", result.InsertedIDs)
	}
	if len(result.Matches) != 1 || result.Matches[0].Properties.Title != "Vector databases" {
		t.Errorf("Run() matches = %+v", result.Matches)
	}
}

func TestRun_ProvisioningFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().CollectionExists(gomock.Any(), "Notes").Return(false, errors.New("connection refused"))

	_, err := Run(context.Background(), client, provision.New(collections.Default()), Options{Notes: seed.DefaultNotes()})
	if !provision.IsRemoteError(err) {
		t.Errorf("Run() error = %v, want RemoteError", err)
	}
}
