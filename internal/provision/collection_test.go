package provision

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"vector-starter/internal/collections"
	"vector-starter/internal/embeddings/embeddingstest"
	"vector-starter/internal/vectordb"
	"vector-starter/internal/vectordb/mocks"
)

func TestGetCollection_EndToEndMocked(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	gomock.InOrder(
		client.EXPECT().CollectionExists(gomock.Any(), "Notes").Return(false, nil).Times(1),
		client.EXPECT().CreateCollection(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req vectordb.CreateRequest) error {
				if req.Vectorizer != vectordb.VectorizerText2Vec {
					t.Errorf("CreateRequest.Vectorizer = %v, want text2vec", req.Vectorizer)
				}
				return nil
			}).Times(1),
	)

	p := New(notesOnlyRegistry())
	notes, err := GetCollection(context.Background(), p, client, collections.NotesDef)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}
	if notes.Name() != collections.Notes {
		t.Errorf("Name() = %v, want Notes", notes.Name())
	}
	if notes.Vectorization() != collections.ExternallyVectorized {
		t.Errorf("Vectorization() = %v", notes.Vectorization())
	}
}

func TestGetCollection_PropertyShape(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().CollectionExists(gomock.Any(), "Notes").Return(true, nil)

	notes, err := GetCollection(context.Background(), New(collections.Default()), client, collections.NotesDef)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}

	props := notes.Properties()
	want := map[string]collections.DataType{"title": collections.DataTypeText, "body": collections.DataTypeText}
	if len(props) != len(want) {
		t.Fatalf("Properties() = %+v, want %v", props, want)
	}
	for _, p := range props {
		if want[p.Name] != p.DataType {
			t.Errorf("property %s has type %v, want %v", p.Name, p.DataType, want[p.Name])
		}
	}
}

func TestGetCollection_ConfigurationErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No expectations: configuration errors make no remote calls.
	client := mocks.NewMockClient(ctrl)

	_, err := GetCollection(context.Background(), New(notesOnlyRegistry()), client, collections.PatientsDef)
	if !errors.Is(err, ErrNotRegistered) {
		t.Errorf("GetCollection(Patients) error = %v, want ErrNotRegistered", err)
	}

	wrongShape := collections.Def[collections.Patient]{Name: collections.Notes}
	_, err = GetCollection(context.Background(), New(collections.Default()), client, wrongShape)
	if !IsConfigurationError(err) || !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("GetCollection(wrong shape) error = %v, want ErrShapeMismatch", err)
	}
}

func TestGetCollection_PropagatesRemoteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().CollectionExists(gomock.Any(), "Notes").Return(false, errors.New("unavailable"))

	coll, err := GetCollection(context.Background(), New(collections.Default()), client, collections.NotesDef)
	if coll != nil || !IsRemoteError(err) {
		t.Errorf("GetCollection() = %v, %v; want nil, RemoteError", coll, err)
	}
}

func TestCollection_InsertEncodesRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().CollectionExists(gomock.Any(), "Notes").Return(true, nil)
	client.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, target vectordb.Target, objects []vectordb.Object) ([]string, error) {
			if target.Collection != "Notes" || target.Vectorizer != vectordb.VectorizerText2Vec {
				t.Errorf("Insert() target = %+v", target)
			}
			if len(target.TextFields) != 2 || target.TextFields[0] != "title" || target.TextFields[1] != "body" {
				t.Errorf("Insert() text fields = %v", target.TextFields)
			}
			if len(objects) != 2 || objects[0].Properties["title"] != "First" || objects[1].Properties["body"] != "two" {
				t.Errorf("Insert() objects = %+v", objects)
			}
			return []string{"1", "2"}, nil
		})

	notes, err := GetCollection(context.Background(), New(collections.Default()), client, collections.NotesDef)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}
	ids, err := notes.InsertMany(context.Background(), []collections.Note{
		{Title: "First", Body: "one"},
		{Title: "Second", Body: "two"},
	})
	if err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("InsertMany() ids = %v", ids)
	}
}

func TestCollection_CallerSuppliedVectors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().CollectionExists(gomock.Any(), "Patients").Return(true, nil)

	patients, err := GetCollection(context.Background(), New(collections.Default()), client, collections.PatientsDef)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}

	_, err = patients.Insert(context.Background(), Record[collections.Patient]{Properties: collections.Patient{Name: "Ada"}})
	if !errors.Is(err, vectordb.ErrVectorRequired) {
		t.Errorf("Insert() without vector error = %v, want ErrVectorRequired", err)
	}

	_, err = patients.Insert(context.Background(), Record[collections.Patient]{
		Properties: collections.Patient{Name: "Ada"},
		Vector:     []float32{1, 2, 3},
	})
	if err == nil {
		t.Error("Insert() with wrong dimensions should fail")
	}

	_, err = patients.NearText(context.Background(), "Ada", 1)
	if !errors.Is(err, vectordb.ErrVectorizerUnavailable) {
		t.Errorf("NearText() error = %v, want ErrVectorizerUnavailable", err)
	}
}

func TestCollection_InsertRejectsNonUUIDID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No Insert expectation: the ID is rejected before any remote call.
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().CollectionExists(gomock.Any(), "Notes").Return(true, nil)

	notes, err := GetCollection(context.Background(), New(collections.Default()), client, collections.NotesDef)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}

	_, err = notes.Insert(context.Background(), Record[collections.Note]{
		ID:         "note-1",
		Properties: collections.Note{Title: "t", Body: "b"},
	})
	if err == nil || IsRemoteError(err) {
		t.Errorf("Insert() with non-UUID id error = %v, want validation error", err)
	}
}

func TestCollection_QueryErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().CollectionExists(gomock.Any(), "Notes").Return(true, nil)
	client.EXPECT().NearText(gomock.Any(), gomock.Any(), "cats", 3).Return(nil, errors.New("timeout"))
	client.EXPECT().Count(gomock.Any(), "Notes").Return(0, errors.New("timeout"))

	notes, err := GetCollection(context.Background(), New(collections.Default()), client, collections.NotesDef)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}
	if _, err := notes.NearText(context.Background(), "cats", 3); !IsRemoteError(err) {
		t.Errorf("NearText() error = %v, want RemoteError", err)
	}
	if _, err := notes.NearText(context.Background(), "cats", 0); err == nil || IsRemoteError(err) {
		t.Errorf("NearText() with limit 0 error = %v, want validation error", err)
	}
	if _, err := notes.Count(context.Background()); !IsRemoteError(err) {
		t.Errorf("Count() error = %v, want RemoteError", err)
	}
}

func TestCollection_EndToEndChromem(t *testing.T) {
	ctx := context.Background()
	embedder := embeddingstest.NewKeyword("weaviate", "vector", "go", "coffee")
	client, err := vectordb.NewChromemClient("", embedder)
	if err != nil {
		t.Fatalf("NewChromemClient() error = %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	p := New(collections.Default())
	notes, err := GetCollection(ctx, p, client, collections.NotesDef)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}

	_, err = notes.InsertMany(ctx, []collections.Note{
		{Title: "Vector search", Body: "A vector database stores vector embeddings"},
		{Title: "Go", Body: "Go is a language; go build it"},
		{Title: "Coffee", Body: "Coffee keeps the team running"},
	})
	if err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}

	n, err := notes.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count() = %d, %v; want 3, nil", n, err)
	}

	matches, err := notes.NearText(ctx, "what is a vector database", 1)
	if err != nil {
		t.Fatalf("NearText() error = %v", err)
	}
	if len(matches) != 1 || matches[0].Properties.Title != "Vector search" {
		t.Errorf("NearText() = %+v, want Vector search", matches)
	}

	// A second handle re-checks existence and reuses the collection.
	again, err := GetCollection(ctx, p, client, collections.NotesDef)
	if err != nil {
		t.Fatalf("second GetCollection() error = %v", err)
	}
	if n, _ := again.Count(ctx); n != 3 {
		t.Errorf("second handle Count() = %d, want 3", n)
	}

	patients, err := GetCollection(ctx, p, client, collections.PatientsDef)
	if err != nil {
		t.Fatalf("GetCollection(Patients) error = %v", err)
	}
	vec := make([]float32, collections.PatientVectorSize)
	vec[0] = 1
	const patientID = "6f1c2d3e-4b5a-4c7d-8e9f-0a1b2c3d4e5f"
	ids, err := patients.Insert(ctx, Record[collections.Patient]{
		ID:         patientID,
		Properties: collections.Patient{Name: "Ada", Summary: "healthy"},
		Vector:     vec,
	})
	if err != nil {
		t.Fatalf("Insert(Patients) error = %v", err)
	}
	if len(ids) != 1 || ids[0] != patientID {
		t.Errorf("Insert(Patients) ids = %v", ids)
	}
	hits, err := patients.NearVector(ctx, vec, 5)
	if err != nil {
		t.Fatalf("NearVector() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Properties.Name != "Ada" {
		t.Errorf("NearVector() = %+v", hits)
	}
}
