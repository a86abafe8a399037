package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"vector-starter/internal/collections"
	"vector-starter/internal/provision"
	"vector-starter/internal/vectordb/mocks"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCollectionHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		setupMock  func(*mocks.MockClient)
		wantStatus int
	}{
		{
			name:       "existing collection",
			collection: "Notes",
			setupMock: func(m *mocks.MockClient) {
				m.EXPECT().CollectionExists(gomock.Any(), "Notes").Return(true, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "creates missing collection",
			collection: "Patients",
			setupMock: func(m *mocks.MockClient) {
				m.EXPECT().CollectionExists(gomock.Any(), "Patients").Return(false, nil)
				m.EXPECT().CreateCollection(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unregistered collection",
			collection: "Invoices",
			setupMock:  func(*mocks.MockClient) {},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "remote failure",
			collection: "Notes",
			setupMock: func(m *mocks.MockClient) {
				m.EXPECT().CollectionExists(gomock.Any(), "Notes").Return(false, errors.New("unavailable"))
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := mocks.NewMockClient(ctrl)
			tt.setupMock(client)

			handler := NewCollectionHandler(client, provision.New(collections.Default()))
			req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/collections/"+tt.collection, nil), "name", tt.collection)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %v, want %v, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil || resp.Error == "" {
					t.Errorf("error response = %+v, %v", resp, err)
				}
				return
			}
			var resp CollectionResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Name != tt.collection || len(resp.Properties) != 2 {
				t.Errorf("ServeHTTP() response = %+v", resp)
			}
		})
	}
}
