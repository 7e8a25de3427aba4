package openai_provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lectern-ai/lectern/provider"
)

func TestCreateEmbeddingOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization: %q", got)
		}
		// deliberately out of order
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0, 1}},
				{"index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))
	defer srv.Close()

	e := NewEmbedder("test-key", "", srv.URL, 5*time.Second)
	vecs, err := e.CreateEmbedding(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("CreateEmbedding: %v", err)
	}
	if len(vecs) != 2 || vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Fatalf("vectors out of order: %v", vecs)
	}
	if e.Dimension() != 2 {
		t.Fatalf("dimension: %d", e.Dimension())
	}
}

func TestCreateEmbeddingCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float32{1}}},
		})
	}))
	defer srv.Close()

	e := NewEmbedder("k", "", srv.URL, time.Second)
	if _, err := e.CreateEmbedding(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected count mismatch error")
	}
}

func TestCreateEmbeddingAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewEmbedder("k", "", srv.URL, time.Second)
	_, err := e.CreateEmbedding(context.Background(), []string{"a"})
	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != provider.KindRateLimited {
		t.Fatalf("expected rate limited APIError, got %v", err)
	}
}

func TestCreateEmbeddingEmptyInput(t *testing.T) {
	e := NewEmbedder("k", "", "http://127.0.0.1:1", time.Second)
	vecs, err := e.CreateEmbedding(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Fatalf("empty input must be a no-op, got %v, %v", vecs, err)
	}
}
