package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lectern-ai/lectern/internal/vectorstore"
)

// Store is a minimal REST client to Qdrant. It assumes cosine distance
// and creates the collection if missing.
type Store struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 200 when the collection already exists with the same schema
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body, nil)
}

func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}
	wire := make([]map[string]any, len(points))
	for i, p := range points {
		payload := map[string]any{
			"course_title": p.Payload.CourseTitle,
			"chunk_index":  p.Payload.ChunkIndex,
			"text":         p.Payload.Text,
		}
		if p.Payload.LessonNumber != nil {
			payload["lesson_number"] = *p.Payload.LessonNumber
		}
		wire[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": payload,
		}
	}
	body := map[string]any{"points": wire}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body, nil)
}

func (s *Store) Search(ctx context.Context, vector []float32, filter vectorstore.Filter, topK int) ([]vectorstore.Hit, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if f := buildFilter(filter); f != nil {
		req["filter"] = f
	}
	var resp struct {
		Result []struct {
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}
	hits := make([]vectorstore.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		p := vectorstore.Payload{}
		if v, ok := r.Payload["course_title"].(string); ok {
			p.CourseTitle = v
		}
		if v, ok := r.Payload["lesson_number"].(float64); ok {
			n := int(v)
			p.LessonNumber = &n
		}
		if v, ok := r.Payload["chunk_index"].(float64); ok {
			p.ChunkIndex = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			p.Text = v
		}
		hits = append(hits, vectorstore.Hit{Payload: p, Score: r.Score})
	}
	return hits, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection), map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func buildFilter(filter vectorstore.Filter) map[string]any {
	var must []map[string]any
	if filter.CourseTitle != "" {
		must = append(must, map[string]any{
			"key":   "course_title",
			"match": map[string]any{"value": filter.CourseTitle},
		})
	}
	if filter.LessonNumber != nil {
		must = append(must, map[string]any{
			"key":   "lesson_number",
			"match": map[string]any{"value": *filter.LessonNumber},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func (s *Store) putJSON(ctx context.Context, url string, body, out any) error {
	return s.doJSON(ctx, http.MethodPut, url, body, out)
}

func (s *Store) postJSON(ctx context.Context, url string, body, out any) error {
	return s.doJSON(ctx, http.MethodPost, url, body, out)
}

func (s *Store) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
