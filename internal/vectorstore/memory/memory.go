package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/lectern-ai/lectern/internal/vectorstore"
)

// Store is an in-memory vector store using brute-force cosine similarity.
// Suitable for tests and small corpora.
type Store struct {
	mu        sync.RWMutex
	dimension int
	ids       map[string]int
	points    []vectorstore.Point
}

func NewStore() *Store { return &Store{ids: make(map[string]int)} }

func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	return nil
}

func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if s.dimension > 0 && len(p.Vector) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		if i, ok := s.ids[p.ID]; ok {
			s.points[i] = p
			continue
		}
		s.ids[p.ID] = len(s.points)
		s.points = append(s.points, p)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, filter vectorstore.Filter, topK int) ([]vectorstore.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	hits := make([]vectorstore.Hit, 0, topK)
	for _, p := range s.points {
		if !filter.Matches(p.Payload) {
			continue
		}
		hits = append(hits, vectorstore.Hit{Payload: p.Payload, Score: cosine(vector, p.Vector)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points), nil
}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
