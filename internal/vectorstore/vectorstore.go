package vectorstore

import "context"

// Payload is the citation metadata stored alongside each chunk vector.
type Payload struct {
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	ChunkIndex   int    `json:"chunk_index"`
	Text         string `json:"text"`
}

// Point is one chunk vector plus its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Filter restricts a search to one course and/or one lesson. Zero values
// mean unfiltered. CourseTitle is an exact match; fuzzy resolution happens
// upstream in the docstore.
type Filter struct {
	CourseTitle  string
	LessonNumber *int
}

// Hit is one search match with its cosine similarity score.
type Hit struct {
	Payload Payload
	Score   float32
}

// Store persists chunk vectors and supports filtered similarity search.
type Store interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, filter Filter, topK int) ([]Hit, error)
	Count(ctx context.Context) (int, error)
}

func (f Filter) Matches(p Payload) bool {
	if f.CourseTitle != "" && p.CourseTitle != f.CourseTitle {
		return false
	}
	if f.LessonNumber != nil && (p.LessonNumber == nil || *p.LessonNumber != *f.LessonNumber) {
		return false
	}
	return true
}
