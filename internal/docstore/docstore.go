package docstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/google/uuid"

	"github.com/lectern-ai/lectern/internal/chunker"
	"github.com/lectern-ai/lectern/internal/ingest"
	"github.com/lectern-ai/lectern/internal/vectorstore"
	"github.com/lectern-ai/lectern/models"
	"github.com/lectern-ai/lectern/provider"
)

const embedBatchSize = 32

// Store is the document store adapter: it owns the course catalog and the
// chunk collection, delegating embedding and similarity search to the
// configured provider and vector store.
type Store struct {
	vectors    vectorstore.Store
	embedder   provider.Embedder
	chunks     *chunker.Chunker
	maxResults int
	logger     *log.Logger

	mu      sync.RWMutex
	catalog map[string]*models.Course
	titles  bleve.Index // mem-only index of course titles for fuzzy resolution
}

type catalogEntry struct {
	Title string `json:"title"`
}

// New creates a document store adapter. The vector store must be
// initialized by the caller (dimension is only known after the first
// embedding for some embedders).
func New(vectors vectorstore.Store, embedder provider.Embedder, chunks *chunker.Chunker, maxResults int, logger *log.Logger) (*Store, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[DOCS] ", log.LstdFlags)
	}
	titles, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("course title index: %w", err)
	}
	return &Store{
		vectors:    vectors,
		embedder:   embedder,
		chunks:     chunks,
		maxResults: maxResults,
		logger:     logger,
		catalog:    make(map[string]*models.Course),
		titles:     titles,
	}, nil
}

// AddCourse parses one transcript file, chunks and embeds its lessons, and
// adds them to the vector store. Re-ingesting a known course title is a
// no-op: it returns the existing course and zero new chunks.
func (s *Store) AddCourse(ctx context.Context, path string) (*models.Course, int, error) {
	course, err := ingest.ParseCourseFile(path)
	if err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	existing, known := s.catalog[course.Title]
	s.mu.RUnlock()
	if known {
		return existing, 0, nil
	}

	var points []vectorstore.Point
	var texts []string
	for li := range course.Lessons {
		lesson := &course.Lessons[li]
		num := lesson.Number
		for ci, text := range s.chunks.Chunk(lesson.Content) {
			n := num
			points = append(points, vectorstore.Point{
				ID: chunkID(course.Title, num, ci),
				Payload: vectorstore.Payload{
					CourseTitle:  course.Title,
					LessonNumber: &n,
					ChunkIndex:   ci,
					Text:         text,
				},
			})
			texts = append(texts, text)
		}
	}

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := s.embedder.CreateEmbedding(ctx, texts[start:end])
		if err != nil {
			return nil, 0, fmt.Errorf("embed chunks for %q: %w", course.Title, err)
		}
		for i, v := range vecs {
			points[start+i].Vector = v
		}
	}

	if len(points) > 0 {
		if err := s.vectors.Init(ctx, len(points[0].Vector)); err != nil {
			return nil, 0, fmt.Errorf("init vector store: %w", err)
		}
		if err := s.vectors.Upsert(ctx, points); err != nil {
			return nil, 0, fmt.Errorf("index chunks for %q: %w", course.Title, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[course.Title] = course
	if err := s.titles.Index(course.Title, catalogEntry{Title: course.Title}); err != nil {
		return nil, 0, fmt.Errorf("index course title %q: %w", course.Title, err)
	}
	return course, len(points), nil
}

// AddCoursesFromDir ingests every .txt file in dir. Unparseable files are
// logged and skipped, never fatal.
func (s *Store) AddCoursesFromDir(ctx context.Context, dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read docs dir: %w", err)
	}
	courses, chunks := 0, 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		course, added, err := s.AddCourse(ctx, path)
		if err != nil {
			s.logger.Printf("skipping %s: %v", path, err)
			continue
		}
		if added > 0 {
			courses++
			chunks += added
			s.logger.Printf("ingested %q: %d lessons, %d chunks", course.Title, len(course.Lessons), added)
		}
	}
	return courses, chunks, nil
}

// Search embeds the query and runs a filtered similarity search. An empty
// result list is not an error. courseName is resolved fuzzily against the
// catalog; an unmatched name is an error so the tool can report it.
func (s *Store) Search(ctx context.Context, query, courseName string, lessonNumber *int) ([]models.SearchResult, error) {
	filter := vectorstore.Filter{LessonNumber: lessonNumber}
	if courseName != "" {
		title, ok := s.ResolveCourseName(courseName)
		if !ok {
			return nil, fmt.Errorf("no course found matching '%s'", courseName)
		}
		filter.CourseTitle = title
	}

	vecs, err := s.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.vectors.Search(ctx, vecs[0], filter, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]models.SearchResult, 0, len(hits))
	for i, h := range hits {
		results = append(results, s.toSearchResult(i+1, h))
	}
	return results, nil
}

// ResolveCourseName maps a partial or misspelled course name to an exact
// catalog title via the bleve title index.
func (s *Store) ResolveCourseName(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.catalog[name]; ok {
		return name, true
	}

	match := bleve.NewMatchQuery(name)
	match.SetFuzziness(1)
	req := bleve.NewSearchRequestOptions(match, 1, 0, false)
	res, err := s.titles.Search(req)
	if err == nil && len(res.Hits) > 0 {
		return res.Hits[0].ID, true
	}

	// bleve matches whole tokens; fall back to substring for fragments
	// like "MCP" inside "MCP: Build Rich-Context AI Apps".
	lower := strings.ToLower(name)
	var candidates []string
	for title := range s.catalog {
		if strings.Contains(strings.ToLower(title), lower) {
			candidates = append(candidates, title)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[0], true
}

// Outline returns a formatted course outline: header plus the numbered
// lesson list.
func (s *Store) Outline(courseName string) (string, error) {
	title, ok := s.ResolveCourseName(courseName)
	if !ok {
		return "", fmt.Errorf("no course found matching '%s'", courseName)
	}
	s.mu.RLock()
	course := s.catalog[title]
	s.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", course.Title)
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", course.Instructor)
	}
	if course.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.Link)
	}
	b.WriteString("\nLessons:\n")
	if len(course.Lessons) == 0 {
		b.WriteString("No lessons found\n")
	}
	for _, l := range course.Lessons {
		fmt.Fprintf(&b, "Lesson %d: %s", l.Number, l.Title)
		if l.Link != "" {
			fmt.Fprintf(&b, " (%s)", l.Link)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// CourseCount returns the number of ingested courses.
func (s *Store) CourseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.catalog)
}

// CourseTitles returns all ingested course titles, sorted.
func (s *Store) CourseTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make([]string, 0, len(s.catalog))
	for t := range s.catalog {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

func (s *Store) toSearchResult(citationID int, h vectorstore.Hit) models.SearchResult {
	r := models.SearchResult{
		CitationID:     citationID,
		CourseTitle:    h.Payload.CourseTitle,
		LessonNumber:   h.Payload.LessonNumber,
		RelevanceScore: normalizeScore(h.Score),
		ContentSnippet: snippet(h.Payload.Text),
		Content:        h.Payload.Text,
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if course, ok := s.catalog[h.Payload.CourseTitle]; ok {
		r.CourseLink = course.Link
		if h.Payload.LessonNumber != nil {
			for _, l := range course.Lessons {
				if l.Number == *h.Payload.LessonNumber {
					r.LessonTitle = l.Title
					r.LessonLink = l.Link
					break
				}
			}
		}
	}
	return r
}

// normalizeScore maps cosine similarity in [-1,1] to [0,1].
func normalizeScore(cos float32) float64 {
	score := (float64(cos) + 1) / 2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func snippet(text string) string {
	if len(text) <= 150 {
		return text
	}
	return text[:150] + "..."
}

// chunkID derives a stable uuid from the chunk's natural key; qdrant
// requires uuid or integer point ids.
func chunkID(courseTitle string, lessonNumber, chunkIndex int) string {
	key := fmt.Sprintf("%s:%d:%d", courseTitle, lessonNumber, chunkIndex)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
