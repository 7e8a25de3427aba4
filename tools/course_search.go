package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lectern-ai/lectern/models"
	"github.com/lectern-ai/lectern/provider"
)

// Searcher is the slice of the document store the search tool needs.
type Searcher interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int) ([]models.SearchResult, error)
}

// CourseSearchTool searches course content with fuzzy course-name matching
// and exact lesson filtering. It retains the SearchResults of its last
// execution so the orchestrator can build the citation list.
type CourseSearchTool struct {
	store Searcher

	mu      sync.Mutex
	sources []models.SearchResult
}

func NewCourseSearchTool(store Searcher) *CourseSearchTool {
	return &CourseSearchTool{store: store}
}

func (t *CourseSearchTool) Definition() provider.ToolDecl {
	return provider.ToolDecl{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]any{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (t *CourseSearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return "", fmt.Errorf("search_course_content: missing required argument 'query'")
	}
	courseName, _ := args["course_name"].(string)
	var lessonNumber *int
	if v, ok := args["lesson_number"].(float64); ok {
		n := int(v)
		lessonNumber = &n
	}

	results, err := t.store.Search(ctx, query, courseName, lessonNumber)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return t.emptyMessage(courseName, lessonNumber), nil
	}
	return t.format(results), nil
}

// emptyMessage is the sentinel returned on zero matches so the model says
// so instead of hallucinating over an empty block.
func (t *CourseSearchTool) emptyMessage(courseName string, lessonNumber *int) string {
	var filter strings.Builder
	if courseName != "" {
		fmt.Fprintf(&filter, " in course '%s'", courseName)
	}
	if lessonNumber != nil {
		fmt.Fprintf(&filter, " in lesson %d", *lessonNumber)
	}
	return fmt.Sprintf("No relevant content found%s.", filter.String())
}

func (t *CourseSearchTool) format(results []models.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		header := "[" + r.CourseTitle
		if r.LessonNumber != nil {
			header += fmt.Sprintf(" - Lesson %d", *r.LessonNumber)
		}
		header += "]"
		blocks = append(blocks, header+"\n"+r.Content)
	}

	t.mu.Lock()
	t.sources = results
	t.mu.Unlock()

	return strings.Join(blocks, "\n\n")
}

func (t *CourseSearchTool) LastSources() []models.SearchResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sources
}

func (t *CourseSearchTool) ResetSources() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = nil
}
