package models

// Course is one ingested course transcript. The title is the unique key:
// re-ingesting a file whose title is already known is a no-op.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson is a numbered section of a course. Numbers are unique within a
// course but carry no meaning across courses.
type Lesson struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Link    string `json:"link,omitempty"`
	Content string `json:"-"`
}

// Chunk is the unit of semantic search: a sentence-aligned slice of lesson
// text carrying the back-references needed to cite it.
type Chunk struct {
	CourseTitle  string
	LessonNumber *int
	Index        int
	Text         string
}

// SearchResult is a chunk matched against a query, with the citation
// metadata a source card needs. CitationID is 1-indexed within one
// answer's source list and stable in tool-result order.
type SearchResult struct {
	CitationID     int     `json:"citation_id"`
	CourseTitle    string  `json:"course_title"`
	CourseLink     string  `json:"course_link,omitempty"`
	LessonNumber   *int    `json:"lesson_number,omitempty"`
	LessonTitle    string  `json:"lesson_title,omitempty"`
	LessonLink     string  `json:"lesson_link,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
	ContentSnippet string  `json:"content_snippet"`
	// Content is the full chunk text fed back to the model; only the
	// snippet goes out on the API.
	Content string `json:"-"`
}

// Turn roles as sent to the LLM provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of a session's conversation history.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
