package tools

import (
	"context"
	"fmt"

	"github.com/lectern-ai/lectern/provider"
)

// Outliner is the slice of the document store the outline tool needs.
type Outliner interface {
	Outline(courseName string) (string, error)
}

// CourseOutlineTool answers structural questions: course title, link, and
// the full numbered lesson list.
type CourseOutlineTool struct {
	store Outliner
}

func NewCourseOutlineTool(store Outliner) *CourseOutlineTool {
	return &CourseOutlineTool{store: store}
}

func (t *CourseOutlineTool) Definition() provider.ToolDecl {
	return provider.ToolDecl{
		Name:        "get_course_outline",
		Description: "Get the complete outline of a course including title, link, and all lessons",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			"required": []string{"course_name"},
		},
	}
}

func (t *CourseOutlineTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	courseName, _ := args["course_name"].(string)
	if courseName == "" {
		return "", fmt.Errorf("get_course_outline: missing required argument 'course_name'")
	}
	return t.store.Outline(courseName)
}
