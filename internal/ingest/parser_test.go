package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCourseFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "course.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestParseCourseFile(t *testing.T) {
	path := writeCourseFile(t, `Course Title: Building RAG Systems
Course Link: https://example.com/rag
Course Instructor: Ada Example

Lesson 0: Introduction
Lesson Link: https://example.com/rag/lesson0
Welcome to the course. We cover retrieval basics.

Lesson 1: Chunking
Text is split into overlapping windows.
`)
	course, err := ParseCourseFile(path)
	if err != nil {
		t.Fatalf("ParseCourseFile: %v", err)
	}
	if course.Title != "Building RAG Systems" {
		t.Fatalf("title: got %q", course.Title)
	}
	if course.Link != "https://example.com/rag" {
		t.Fatalf("link: got %q", course.Link)
	}
	if course.Instructor != "Ada Example" {
		t.Fatalf("instructor: got %q", course.Instructor)
	}
	if len(course.Lessons) != 2 {
		t.Fatalf("expected 2 lessons, got %d", len(course.Lessons))
	}

	l0 := course.Lessons[0]
	if l0.Number != 0 || l0.Title != "Introduction" {
		t.Fatalf("lesson 0 header: %+v", l0)
	}
	if l0.Link != "https://example.com/rag/lesson0" {
		t.Fatalf("lesson 0 link: got %q", l0.Link)
	}
	if l0.Content != "Welcome to the course. We cover retrieval basics." {
		t.Fatalf("lesson 0 content: got %q", l0.Content)
	}

	l1 := course.Lessons[1]
	if l1.Number != 1 || l1.Title != "Chunking" || l1.Link != "" {
		t.Fatalf("lesson 1 header: %+v", l1)
	}
	if l1.Content != "Text is split into overlapping windows." {
		t.Fatalf("lesson 1 content: got %q", l1.Content)
	}
}

func TestParseCourseFileMissingTitle(t *testing.T) {
	path := writeCourseFile(t, "Lesson 1: No Header\nsome content here.\n")
	if _, err := ParseCourseFile(path); err == nil {
		t.Fatal("expected error for missing course title")
	}
}

func TestParseCourseFileOptionalHeaders(t *testing.T) {
	path := writeCourseFile(t, "Course Title: Minimal\n\nLesson 1: Only Lesson\ncontent line.\n")
	course, err := ParseCourseFile(path)
	if err != nil {
		t.Fatalf("ParseCourseFile: %v", err)
	}
	if course.Link != "" || course.Instructor != "" {
		t.Fatalf("expected empty optional headers, got %+v", course)
	}
	if len(course.Lessons) != 1 {
		t.Fatalf("expected 1 lesson, got %d", len(course.Lessons))
	}
}

func TestParseCourseFileLessonLinkOnlyImmediatelyAfterHeader(t *testing.T) {
	path := writeCourseFile(t, `Course Title: Link Placement

Lesson 1: First
some content first.
Lesson Link: https://example.com/not-a-link-line
more content.
`)
	course, err := ParseCourseFile(path)
	if err != nil {
		t.Fatalf("ParseCourseFile: %v", err)
	}
	l := course.Lessons[0]
	if l.Link != "" {
		t.Fatalf("late Lesson Link line must be treated as content, got link %q", l.Link)
	}
	if want := "some content first.\nLesson Link: https://example.com/not-a-link-line\nmore content."; l.Content != want {
		t.Fatalf("content: got %q", l.Content)
	}
}

func TestParseCourseFileNotFound(t *testing.T) {
	if _, err := ParseCourseFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
