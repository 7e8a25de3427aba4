package ingest

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/lectern-ai/lectern/models"
)

var lessonHeader = regexp.MustCompile(`^Lesson (\d+):\s*(.+)$`)

// ParseCourseFile reads a structured course transcript:
//
//	Course Title: <title>
//	Course Link: <url>
//	Course Instructor: <name>
//
//	Lesson 0: <lesson title>
//	Lesson Link: <url>
//	<content...>
//
// The title header is mandatory; link and instructor are optional.
func ParseCourseFile(path string) (*models.Course, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open course file: %w", err)
	}
	defer f.Close()

	course := &models.Course{}
	var current *models.Lesson
	var content strings.Builder

	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(content.String())
			course.Lessons = append(course.Lessons, *current)
			current = nil
			content.Reset()
		}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	inHeader := true
	for scanner.Scan() {
		line := scanner.Text()

		if inHeader {
			switch {
			case strings.HasPrefix(line, "Course Title:"):
				course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
				continue
			case strings.HasPrefix(line, "Course Link:"):
				course.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
				continue
			case strings.HasPrefix(line, "Course Instructor:"):
				course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
				continue
			case strings.TrimSpace(line) == "":
				continue
			}
			inHeader = false
		}

		if m := lessonHeader.FindStringSubmatch(line); m != nil {
			flush()
			num, _ := strconv.Atoi(m[1])
			current = &models.Lesson{Number: num, Title: strings.TrimSpace(m[2])}
			continue
		}
		if current != nil && strings.HasPrefix(line, "Lesson Link:") && current.Content == "" && content.Len() == 0 {
			current.Link = strings.TrimSpace(strings.TrimPrefix(line, "Lesson Link:"))
			continue
		}
		if current != nil {
			content.WriteString(line)
			content.WriteString("\n")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read course file: %w", err)
	}
	flush()

	if course.Title == "" {
		return nil, fmt.Errorf("missing 'Course Title:' header in %s", path)
	}
	return course, nil
}
