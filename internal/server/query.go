package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lectern-ai/lectern/internal/rag"
	"github.com/lectern-ai/lectern/models"
	"github.com/lectern-ai/lectern/provider"
)

// QueryService answers one query against the corpus.
type QueryService interface {
	HandleQuery(ctx context.Context, query, sessionID string) (*rag.Result, error)
}

// CourseCatalog exposes corpus analytics.
type CourseCatalog interface {
	CourseCount() int
	CourseTitles() []string
}

// QueryHandler serves the query and course-analytics endpoints.
type QueryHandler struct {
	RAG  QueryService
	Docs CourseCatalog
}

func (h *QueryHandler) Register(g *echo.Group) {
	g.POST("/query", h.query)
	g.GET("/courses", h.courses)
}

// QueryRequest is the POST /api/query body.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// QueryResponse is the POST /api/query reply.
type QueryResponse struct {
	Answer    string                `json:"answer"`
	Sources   []models.SearchResult `json:"sources"`
	SessionID string                `json:"session_id"`
}

// CoursesResponse is the GET /api/courses reply.
type CoursesResponse struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

func (h *QueryHandler) query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	start := time.Now()
	result, err := h.RAG.HandleQuery(c.Request().Context(), req.Query, req.SessionID)
	queryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		queriesTotal.WithLabelValues("error").Inc()
		return providerHTTPError(err)
	}
	queriesTotal.WithLabelValues("ok").Inc()
	if result.ToolCalls > 0 {
		toolCallsTotal.Add(float64(result.ToolCalls))
	}

	sources := result.Sources
	if sources == nil {
		sources = []models.SearchResult{}
	}
	return c.JSON(http.StatusOK, QueryResponse{
		Answer:    result.Answer,
		Sources:   sources,
		SessionID: result.SessionID,
	})
}

func (h *QueryHandler) courses(c echo.Context) error {
	return c.JSON(http.StatusOK, CoursesResponse{
		TotalCourses: h.Docs.CourseCount(),
		CourseTitles: h.Docs.CourseTitles(),
	})
}

// providerHTTPError maps classified provider failures onto HTTP statuses
// with a user-presentable detail message.
func providerHTTPError(err error) error {
	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	switch apiErr.Kind {
	case provider.KindRateLimited:
		return echo.NewHTTPError(http.StatusTooManyRequests,
			"The assistant is receiving too many requests right now. Please try again in a moment.")
	case provider.KindOverloaded, provider.KindUnavailable:
		return echo.NewHTTPError(http.StatusServiceUnavailable,
			"The assistant is temporarily overloaded. Please try again in a few minutes.")
	case provider.KindConnection:
		return echo.NewHTTPError(http.StatusBadGateway,
			"Could not reach the assistant service. Please check connectivity and try again.")
	case provider.KindUnauthorized:
		return echo.NewHTTPError(http.StatusBadGateway,
			"The assistant service rejected this server's credentials.")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, apiErr.Message)
	}
}
