package guidance

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/talkify-cu/talkify/internal/api"
	"github.com/talkify-cu/talkify/internal/endpoint"
)

// fallbackCourses keeps the assistant useful when the backend catalogue is
// unreachable.
var fallbackCourses = []api.Course{
	{
		Name: "B.E. Computer Science & Engineering",
		Link: "https://www.cuchd.in/engineering/be-computer-science-engineering.php",
	},
	{
		Name: "B.E. Mechanical Engineering",
		Link: "https://www.cuchd.in/engineering/be-mechanical-engineering.php",
	},
}

// keywordMap routes interest keywords to course-name fragments for the
// no-LLM matching path.
var keywordMap = []struct {
	keyword   string
	fragments []string
}{
	{"technology", []string{"Computer Science", "Information Technology", "Artificial Intelligence"}},
	{"building", []string{"Civil Engineering", "Mechanical Engineering", "Aerospace"}},
	{"innovation", []string{"Computer Science", "Biotechnology", "Chemical"}},
	{"research", []string{"Biotechnology", "Chemical Engineering", "Computer Science"}},
}

// coursesResponse is the backend catalogue wire shape.
type coursesResponse struct {
	Courses []api.Course `json:"courses"`
	Total   int          `json:"total"`
}

// Catalogue lazily loads the course list from the backend and caches it for
// the process lifetime. A fetch failure falls back to a small built-in list.
// Safe for concurrent use.
type Catalogue struct {
	resolver *endpoint.Resolver

	once    sync.Once
	courses []api.Course
}

// NewCatalogue creates a [Catalogue] backed by resolver.
func NewCatalogue(resolver *endpoint.Resolver) *Catalogue {
	return &Catalogue{resolver: resolver}
}

// Courses returns the course list, fetching it on first call.
func (c *Catalogue) Courses(ctx context.Context) []api.Course {
	c.once.Do(func() {
		c.courses = c.fetch(ctx)
	})
	return c.courses
}

func (c *Catalogue) fetch(ctx context.Context) []api.Course {
	resp, err := c.resolver.Get(ctx, "/api/v1/courses")
	if err != nil {
		slog.Warn("guidance: course catalogue fetch failed, using fallback", "error", err)
		return fallbackCourses
	}
	if !resp.OK() {
		slog.Warn("guidance: course catalogue fetch failed, using fallback",
			"status", resp.StatusCode)
		return fallbackCourses
	}
	var body coursesResponse
	if err := resp.Decode(&body); err != nil || len(body.Courses) == 0 {
		slog.Warn("guidance: malformed course catalogue, using fallback", "error", err)
		return fallbackCourses
	}
	return body.Courses
}

// Search queries the backend's course search endpoint. A failed search
// degrades to local keyword matching over the cached catalogue.
func (c *Catalogue) Search(ctx context.Context, query string) []api.Course {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	resp, err := c.resolver.Get(ctx, "/api/v1/courses/search?q="+url.QueryEscape(query))
	if err == nil && resp.OK() {
		var body coursesResponse
		if err := resp.Decode(&body); err == nil {
			return body.Courses
		}
	}
	return MatchCourses(c.Courses(ctx), query)
}

// MatchCourses picks up to three courses whose names match the interest
// keywords found in text. With no keyword hit, the first three courses are
// returned so the assistant always has something to offer.
func MatchCourses(courses []api.Course, text string) []api.Course {
	lower := strings.ToLower(text)
	for _, entry := range keywordMap {
		if !strings.Contains(lower, entry.keyword) {
			continue
		}
		var matched []api.Course
		for _, course := range courses {
			for _, frag := range entry.fragments {
				if strings.Contains(course.Name, frag) {
					matched = append(matched, course)
					break
				}
			}
		}
		if len(matched) > 0 {
			return capCourses(matched)
		}
		break
	}
	return capCourses(courses)
}

func capCourses(courses []api.Course) []api.Course {
	if len(courses) > 3 {
		return courses[:3]
	}
	return courses
}
