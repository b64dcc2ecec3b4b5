package api

import (
	"errors"
	"fmt"
	"strings"
)

// ServerError is a non-2xx application response from the backend. It carries
// the HTTP status and the backend's detail message.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api: backend returned %d", e.StatusCode)
}

// errorDetail is the backend's error body shape.
type errorDetail struct {
	Detail string `json:"detail"`
}

// quizCompleteMarkers are the detail fragments the backend uses to signal
// that no further questions will be served and the caller should fetch the
// recommendation instead.
var quizCompleteMarkers = []string{
	"Quiz complete",
	"Maximum number of questions",
	"Please proceed to get your course recommendation",
}

// IsQuizComplete reports whether err is the backend's quiz-over signal: a
// [ServerError] whose detail says to proceed to the recommendation.
func IsQuizComplete(err error) bool {
	var se *ServerError
	if !errors.As(err, &se) {
		return false
	}
	for _, marker := range quizCompleteMarkers {
		if strings.Contains(se.Detail, marker) {
			return true
		}
	}
	return false
}
