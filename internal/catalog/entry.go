// Package catalog searches the external game database.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnavailable is returned when the catalog is short-circuited.
var ErrUnavailable = errors.New("catalog unavailable")

// StatusError reports a non-success HTTP status from the catalog.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog returned status %d", e.Code)
}

// Entry is one game record from the catalog.
type Entry struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Released     string   `json:"released,omitempty"`
	Genres       []string `json:"genres"`
	Platforms    []string `json:"platforms"`
	RatingsCount int      `json:"ratingsCount"`
	Metacritic   *int     `json:"metacritic,omitempty"`
}

const releaseLayout = "2006-01-02"

// ReleaseDate parses Released. ok is false when the date is missing or
// unparseable.
func (e Entry) ReleaseDate() (t time.Time, ok bool) {
	s := strings.TrimSpace(e.Released)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{releaseLayout, time.RFC3339, "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Year returns the release year, or 0 when unknown.
func (e Entry) Year() int {
	if t, ok := e.ReleaseDate(); ok {
		return t.Year()
	}
	return 0
}

// Searcher runs a full-text search against the catalog.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Entry, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, query string, limit int) ([]Entry, error)

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	return f(ctx, query, limit)
}
