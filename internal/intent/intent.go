// Package intent turns free-text game queries into structured search intent.
package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExtractorUnavailable is returned when the extractor has no credentials.
	ErrExtractorUnavailable = errors.New("intent extractor unavailable")

	// ErrMalformedResponse is returned when the extractor answers with
	// something that is not an intent object.
	ErrMalformedResponse = errors.New("malformed extractor response")
)

// StatusError reports a non-success HTTP status from the extractor backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("extractor returned status %d", e.Code)
	}
	return fmt.Sprintf("extractor returned status %d: %s", e.Code, e.Body)
}

// Intent is the structured signal derived from a query. All three slices are
// non-nil after Normalize.
type Intent struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
	Titles  []string `json:"titles"`
}

// Extractor derives an Intent from raw query text. Implementations may fail
// for any reason; callers degrade to the keyword fallback.
type Extractor interface {
	Extract(ctx context.Context, query string) (Intent, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, query string) (Intent, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, query string) (Intent, error) {
	return f(ctx, query)
}

// Normalize lowercases concept tokens, trims everything, drops blanks and
// guarantees non-nil slices.
func (i Intent) Normalize() Intent {
	return Intent{
		Include: cleanTokens(i.Include, true),
		Exclude: cleanTokens(i.Exclude, true),
		Titles:  cleanTokens(i.Titles, false),
	}
}

// Clone returns a deep copy.
func (i Intent) Clone() Intent {
	return Intent{
		Include: append([]string{}, i.Include...),
		Exclude: append([]string{}, i.Exclude...),
		Titles:  append([]string{}, i.Titles...),
	}
}

func cleanTokens(in []string, lower bool) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if lower {
			s = strings.ToLower(s)
		}
		out = append(out, s)
	}
	return out
}

// KeyPrefix prefixes every memoized intent in the cache.
const KeyPrefix = "intent:"

// CacheKey is the memoization key for a query.
func CacheKey(query string) string {
	return KeyPrefix + NormalizeQuery(query)
}

// NormalizeQuery trims and lowercases query text.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func anyContainsFold(list []string, sub string) bool {
	sub = strings.ToLower(sub)
	for _, v := range list {
		if strings.Contains(strings.ToLower(v), sub) {
			return true
		}
	}
	return false
}
