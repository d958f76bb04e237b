// Package pagination provides page/limit windowing and envelope links.
// Pure functions only, no I/O.
package pagination

import (
	"net/url"
	"strconv"
)

// =============================================================================
// Parameters
// =============================================================================

const (
	// DefaultPageSize is the page size when the client does not pass a limit.
	DefaultPageSize = 6

	// MaxPageSize caps the client-supplied limit.
	MaxPageSize = 100
)

// Params holds the requested page window.
type Params struct {
	Page  int
	Limit int
}

// ParseParams reads page/limit from query values, tolerating garbage.
func ParseParams(query url.Values) Params {
	p := Params{}
	if v, err := strconv.Atoi(query.Get("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(query.Get("limit")); err == nil {
		p.Limit = v
	}
	return p.Normalize()
}

// Normalize clamps the params to valid values.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the window.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// =============================================================================
// Envelope Links
// =============================================================================

// Links holds the next/previous URLs of a paginated response.
// A nil entry serializes as JSON null at the edges.
type Links struct {
	Next     *string
	Previous *string
}

// BuildLinks computes next/previous page URLs for the given total count.
// baseURL is the absolute request URL without pagination query parameters;
// the remaining query parameters are preserved.
func BuildLinks(baseURL string, query url.Values, count int, p Params) Links {
	p = p.Normalize()

	var links Links
	if p.Offset()+p.Limit < count {
		links.Next = pageLink(baseURL, query, p.Page+1, p.Limit)
	}
	if p.Page > 1 {
		links.Previous = pageLink(baseURL, query, p.Page-1, p.Limit)
	}
	return links
}

func pageLink(baseURL string, query url.Values, page, limit int) *string {
	q := url.Values{}
	for k, vs := range query {
		if k == "page" || k == "limit" {
			continue
		}
		q[k] = vs
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	link := baseURL + "?" + q.Encode()
	return &link
}
