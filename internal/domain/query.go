package domain

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Filters is the optional filter set of a list fetch. The zero value means
// "no filters"; an empty string is identical to an absent filter.
type Filters struct {
	Status   string `json:"status,omitempty" query:"status"`
	Search   string `json:"search,omitempty" query:"search"`
	Category string `json:"category,omitempty" query:"category"`
	Priority string `json:"priority,omitempty" query:"priority"`
}

// Normalize returns the canonical form of f: whitespace trimmed and the
// enumerated filters lowercased. Search text keeps its case.
func (f Filters) Normalize() Filters {
	return Filters{
		Status:   strings.ToLower(strings.TrimSpace(f.Status)),
		Search:   strings.TrimSpace(f.Search),
		Category: strings.ToLower(strings.TrimSpace(f.Category)),
		Priority: strings.ToLower(strings.TrimSpace(f.Priority)),
	}
}

// Values encodes the non-empty filters as URL query values.
func (f Filters) Values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("status", f.Status)
	set("search", f.Search)
	set("category", f.Category)
	set("priority", f.Priority)
	return v
}

// PageRequest selects one page of a list.
type PageRequest struct {
	Page     int `json:"page" query:"page"`
	PageSize int `json:"pageSize" query:"pageSize"`
}

// Normalize clamps the request to a valid page: page < 1 becomes 1 and an
// out-of-range size falls back to the default.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 || p.PageSize > MaxPageSize {
		p.PageSize = DefaultPageSize
	}
	return p
}

// QueryKey identifies one cache slot. Build it with NewQueryKey so that
// semantically equal requests share a key.
type QueryKey struct {
	Kind     Kind
	Page     int
	PageSize int
	Filters  Filters
}

// NewQueryKey builds the canonical key for a list fetch.
func NewQueryKey(kind Kind, filters Filters, page PageRequest) QueryKey {
	page = page.Normalize()
	return QueryKey{
		Kind:     kind,
		Page:     page.Page,
		PageSize: page.PageSize,
		Filters:  filters.Normalize(),
	}
}

// String is the canonical encoding used as the cache map key.
func (k QueryKey) String() string {
	v := k.Filters.Values()
	v.Set("page", strconv.Itoa(k.Page))
	v.Set("pageSize", strconv.Itoa(k.PageSize))
	return string(k.Kind) + "?" + v.Encode()
}

// Params returns the remote list parameters the key stands for.
func (k QueryKey) Params() ListParams {
	return ListParams{
		Filters: k.Filters,
		Page:    PageRequest{Page: k.Page, PageSize: k.PageSize},
	}
}

// ListParams is what a list endpoint receives.
type ListParams struct {
	Filters Filters
	Page    PageRequest
}

// Page is the list envelope returned by every list endpoint.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// ByKind matches every key of the given kind.
func ByKind(kind Kind) func(QueryKey) bool {
	return func(k QueryKey) bool { return k.Kind == kind }
}
