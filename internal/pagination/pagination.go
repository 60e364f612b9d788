// Package pagination turns untrusted page/limit inputs into bounded offset/limit windows.
package pagination

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// maxPage keeps (page-1)*limit inside int for every allowed limit.
const maxPage = math.MaxInt/MaxLimit + 1

// Params is a validated page window. Page >= 1 and 1 <= Limit <= MaxLimit.
type Params struct {
	Page  int
	Limit int
}

// Resolve parses raw query values. It never fails: anything malformed
// resolves to a default inside the valid bounds. Only the leading integer
// of each value is read, so "3abc" is 3 and "25.5" is 25.
func Resolve(rawPage, rawLimit string) Params {
	page, ok := leadingInt(rawPage)
	if !ok || page < 1 {
		page = DefaultPage
	}

	limit, ok := leadingInt(rawLimit)
	if !ok {
		limit = DefaultLimit
	}

	return Params{Page: clampPage(page), Limit: clampLimit(limit)}
}

// Normalize clamps integer params. A zero field is treated as unset and
// takes its default.
func (p Params) Normalize() Params {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	return Params{Page: clampPage(p.Page), Limit: clampLimit(p.Limit)}
}

// Offset is the number of leading rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit). An empty set has zero pages.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	Total       int64
	CurrentPage int
	TotalPages  int
	Limit       int
	HasNextPage bool
	HasPrevPage bool
}

func NewMeta(total int64, p Params) Meta {
	totalPages := TotalPages(total, p.Limit)
	return Meta{
		Total:       total,
		CurrentPage: p.Page,
		TotalPages:  totalPages,
		Limit:       p.Limit,
		HasNextPage: p.Page < totalPages,
		HasPrevPage: p.Page > 1,
	}
}

// leadingInt parses an optional sign followed by decimal digits at the start
// of s, ignoring surrounding space and anything after the digits. It reports
// false when there are no digits or the value overflows int.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	if page > maxPage {
		return maxPage
	}
	return page
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
