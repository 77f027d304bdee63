// Package query implements the search, sort and pagination shared by every
// list view.
package query

import (
	"sort"
	"strings"
)

// DefaultPageSize applies when a request does not set a positive page size.
const DefaultPageSize = 10

// Options controls one query run.
type Options struct {
	SearchTerm string
	// SearchKeys restricts the search to these column keys. Unknown keys are
	// ignored; when none is known the table defaults apply, or every column
	// when the table declares none.
	SearchKeys []string
	Page       int
	PageSize   int
	SortKey    string
	Descending bool
}

// Result is one page of filtered records.
type Result[T any] struct {
	Rows        []T
	TotalRows   int
	TotalPages  int
	CurrentPage int
}

// Table binds the columns of a record type to its default search keys.
type Table[T any] struct {
	Columns    []Column[T]
	SearchKeys []string
}

// Column looks up a column by key.
func (t Table[T]) Column(key string) (Column[T], bool) {
	for _, col := range t.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column[T]{}, false
}

func (t Table[T]) knowsAny(keys []string) bool {
	for _, key := range keys {
		if _, ok := t.Column(key); ok {
			return true
		}
	}
	return false
}

// Query runs opts against records using the table's columns.
func (t Table[T]) Query(records []T, opts Options) Result[T] {
	if !t.knowsAny(opts.SearchKeys) {
		opts.SearchKeys = t.SearchKeys
	}
	return Run(records, t.Columns, opts)
}

// Run filters, sorts and paginates records. The input slice is never
// modified and equal inputs always produce equal results.
func Run[T any](records []T, columns []Column[T], opts Options) Result[T] {
	filtered := filter(records, searchColumns(columns, opts.SearchKeys), opts.SearchTerm)

	if opts.SortKey != "" {
		for _, col := range columns {
			if col.Key != opts.SortKey {
				continue
			}
			sort.SliceStable(filtered, func(i, j int) bool {
				c := col.less(filtered[i], filtered[j])
				if opts.Descending {
					return c > 0
				}
				return c < 0
			})
			break
		}
	}

	return paginate(filtered, opts.Page, opts.PageSize)
}

func searchColumns[T any](columns []Column[T], keys []string) []Column[T] {
	if len(keys) == 0 {
		return columns
	}
	selected := make([]Column[T], 0, len(keys))
	for _, key := range keys {
		for _, col := range columns {
			if col.Key == key {
				selected = append(selected, col)
				break
			}
		}
	}
	if len(selected) == 0 {
		return columns
	}
	return selected
}

func filter[T any](records []T, columns []Column[T], term string) []T {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]T, 0, len(records))
	if needle == "" {
		return append(out, records...)
	}
	for _, record := range records {
		for _, col := range columns {
			if strings.Contains(strings.ToLower(col.Render(record)), needle) {
				out = append(out, record)
				break
			}
		}
	}
	return out
}

func paginate[T any](rows []T, page, pageSize int) Result[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(rows)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	window := make([]T, 0, end-start)
	window = append(window, rows[start:end]...)

	return Result[T]{
		Rows:        window,
		TotalRows:   total,
		TotalPages:  totalPages,
		CurrentPage: page,
	}
}
