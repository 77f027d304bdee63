package query

import (
	"cmp"
	"fmt"
	"strings"
	"time"
)

// Column describes one field of a record type: its key, its label and how
// the field is read and formatted. Formatters receive the field's own type.
type Column[T any] struct {
	Key   string
	Label string

	text    func(T) string
	compare func(a, b T) int
}

// Render returns the display text of the column for row.
func (c Column[T]) Render(row T) string {
	if c.text == nil {
		return ""
	}
	return c.text(row)
}

// Sortable reports whether the column carries a typed ordering.
func (c Column[T]) Sortable() bool { return c.compare != nil }

func (c Column[T]) less(a, b T) int {
	if c.compare != nil {
		return c.compare(a, b)
	}
	return strings.Compare(c.Render(a), c.Render(b))
}

// Field declares a column over a field of type V. Rows are ordered by their
// rendered text.
func Field[T, V any](key, label string, get func(T) V, format func(V) string) Column[T] {
	if format == nil {
		format = func(v V) string { return fmt.Sprint(v) }
	}
	return Column[T]{
		Key:   key,
		Label: label,
		text:  func(row T) string { return format(get(row)) },
	}
}

// Ordered declares a column whose rows sort by the typed field value.
func Ordered[T any, V cmp.Ordered](key, label string, get func(T) V, format func(V) string) Column[T] {
	col := Field(key, label, get, format)
	col.compare = func(a, b T) int { return cmp.Compare(get(a), get(b)) }
	return col
}

// Text declares a plain string column.
func Text[T any](key, label string, get func(T) string) Column[T] {
	return Ordered(key, label, get, func(v string) string { return v })
}

// Time declares a timestamp column rendered with layout.
func Time[T any](key, label, layout string, get func(T) time.Time) Column[T] {
	col := Field(key, label, get, func(v time.Time) string { return v.Format(layout) })
	col.compare = func(a, b T) int { return get(a).Compare(get(b)) }
	return col
}

// OptionalTime declares a nullable timestamp column. Missing values render
// as placeholder and sort first.
func OptionalTime[T any](key, label, layout, placeholder string, get func(T) *time.Time) Column[T] {
	col := Field(key, label, get, func(v *time.Time) string {
		if v == nil {
			return placeholder
		}
		return v.Format(layout)
	})
	col.compare = func(a, b T) int {
		va, vb := get(a), get(b)
		switch {
		case va == nil && vb == nil:
			return 0
		case va == nil:
			return -1
		case vb == nil:
			return 1
		}
		return va.Compare(*vb)
	}
	return col
}
