// Package dataview implements the tabular view engine shared by every dashboard table:
// free-text and categorical filtering, single-key stable sorting, pagination, page-scoped
// row selection and row activation. Stages are pure functions over record snapshots; View
// composes them with a cancellation-aware Loader.
package dataview

import (
	"errors"
	"fmt"
)

// Kind selects the comparator used for a sortable field.
type Kind int

const (
	// KindString compares values byte-wise.
	KindString Kind = iota
	// KindNumber compares values numerically.
	KindNumber
	// KindDate parses values as instants and compares them chronologically.
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrInvalidSchema indicates that a schema is missing accessors or declares duplicate names.
	ErrInvalidSchema = errors.New("dataview: invalid schema")
	// ErrUnknownFilter indicates that a categorical filter name is not declared by the schema.
	ErrUnknownFilter = errors.New("dataview: unknown filter")
	// ErrUnknownSortKey indicates that a sort key is not declared by the schema.
	ErrUnknownSortKey = errors.New("dataview: unknown sort key")
	// ErrInvalidDirection indicates a sort direction other than asc or desc.
	ErrInvalidDirection = errors.New("dataview: invalid sort direction")
	// ErrInvalidPageSize indicates a page size below one.
	ErrInvalidPageSize = errors.New("dataview: invalid page size")
	// ErrDuplicateID indicates a dataset in which two records share an identifier.
	ErrDuplicateID = errors.New("dataview: duplicate record id")
)

// TextField is a named string accessor used for free-text search.
type TextField[T any] struct {
	Name  string
	Value func(T) string
}

// Dimension is a categorical, exact-match filter over a low-cardinality field.
type Dimension[T any] struct {
	Name    string
	Value   func(T) string
	Options []string
}

// SortField declares a sortable column. Text feeds KindString and KindDate, Number feeds
// KindNumber. Compare, when set, replaces the kind comparator entirely.
type SortField[T any] struct {
	Key     string
	Kind    Kind
	Text    func(T) string
	Number  func(T) float64
	Compare func(a, b T) int
}

// Column is one exported or rendered cell. Numeric columns are right-aligned by text renderers.
type Column[T any] struct {
	Header  string
	Value   func(T) string
	Numeric bool
}

// Schema configures the engine for one record shape. ID must be unique within a dataset.
type Schema[T any, K comparable] struct {
	Name       string
	ID         func(T) K
	Search     []TextField[T]
	Dimensions []Dimension[T]
	Sorts      []SortField[T]
	Columns    []Column[T]
}

// Validate reports whether all accessors are present and names are unique.
func (s Schema[T, K]) Validate() error {
	if s.ID == nil {
		return fmt.Errorf("%w: %s: id accessor required", ErrInvalidSchema, s.Name)
	}
	seen := make(map[string]struct{})
	for _, field := range s.Search {
		if field.Value == nil {
			return fmt.Errorf("%w: %s: search field %q has no accessor", ErrInvalidSchema, s.Name, field.Name)
		}
	}
	for _, dimension := range s.Dimensions {
		if dimension.Value == nil || dimension.Name == "" {
			return fmt.Errorf("%w: %s: filter %q is incomplete", ErrInvalidSchema, s.Name, dimension.Name)
		}
		if _, ok := seen["filter:"+dimension.Name]; ok {
			return fmt.Errorf("%w: %s: duplicate filter %q", ErrInvalidSchema, s.Name, dimension.Name)
		}
		seen["filter:"+dimension.Name] = struct{}{}
	}
	for _, field := range s.Sorts {
		if field.Key == "" {
			return fmt.Errorf("%w: %s: sort field without key", ErrInvalidSchema, s.Name)
		}
		if _, ok := seen["sort:"+field.Key]; ok {
			return fmt.Errorf("%w: %s: duplicate sort key %q", ErrInvalidSchema, s.Name, field.Key)
		}
		seen["sort:"+field.Key] = struct{}{}
		if field.Compare != nil {
			continue
		}
		switch field.Kind {
		case KindString, KindDate:
			if field.Text == nil {
				return fmt.Errorf("%w: %s: sort key %q needs a text accessor", ErrInvalidSchema, s.Name, field.Key)
			}
		case KindNumber:
			if field.Number == nil {
				return fmt.Errorf("%w: %s: sort key %q needs a number accessor", ErrInvalidSchema, s.Name, field.Key)
			}
		default:
			return fmt.Errorf("%w: %s: sort key %q has %s", ErrInvalidSchema, s.Name, field.Key, field.Kind)
		}
	}
	for _, column := range s.Columns {
		if column.Value == nil {
			return fmt.Errorf("%w: %s: column %q has no accessor", ErrInvalidSchema, s.Name, column.Header)
		}
	}
	return nil
}

func (s Schema[T, K]) dimension(name string) (Dimension[T], bool) {
	for _, dimension := range s.Dimensions {
		if dimension.Name == name {
			return dimension, true
		}
	}
	return Dimension[T]{}, false
}

func (s Schema[T, K]) sortField(key string) (SortField[T], bool) {
	for _, field := range s.Sorts {
		if field.Key == key {
			return field, true
		}
	}
	return SortField[T]{}, false
}

// HasFilter reports whether the schema declares the named categorical filter.
func (s Schema[T, K]) HasFilter(name string) bool {
	_, ok := s.dimension(name)
	return ok
}

// HasSortKey reports whether the schema declares the sort key.
func (s Schema[T, K]) HasSortKey(key string) bool {
	_, ok := s.sortField(key)
	return ok
}

// IDs returns the identifiers of records in order.
func (s Schema[T, K]) IDs(records []T) []K {
	ids := make([]K, 0, len(records))
	for _, record := range records {
		ids = append(ids, s.ID(record))
	}
	return ids
}
