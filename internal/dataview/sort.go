package dataview

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Direction is the sort order of the active sort key.
type Direction string

const (
	// Ascending sorts smallest first.
	Ascending Direction = "asc"
	// Descending sorts largest first.
	Descending Direction = "desc"
)

// ParseDirection accepts asc/desc in any case; the empty string maps to Ascending.
func ParseDirection(value string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(Ascending):
		return Ascending, nil
	case string(Descending):
		return Descending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, value)
	}
}

// SortSpec is the single active (key, direction) pair. An empty key keeps input order.
type SortSpec struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// ToggleSort flips the direction when key is already active and otherwise selects key ascending.
func ToggleSort(current SortSpec, key string) SortSpec {
	if current.Key == key {
		if current.Direction == Descending {
			return SortSpec{Key: key, Direction: Ascending}
		}
		return SortSpec{Key: key, Direction: Descending}
	}
	return SortSpec{Key: key, Direction: Ascending}
}

// Sort returns a stably sorted copy of records. Unknown or empty keys return an unsorted copy.
func Sort[T any, K comparable](records []T, schema Schema[T, K], spec SortSpec) []T {
	sorted := slices.Clone(records)
	if spec.Key == "" {
		return sorted
	}
	field, ok := schema.sortField(spec.Key)
	if !ok {
		return sorted
	}
	slices.SortStableFunc(sorted, comparator(field, spec.Direction == Descending))
	return sorted
}

func comparator[T any](field SortField[T], descending bool) func(a, b T) int {
	var compare func(a, b T) int
	switch {
	case field.Compare != nil:
		compare = field.Compare
	case field.Kind == KindDate:
		return func(a, b T) int { return compareDates(field.Text(a), field.Text(b), descending) }
	case field.Kind == KindNumber:
		compare = func(a, b T) int { return cmp.Compare(field.Number(a), field.Number(b)) }
	default:
		compare = func(a, b T) int { return strings.Compare(field.Text(a), field.Text(b)) }
	}
	if descending {
		return func(a, b T) int { return -compare(a, b) }
	}
	return compare
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006-01",
}

// ParseDate parses a date-like string using the layouts accepted by KindDate fields.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// compareDates orders parseable dates chronologically and places unparsable values after
// them in either direction. Unparsable values are equal to each other and keep input order.
func compareDates(a, b string, descending bool) int {
	first, okFirst := ParseDate(a)
	second, okSecond := ParseDate(b)
	switch {
	case !okFirst && !okSecond:
		return 0
	case !okFirst:
		return 1
	case !okSecond:
		return -1
	}
	if descending {
		return second.Compare(first)
	}
	return first.Compare(second)
}
