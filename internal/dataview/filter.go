package dataview

import "strings"

// AllValue disables a categorical filter dimension.
const AllValue = "all"

// Filter returns the records that match the search term and every active categorical filter,
// preserving input order. An empty term matches all records; a filter value of AllValue or
// the empty string disables that dimension. Filter names missing from the schema are ignored.
func Filter[T any, K comparable](records []T, schema Schema[T, K], searchTerm string, activeFilters map[string]string) []T {
	needle := strings.ToLower(searchTerm)
	active := activeDimensions(schema, activeFilters)

	matched := make([]T, 0, len(records))
	for _, record := range records {
		if !matchesSearch(record, schema.Search, needle) {
			continue
		}
		if !matchesDimensions(record, active) {
			continue
		}
		matched = append(matched, record)
	}
	return matched
}

type activeDimension[T any] struct {
	value  func(T) string
	target string
}

func activeDimensions[T any, K comparable](schema Schema[T, K], activeFilters map[string]string) []activeDimension[T] {
	active := make([]activeDimension[T], 0, len(activeFilters))
	for _, dimension := range schema.Dimensions {
		target, ok := activeFilters[dimension.Name]
		if !ok || target == "" || target == AllValue {
			continue
		}
		active = append(active, activeDimension[T]{value: dimension.Value, target: target})
	}
	return active
}

func matchesSearch[T any](record T, fields []TextField[T], needle string) bool {
	if needle == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field.Value(record)), needle) {
			return true
		}
	}
	return false
}

func matchesDimensions[T any](record T, active []activeDimension[T]) bool {
	for _, dimension := range active {
		if dimension.value(record) != dimension.target {
			return false
		}
	}
	return true
}
