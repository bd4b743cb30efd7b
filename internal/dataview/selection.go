package dataview

import (
	"cmp"
	"maps"
	"slices"
)

// Selection tracks checked record identifiers. Ids selected on one page stay selected while
// the user moves to other pages; ToggleAll only ever touches the ids it is given.
// Selection is not safe for concurrent use.
type Selection[K comparable] struct {
	order map[K]uint64
	next  uint64
}

// NewSelection returns an empty selection.
func NewSelection[K comparable]() *Selection[K] {
	return &Selection[K]{order: make(map[K]uint64)}
}

// ToggleOne adds id when absent and removes it when present.
func (s *Selection[K]) ToggleOne(id K) {
	if _, ok := s.order[id]; ok {
		delete(s.order, id)
		return
	}
	s.add(id)
}

// ToggleAll clears pageIDs when every one of them is selected and otherwise selects them all.
func (s *Selection[K]) ToggleAll(pageIDs []K) {
	if len(pageIDs) == 0 {
		return
	}
	if s.IsAllSelected(pageIDs) {
		for _, id := range pageIDs {
			delete(s.order, id)
		}
		return
	}
	for _, id := range pageIDs {
		if _, ok := s.order[id]; !ok {
			s.add(id)
		}
	}
}

// IsAllSelected reports whether every id of a non-empty page is selected.
func (s *Selection[K]) IsAllSelected(pageIDs []K) bool {
	if len(pageIDs) == 0 {
		return false
	}
	for _, id := range pageIDs {
		if _, ok := s.order[id]; !ok {
			return false
		}
	}
	return true
}

// Contains reports whether id is selected.
func (s *Selection[K]) Contains(id K) bool {
	_, ok := s.order[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection[K]) Len() int {
	return len(s.order)
}

// IDs returns the selected ids in the order they were selected.
func (s *Selection[K]) IDs() []K {
	ids := slices.Collect(maps.Keys(s.order))
	slices.SortFunc(ids, func(a, b K) int {
		return cmp.Compare(s.order[a], s.order[b])
	})
	return ids
}

// Retain drops every selected id for which keep returns false.
func (s *Selection[K]) Retain(keep func(K) bool) {
	maps.DeleteFunc(s.order, func(id K, _ uint64) bool {
		return !keep(id)
	})
}

// Clear removes all ids.
func (s *Selection[K]) Clear() {
	clear(s.order)
}

func (s *Selection[K]) add(id K) {
	s.next++
	s.order[id] = s.next
}
