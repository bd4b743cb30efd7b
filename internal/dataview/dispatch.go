package dataview

import "strings"

// Element describes one node on the path from an activation target up to its row.
type Element struct {
	Tag  string `json:"tag"`
	Role string `json:"role,omitempty"`
	Type string `json:"type,omitempty"`
}

// ActivationEvent is a row click. Path[0] is the event target; later entries are its
// ancestors, excluding the row itself.
type ActivationEvent struct {
	Path []Element `json:"path"`
}

var interactiveTags = map[string]struct{}{
	"a":        {},
	"button":   {},
	"input":    {},
	"label":    {},
	"option":   {},
	"select":   {},
	"textarea": {},
}

var interactiveRoles = map[string]struct{}{
	"button":   {},
	"checkbox": {},
	"link":     {},
	"menuitem": {},
	"switch":   {},
	"tab":      {},
}

// IsInteractive reports whether the element is a control that handles its own clicks.
func IsInteractive(element Element) bool {
	if _, ok := interactiveTags[strings.ToLower(strings.TrimSpace(element.Tag))]; ok {
		return true
	}
	_, ok := interactiveRoles[strings.ToLower(strings.TrimSpace(element.Role))]
	return ok
}

// FromControl reports whether the event target is, or sits inside, an interactive control.
func (e ActivationEvent) FromControl() bool {
	for _, element := range e.Path {
		if IsInteractive(element) {
			return true
		}
	}
	return false
}

// Activate invokes callback with id unless the event originated from a nested control.
// It reports whether the callback ran.
func Activate[K comparable](event ActivationEvent, id K, callback func(K)) bool {
	if callback == nil || event.FromControl() {
		return false
	}
	callback(id)
	return true
}

// Dispatcher binds a row-activation callback for repeated use.
type Dispatcher[K comparable] struct {
	Callback func(K)
}

// Activate invokes the callback unless the event originated from a nested control.
func (d Dispatcher[K]) Activate(event ActivationEvent, id K) bool {
	return Activate(event, id, d.Callback)
}
