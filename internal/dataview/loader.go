package dataview

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrSuperseded is returned by Load when a newer Load started before this one finished.
// The loader state is left as the newer request sets it.
var ErrSuperseded = errors.New("dataview: load superseded by a newer request")

var errMissingFetch = errors.New("dataview: fetch function required")

// FetchFunc obtains a dataset snapshot.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Static returns a FetchFunc that always yields a copy of records.
func Static[T any](records []T) FetchFunc[T] {
	snapshot := slices.Clone(records)
	return func(context.Context) ([]T, error) {
		return slices.Clone(snapshot), nil
	}
}

// State is the loader's observable {data, isLoading, error} triple.
type State[T any] struct {
	Data       []T
	Loading    bool
	Err        error
	Generation uint64
}

// LoaderConfig configures a Loader. KeepLastGood keeps the previous dataset after a failed
// fetch instead of falling back to an empty one.
type LoaderConfig[T any] struct {
	Fetch        FetchFunc[T]
	KeepLastGood bool
}

// Loader runs fetches so that only the most recently started one commits. Starting a new
// Load cancels the context of the one in flight.
type Loader[T any] struct {
	mu           sync.Mutex
	fetch        FetchFunc[T]
	keepLastGood bool
	generation   uint64
	cancel       context.CancelFunc
	state        State[T]
}

// NewLoader constructs a Loader with an empty initial state.
func NewLoader[T any](cfg LoaderConfig[T]) (*Loader[T], error) {
	if cfg.Fetch == nil {
		return nil, errMissingFetch
	}
	return &Loader[T]{
		fetch:        cfg.Fetch,
		keepLastGood: cfg.KeepLastGood,
		state:        State[T]{Data: []T{}},
	}, nil
}

// Load fetches a fresh dataset. It returns the committed state, the fetch error, or
// ErrSuperseded when a later Load has taken over.
func (l *Loader[T]) Load(ctx context.Context) (State[T], error) {
	l.mu.Lock()
	l.generation++
	generation := l.generation
	if l.cancel != nil {
		l.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.state.Loading = true
	l.state.Generation = generation
	l.mu.Unlock()

	data, fetchErr := l.fetch(fetchCtx)

	l.mu.Lock()
	defer l.mu.Unlock()
	cancel()
	if generation != l.generation {
		return State[T]{}, ErrSuperseded
	}
	l.cancel = nil
	l.state.Loading = false
	if fetchErr != nil {
		if !l.keepLastGood {
			l.state.Data = []T{}
		}
		l.state.Err = fetchErr
		return l.snapshot(), fetchErr
	}
	if data == nil {
		data = []T{}
	}
	l.state.Data = slices.Clone(data)
	l.state.Err = nil
	return l.snapshot(), nil
}

// State returns a copy of the current state.
func (l *Loader[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

// Loading reports whether a fetch is in flight.
func (l *Loader[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Loading
}

// Generation returns the number of the most recently started Load.
func (l *Loader[T]) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}

// Cancel aborts the in-flight fetch, if any, and marks it superseded.
func (l *Loader[T]) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel == nil {
		return
	}
	l.cancel()
	l.cancel = nil
	l.generation++
	l.state.Loading = false
	l.state.Generation = l.generation
}

func (l *Loader[T]) snapshot() State[T] {
	state := l.state
	state.Data = slices.Clone(l.state.Data)
	return state
}
