package dataview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
)

// DefaultPageSize is used when a view is configured without a page size.
const DefaultPageSize = 10

// ErrUnknownRecord indicates an identifier that is not part of the current dataset.
var ErrUnknownRecord = errors.New("dataview: unknown record")

// ViewState is the ephemeral state controlling which subset, order and page is displayed.
type ViewState struct {
	Search   string            `json:"search"`
	Filters  map[string]string `json:"filters"`
	Sort     SortSpec          `json:"sort"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

func (s ViewState) clone() ViewState {
	s.Filters = maps.Clone(s.Filters)
	return s
}

// Row is one visible record with its selection flag.
type Row[T any, K comparable] struct {
	ID       K
	Record   T
	Selected bool
}

// Rendered is everything a table needs to draw one frame.
type Rendered[T any, K comparable] struct {
	Rows        []Row[T, K]
	State       ViewState
	TotalPages  int
	Total       int
	DatasetSize int
	HasPrev     bool
	HasNext     bool
	Loading     bool
	Err         error
	AllSelected bool
	// SelectedTotal counts every selected id; SelectedOffPage counts those not on this page.
	SelectedTotal   int
	SelectedOffPage int
}

// Config configures a View. A nil Fetch yields an empty static dataset.
type Config[T any, K comparable] struct {
	Schema       Schema[T, K]
	Fetch        FetchFunc[T]
	PageSize     int
	KeepLastGood bool
}

// View is one table instance: a dataset snapshot plus its ViewState and selection.
// Every read re-derives Filter → Sort → Paginate from the snapshot. View is safe for
// concurrent use; fetches run without holding the view lock.
type View[T any, K comparable] struct {
	mu           sync.Mutex
	schema       Schema[T, K]
	loader       *Loader[T]
	keepLastGood bool
	records      []T
	loadErr      error
	state        ViewState
	selection    *Selection[K]
}

// NewView validates the schema and returns a view with default state and no data loaded.
func NewView[T any, K comparable](cfg Config[T, K]) (*View[T, K], error) {
	if err := cfg.Schema.Validate(); err != nil {
		return nil, err
	}
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}
	fetch := cfg.Fetch
	if fetch == nil {
		fetch = Static[T](nil)
	}
	loader, err := NewLoader(LoaderConfig[T]{Fetch: fetch, KeepLastGood: cfg.KeepLastGood})
	if err != nil {
		return nil, err
	}

	filters := make(map[string]string, len(cfg.Schema.Dimensions))
	for _, dimension := range cfg.Schema.Dimensions {
		filters[dimension.Name] = AllValue
	}

	return &View[T, K]{
		schema:       cfg.Schema,
		loader:       loader,
		keepLastGood: cfg.KeepLastGood,
		records:      []T{},
		state: ViewState{
			Filters:  filters,
			Page:     1,
			PageSize: pageSize,
		},
		selection: NewSelection[K](),
	}, nil
}

// Schema returns the view's schema.
func (v *View[T, K]) Schema() Schema[T, K] {
	return v.schema
}

// Reload fetches a fresh dataset. Only the most recently started reload commits; earlier
// ones return ErrSuperseded. A committed dataset resets the selection and the page. A
// dataset with duplicate ids is rejected like a failed fetch.
func (v *View[T, K]) Reload(ctx context.Context) error {
	loaded, err := v.loader.Load(ctx)
	if errors.Is(err, ErrSuperseded) {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loader.Generation() != loaded.Generation {
		return ErrSuperseded
	}
	records := loaded.Data
	if err == nil {
		if duplicateErr := v.checkUniqueIDs(records); duplicateErr != nil {
			err = duplicateErr
			records = []T{}
		}
	}
	v.loadErr = err
	if err != nil && v.keepLastGood {
		return err
	}
	v.records = records
	v.resetForNewDataset()
	return err
}

// Replace swaps in a caller-supplied dataset snapshot, resetting selection and page. A
// snapshot with duplicate ids leaves the view unchanged.
func (v *View[T, K]) Replace(records []T) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.checkUniqueIDs(records); err != nil {
		return err
	}
	v.records = slices.Clone(records)
	if v.records == nil {
		v.records = []T{}
	}
	v.loadErr = nil
	v.resetForNewDataset()
	return nil
}

// Map replaces the dataset with fn applied to every record. Selection survives for ids
// still present.
func (v *View[T, K]) Map(fn func(T) T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	mapped := make([]T, 0, len(v.records))
	for _, record := range v.records {
		mapped = append(mapped, fn(record))
	}
	v.records = mapped
	v.pruneSelection()
}

// RemoveWhere replaces the dataset with the records for which drop is false and returns the
// number removed. Removed ids leave the selection.
func (v *View[T, K]) RemoveWhere(drop func(T) bool) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	kept := make([]T, 0, len(v.records))
	for _, record := range v.records {
		if !drop(record) {
			kept = append(kept, record)
		}
	}
	removed := len(v.records) - len(kept)
	v.records = kept
	v.pruneSelection()
	return removed
}

// SetSearch changes the search term and returns to page one.
func (v *View[T, K]) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Search = term
	v.state.Page = 1
}

// SetFilter selects value for the named dimension; the empty string means AllValue.
func (v *View[T, K]) SetFilter(name, value string) error {
	return v.SetFilters(map[string]string{name: value})
}

// SetFilters applies several dimensions atomically: nothing changes when any name is unknown.
func (v *View[T, K]) SetFilters(values map[string]string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for name := range values {
		if !v.schema.HasFilter(name) {
			return fmt.Errorf("%w: %q", ErrUnknownFilter, name)
		}
	}
	for name, value := range values {
		if value == "" {
			value = AllValue
		}
		v.state.Filters[name] = value
	}
	v.state.Page = 1
	return nil
}

// SetSort activates spec directly. An empty key restores input order.
func (v *View[T, K]) SetSort(spec SortSpec) error {
	if spec.Key != "" && !v.schema.HasSortKey(spec.Key) {
		return fmt.Errorf("%w: %q", ErrUnknownSortKey, spec.Key)
	}
	direction, err := ParseDirection(string(spec.Direction))
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Sort = SortSpec{Key: spec.Key, Direction: direction}
	v.state.Page = 1
	return nil
}

// ToggleSort behaves like clicking a column header.
func (v *View[T, K]) ToggleSort(key string) error {
	if !v.schema.HasSortKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Sort = ToggleSort(v.state.Sort, key)
	v.state.Page = 1
	return nil
}

// SetPage jumps to page, clamped to the current page range, and returns the page shown.
func (v *View[T, K]) SetPage(page int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Page = ClampPage(page, v.totalPagesLocked())
	return v.state.Page
}

// NextPage advances one page; it reports false on the last page.
func (v *View[T, K]) NextPage() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	totalPages := v.totalPagesLocked()
	current := ClampPage(v.state.Page, totalPages)
	if current >= totalPages {
		v.state.Page = current
		return false
	}
	v.state.Page = current + 1
	return true
}

// PrevPage goes back one page; it reports false on page one.
func (v *View[T, K]) PrevPage() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	current := ClampPage(v.state.Page, v.totalPagesLocked())
	if current <= 1 {
		v.state.Page = 1
		return false
	}
	v.state.Page = current - 1
	return true
}

// SetPageSize changes the page size and returns to page one.
func (v *View[T, K]) SetPageSize(size int) error {
	if size < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.PageSize = size
	v.state.Page = 1
	return nil
}

// ToggleOne flips the selection of a record in the dataset.
func (v *View[T, K]) ToggleOne(id K) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.findLocked(id); !ok {
		return fmt.Errorf("%w: %v", ErrUnknownRecord, id)
	}
	v.selection.ToggleOne(id)
	return nil
}

// ToggleAllOnPage applies the select-all checkbox to the visible page and reports whether
// the page is fully selected afterwards.
func (v *View[T, K]) ToggleAllOnPage() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	pageIDs := v.pageIDsLocked()
	v.selection.ToggleAll(pageIDs)
	return v.selection.IsAllSelected(pageIDs)
}

// IsAllSelected reports whether every row on the visible page is selected.
func (v *View[T, K]) IsAllSelected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection.IsAllSelected(v.pageIDsLocked())
}

// Selected returns the selected ids in selection order.
func (v *View[T, K]) Selected() []K {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection.IDs()
}

// ClearSelection deselects everything.
func (v *View[T, K]) ClearSelection() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.Clear()
}

// Activate dispatches a row activation for id. The callback runs without the view lock
// held and is skipped when the event came from a nested control.
func (v *View[T, K]) Activate(event ActivationEvent, id K, callback func(K)) (bool, error) {
	v.mu.Lock()
	_, ok := v.findLocked(id)
	v.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("%w: %v", ErrUnknownRecord, id)
	}
	return Activate(event, id, callback), nil
}

// Find returns the record with id from the current dataset.
func (v *View[T, K]) Find(id K) (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.findLocked(id)
}

// Records returns a copy of the whole dataset in input order.
func (v *View[T, K]) Records() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.records)
}

// Visible returns the filtered and sorted records across all pages.
func (v *View[T, K]) Visible() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visibleLocked()
}

// State returns a copy of the current ViewState.
func (v *View[T, K]) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.clone()
}

// Render derives the current frame.
func (v *View[T, K]) Render() Rendered[T, K] {
	v.mu.Lock()
	defer v.mu.Unlock()

	visible := v.visibleLocked()
	page := Paginate(visible, v.state.Page, v.state.PageSize)
	v.state.Page = page.Number

	rows := make([]Row[T, K], 0, len(page.Records))
	pageIDs := make([]K, 0, len(page.Records))
	selectedOnPage := 0
	for _, record := range page.Records {
		id := v.schema.ID(record)
		selected := v.selection.Contains(id)
		if selected {
			selectedOnPage++
		}
		pageIDs = append(pageIDs, id)
		rows = append(rows, Row[T, K]{ID: id, Record: record, Selected: selected})
	}

	return Rendered[T, K]{
		Rows:            rows,
		State:           v.state.clone(),
		TotalPages:      page.TotalPages,
		Total:           page.Total,
		DatasetSize:     len(v.records),
		HasPrev:         page.HasPrev,
		HasNext:         page.HasNext,
		Loading:         v.loader.Loading(),
		Err:             v.loadErr,
		AllSelected:     v.selection.IsAllSelected(pageIDs),
		SelectedTotal:   v.selection.Len(),
		SelectedOffPage: v.selection.Len() - selectedOnPage,
	}
}

// ExportCSV writes the filtered and sorted records, all pages included.
func (v *View[T, K]) ExportCSV(w io.Writer) error {
	return WriteCSV(w, v.schema, v.Visible())
}

// Close cancels any in-flight fetch.
func (v *View[T, K]) Close() {
	v.loader.Cancel()
}

func (v *View[T, K]) visibleLocked() []T {
	filtered := Filter(v.records, v.schema, v.state.Search, v.state.Filters)
	return Sort(filtered, v.schema, v.state.Sort)
}

func (v *View[T, K]) totalPagesLocked() int {
	return TotalPages(len(Filter(v.records, v.schema, v.state.Search, v.state.Filters)), v.state.PageSize)
}

func (v *View[T, K]) pageIDsLocked() []K {
	page := Paginate(v.visibleLocked(), v.state.Page, v.state.PageSize)
	return v.schema.IDs(page.Records)
}

func (v *View[T, K]) findLocked(id K) (T, bool) {
	for _, record := range v.records {
		if v.schema.ID(record) == id {
			return record, true
		}
	}
	var zero T
	return zero, false
}

func (v *View[T, K]) checkUniqueIDs(records []T) error {
	seen := make(map[K]struct{}, len(records))
	for _, record := range records {
		id := v.schema.ID(record)
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %v", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (v *View[T, K]) resetForNewDataset() {
	v.selection.Clear()
	v.state.Page = 1
}

func (v *View[T, K]) pruneSelection() {
	present := make(map[K]struct{}, len(v.records))
	for _, record := range v.records {
		present[v.schema.ID(record)] = struct{}{}
	}
	v.selection.Retain(func(id K) bool {
		_, ok := present[id]
		return ok
	})
}
