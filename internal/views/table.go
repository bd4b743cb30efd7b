package views

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/dataview"
)

// RenderedRow is one visible row with its cells in column order.
type RenderedRow struct {
	ID       string   `json:"id"`
	Selected bool     `json:"selected"`
	Cells    []string `json:"cells"`
	Record   any      `json:"record"`
}

// FilterOptions describes one categorical filter of a table.
type FilterOptions struct {
	Name    string   `json:"name"`
	Options []string `json:"options,omitempty"`
}

// Page is the wire form of one rendered frame.
type Page struct {
	Entity          catalog.Entity     `json:"entity"`
	Columns         []string           `json:"columns"`
	NumericColumns  []bool             `json:"numeric_columns"`
	Filters         []FilterOptions    `json:"filters"`
	SortKeys        []string           `json:"sort_keys"`
	Rows            []RenderedRow      `json:"rows"`
	State           dataview.ViewState `json:"state"`
	TotalPages      int                `json:"total_pages"`
	Total           int                `json:"total"`
	DatasetSize     int                `json:"dataset_size"`
	HasPrev         bool               `json:"has_prev"`
	HasNext         bool               `json:"has_next"`
	Loading         bool               `json:"loading"`
	Error           string             `json:"error,omitempty"`
	AllSelected     bool               `json:"all_selected"`
	SelectedIDs     []string           `json:"selected_ids"`
	SelectedTotal   int                `json:"selected_total"`
	SelectedOffPage int                `json:"selected_off_page"`
}

// Table is a dashboard table independent of its record type.
type Table interface {
	Entity() catalog.Entity
	Reload(ctx context.Context) error
	Apply(update Update) error
	ToggleSort(key string) error
	NextPage() bool
	PrevPage() bool
	ToggleOne(id string) error
	ToggleAllOnPage() bool
	Activate(event dataview.ActivationEvent, id string) (any, bool, error)
	Render() Page
	Selected() []string
	ExportCSV(w io.Writer) error
	// SetStatus rewrites the status of a loaded record and reports whether it was present.
	SetStatus(id, status string) bool
	// Remove drops a loaded record and reports whether it was present.
	Remove(id string) bool
	Close()
}

type table[T any] struct {
	entity    catalog.Entity
	view      *dataview.View[T, string]
	withState func(T, string) T
	present   func(T) any
}

type tableConfig[T any] struct {
	entity    catalog.Entity
	schema    dataview.Schema[T, string]
	fetch     dataview.FetchFunc[T]
	pageSize  int
	keepLast  bool
	withState func(T, string) T
	present   func(T) any
}

func newTable[T any](cfg tableConfig[T]) (Table, error) {
	view, err := dataview.NewView(dataview.Config[T, string]{
		Schema:       cfg.schema,
		Fetch:        cfg.fetch,
		PageSize:     cfg.pageSize,
		KeepLastGood: cfg.keepLast,
	})
	if err != nil {
		return nil, err
	}
	present := cfg.present
	if present == nil {
		present = func(record T) any { return record }
	}
	return &table[T]{entity: cfg.entity, view: view, withState: cfg.withState, present: present}, nil
}

func (t *table[T]) Entity() catalog.Entity {
	return t.entity
}

func (t *table[T]) Reload(ctx context.Context) error {
	return t.view.Reload(ctx)
}

// Apply validates the whole update against the schema before changing anything.
func (t *table[T]) Apply(update Update) error {
	if err := update.Validate(); err != nil {
		return err
	}
	schema := t.view.Schema()
	for name := range update.Filters {
		if !schema.HasFilter(name) {
			return fmt.Errorf("%w: %q", dataview.ErrUnknownFilter, name)
		}
	}
	sort, sortChanged, err := update.sortSpec(t.view.State().Sort)
	if err != nil {
		return err
	}
	if sortChanged && sort.Key != "" && !schema.HasSortKey(sort.Key) {
		return fmt.Errorf("%w: %q", dataview.ErrUnknownSortKey, sort.Key)
	}

	if update.Search != nil {
		t.view.SetSearch(*update.Search)
	}
	if len(update.Filters) > 0 {
		if err := t.view.SetFilters(update.Filters); err != nil {
			return err
		}
	}
	if sortChanged {
		if err := t.view.SetSort(sort); err != nil {
			return err
		}
	}
	if update.PageSize != nil {
		if err := t.view.SetPageSize(*update.PageSize); err != nil {
			return err
		}
	}
	if update.Page != nil {
		t.view.SetPage(*update.Page)
	}
	return nil
}

func (t *table[T]) ToggleSort(key string) error {
	return t.view.ToggleSort(key)
}

func (t *table[T]) NextPage() bool {
	return t.view.NextPage()
}

func (t *table[T]) PrevPage() bool {
	return t.view.PrevPage()
}

func (t *table[T]) ToggleOne(id string) error {
	return t.view.ToggleOne(id)
}

func (t *table[T]) ToggleAllOnPage() bool {
	return t.view.ToggleAllOnPage()
}

// Activate returns the activated record so the caller can open its details.
func (t *table[T]) Activate(event dataview.ActivationEvent, id string) (any, bool, error) {
	var activated T
	dispatcher := dataview.Dispatcher[string]{Callback: func(string) {
		activated, _ = t.view.Find(id)
	}}
	fired, err := t.view.Activate(event, id, dispatcher.Callback)
	if err != nil || !fired {
		return nil, false, err
	}
	return t.present(activated), true, nil
}

func (t *table[T]) Render() Page {
	schema := t.view.Schema()
	frame := t.view.Render()

	rows := make([]RenderedRow, 0, len(frame.Rows))
	for _, row := range frame.Rows {
		cells := make([]string, 0, len(schema.Columns))
		for _, column := range schema.Columns {
			cells = append(cells, column.Value(row.Record))
		}
		rows = append(rows, RenderedRow{ID: row.ID, Selected: row.Selected, Cells: cells, Record: t.present(row.Record)})
	}

	page := Page{
		Entity:          t.entity,
		Columns:         columnHeaders(schema),
		NumericColumns:  numericColumns(schema),
		Filters:         filterOptions(schema),
		SortKeys:        sortKeys(schema),
		Rows:            rows,
		State:           frame.State,
		TotalPages:      frame.TotalPages,
		Total:           frame.Total,
		DatasetSize:     frame.DatasetSize,
		HasPrev:         frame.HasPrev,
		HasNext:         frame.HasNext,
		Loading:         frame.Loading,
		AllSelected:     frame.AllSelected,
		SelectedIDs:     t.view.Selected(),
		SelectedTotal:   frame.SelectedTotal,
		SelectedOffPage: frame.SelectedOffPage,
	}
	if frame.Err != nil {
		page.Error = frame.Err.Error()
	}
	return page
}

func (t *table[T]) Selected() []string {
	return t.view.Selected()
}

func (t *table[T]) ExportCSV(w io.Writer) error {
	return t.view.ExportCSV(w)
}

func (t *table[T]) SetStatus(id, status string) bool {
	if t.withState == nil {
		return false
	}
	if _, ok := t.view.Find(id); !ok {
		return false
	}
	schema := t.view.Schema()
	t.view.Map(func(record T) T {
		if schema.ID(record) == id {
			return t.withState(record, status)
		}
		return record
	})
	return true
}

func (t *table[T]) Remove(id string) bool {
	schema := t.view.Schema()
	return t.view.RemoveWhere(func(record T) bool { return schema.ID(record) == id }) > 0
}

func (t *table[T]) Close() {
	t.view.Close()
}

func columnHeaders[T any](schema dataview.Schema[T, string]) []string {
	headers := make([]string, 0, len(schema.Columns))
	for _, column := range schema.Columns {
		headers = append(headers, column.Header)
	}
	return headers
}

func numericColumns[T any](schema dataview.Schema[T, string]) []bool {
	numeric := make([]bool, 0, len(schema.Columns))
	for _, column := range schema.Columns {
		numeric = append(numeric, column.Numeric)
	}
	return numeric
}

func filterOptions[T any](schema dataview.Schema[T, string]) []FilterOptions {
	filters := make([]FilterOptions, 0, len(schema.Dimensions))
	for _, dimension := range schema.Dimensions {
		filters = append(filters, FilterOptions{Name: dimension.Name, Options: dimension.Options})
	}
	return filters
}

func sortKeys[T any](schema dataview.Schema[T, string]) []string {
	keys := make([]string, 0, len(schema.Sorts))
	for _, field := range schema.Sorts {
		keys = append(keys, field.Key)
	}
	return keys
}

// invitationRecord adds the expiry countdown to an invitation.
type invitationRecord struct {
	catalog.Invitation
	ExpiresInSeconds int64 `json:"expires_in_seconds"`
	Expired          bool  `json:"expired"`
}

func presentInvitation(clock func() time.Time) func(catalog.Invitation) any {
	return func(invitation catalog.Invitation) any {
		now := clock()
		return invitationRecord{
			Invitation:       invitation,
			ExpiresInSeconds: int64(invitation.Remaining(now) / time.Second),
			Expired:          invitation.Expired(now),
		}
	}
}
