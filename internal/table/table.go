// Package table derives the visible page of an in-memory list from filter, sort,
// visibility, selection and paging state.
//
// A Controller is not safe for concurrent use; callers serialize access.
package table

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps "desc" to Desc and anything else to Asc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Desc)) {
		return Desc
	}
	return Asc
}

// ErrUnknownColumn is returned for a column key the controller was not built with.
var ErrUnknownColumn = errors.New("unknown column")

// Column describes one column of a table over rows of type T.
type Column[T any] struct {
	Key    string
	Header string
	// Value extracts the cell value used for filtering and sorting:
	// a string, bool, int or float64.
	Value func(T) any
	// Hidden columns are not rendered but still filter and sort.
	Hidden bool
}

type sortState struct {
	key string
	dir Direction
}

// Controller holds the presentation state of one table.
type Controller[T any] struct {
	columns  []Column[T]
	index    map[string]int
	rowID    func(T) string
	pageSize int

	rows     []T
	filters  map[string]any
	sort     *sortState
	hidden   map[string]bool
	selected map[string]bool
	page     int
}

// New creates a controller. pageSize below 1 is treated as 1.
func New[T any](columns []Column[T], rowID func(T) string, pageSize int) *Controller[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	c := &Controller[T]{
		columns:  columns,
		index:    make(map[string]int, len(columns)),
		rowID:    rowID,
		pageSize: pageSize,
		filters:  map[string]any{},
		hidden:   map[string]bool{},
		selected: map[string]bool{},
	}
	for i, col := range columns {
		c.index[col.Key] = i
		if col.Hidden {
			c.hidden[col.Key] = true
		}
	}
	return c
}

// SetRows replaces the data after a fresh load. Filter, sort, visibility and
// selection are kept; the page is clamped to the new page count.
func (c *Controller[T]) SetRows(rows []T) {
	c.rows = slices.Clone(rows)
	c.clampPage()
}

// Rows returns every row, unfiltered and in load order.
func (c *Controller[T]) Rows() []T {
	return slices.Clone(c.rows)
}

// SetFilter narrows the visible rows; filters on different columns compose with AND.
// A nil value or empty string clears the column's filter. String filters match a
// case-insensitive substring; bool filters match by equality.
func (c *Controller[T]) SetFilter(key string, value any) error {
	if _, ok := c.index[key]; !ok {
		return fmt.Errorf("set filter %q: %w", key, ErrUnknownColumn)
	}
	switch v := value.(type) {
	case nil:
		delete(c.filters, key)
	case string:
		if v == "" {
			delete(c.filters, key)
		} else {
			c.filters[key] = strings.ToLower(v)
		}
	case bool:
		c.filters[key] = v
	default:
		return fmt.Errorf("set filter %q: unsupported value type %T", key, value)
	}
	c.page = 0
	return nil
}

// Filter returns the active filter value of a column as it was set.
func (c *Controller[T]) Filter(key string) (any, bool) {
	v, ok := c.filters[key]
	return v, ok
}

// SetSort makes key the single active sort column. The sort is stable.
func (c *Controller[T]) SetSort(key string, dir Direction) error {
	if _, ok := c.index[key]; !ok {
		return fmt.Errorf("set sort %q: %w", key, ErrUnknownColumn)
	}
	if dir != Desc {
		dir = Asc
	}
	c.sort = &sortState{key: key, dir: dir}
	return nil
}

// ClearSort restores load order.
func (c *Controller[T]) ClearSort() {
	c.sort = nil
}

// Sort returns the active sort column and direction.
func (c *Controller[T]) Sort() (key string, dir Direction, ok bool) {
	if c.sort == nil {
		return "", "", false
	}
	return c.sort.key, c.sort.dir, true
}

// ToggleVisibility shows or hides a column. It does not affect filtering or sorting.
func (c *Controller[T]) ToggleVisibility(key string, visible bool) error {
	if _, ok := c.index[key]; !ok {
		return fmt.Errorf("toggle visibility %q: %w", key, ErrUnknownColumn)
	}
	if visible {
		delete(c.hidden, key)
	} else {
		c.hidden[key] = true
	}
	return nil
}

// VisibleColumns returns the columns to render, in declaration order.
func (c *Controller[T]) VisibleColumns() []Column[T] {
	var out []Column[T]
	for _, col := range c.columns {
		if !c.hidden[col.Key] {
			out = append(out, col)
		}
	}
	return out
}

// ToggleSelection selects or deselects one row. Rows outside the filtered set
// cannot be selected.
func (c *Controller[T]) ToggleSelection(rowID string, selected bool) {
	if !selected {
		delete(c.selected, rowID)
		return
	}
	for _, row := range c.filtered() {
		if c.rowID(row) == rowID {
			c.selected[rowID] = true
			return
		}
	}
}

// SelectAllVisible selects or deselects every row passing the active filters,
// on all pages. Rows excluded by a filter are left untouched.
func (c *Controller[T]) SelectAllVisible(selected bool) {
	for _, row := range c.filtered() {
		id := c.rowID(row)
		if selected {
			c.selected[id] = true
		} else {
			delete(c.selected, id)
		}
	}
}

// IsSelected reports whether a row is selected.
func (c *Controller[T]) IsSelected(rowID string) bool {
	return c.selected[rowID]
}

// AllVisibleSelected reports whether there is at least one filtered row and all of them are selected.
func (c *Controller[T]) AllVisibleSelected() bool {
	rows := c.filtered()
	if len(rows) == 0 {
		return false
	}
	for _, row := range rows {
		if !c.selected[c.rowID(row)] {
			return false
		}
	}
	return true
}

// SelectedIDs returns the identifiers of selected rows that pass the active
// filters, in display order.
func (c *Controller[T]) SelectedIDs() []string {
	ids := []string{}
	for _, row := range c.sorted(c.filtered()) {
		if id := c.rowID(row); c.selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// SelectedCount is len(SelectedIDs()).
func (c *Controller[T]) SelectedCount() int {
	return len(c.SelectedIDs())
}

// NextPage advances one page; it does nothing on the last page.
func (c *Controller[T]) NextPage() {
	if c.CanNextPage() {
		c.page++
	}
}

// PreviousPage goes back one page; it does nothing on the first page.
func (c *Controller[T]) PreviousPage() {
	if c.CanPreviousPage() {
		c.page--
	}
}

// SetPage jumps to page n (zero-based), clamped to the valid range.
func (c *Controller[T]) SetPage(n int) {
	c.page = n
	c.clampPage()
}

// Page returns the zero-based current page.
func (c *Controller[T]) Page() int {
	return c.page
}

// PageCount returns the number of pages; an empty table has one page.
func (c *Controller[T]) PageCount() int {
	n := len(c.filtered())
	if n == 0 {
		return 1
	}
	return (n + c.pageSize - 1) / c.pageSize
}

// CanNextPage reports whether a later page exists.
func (c *Controller[T]) CanNextPage() bool {
	return c.page < c.PageCount()-1
}

// CanPreviousPage reports whether an earlier page exists.
func (c *Controller[T]) CanPreviousPage() bool {
	return c.page > 0
}

// FilteredCount returns the number of rows passing the active filters.
func (c *Controller[T]) FilteredCount() int {
	return len(c.filtered())
}

// PageRows returns the rows of the current page after filtering and sorting.
func (c *Controller[T]) PageRows() []T {
	rows := c.sorted(c.filtered())
	start := c.page * c.pageSize
	if start >= len(rows) {
		return nil
	}
	end := min(start+c.pageSize, len(rows))
	return rows[start:end]
}

// Cell returns the value of column key for row, formatted for display.
func (c *Controller[T]) Cell(row T, key string) string {
	i, ok := c.index[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(c.columns[i].Value(row))
}

func (c *Controller[T]) clampPage() {
	last := c.PageCount() - 1
	if c.page > last {
		c.page = last
	}
	if c.page < 0 {
		c.page = 0
	}
}

func (c *Controller[T]) filtered() []T {
	if len(c.filters) == 0 {
		return c.rows
	}
	out := make([]T, 0, len(c.rows))
	for _, row := range c.rows {
		if c.matches(row) {
			out = append(out, row)
		}
	}
	return out
}

func (c *Controller[T]) matches(row T) bool {
	for key, want := range c.filters {
		got := c.columns[c.index[key]].Value(row)
		switch w := want.(type) {
		case bool:
			b, ok := got.(bool)
			if !ok || b != w {
				return false
			}
		case string:
			if !strings.Contains(strings.ToLower(fmt.Sprint(got)), strings.ToLower(w)) {
				return false
			}
		}
	}
	return true
}

func (c *Controller[T]) sorted(rows []T) []T {
	if c.sort == nil {
		return rows
	}
	value := c.columns[c.index[c.sort.key]].Value
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b T) int {
		r := compareValues(value(a), value(b))
		if c.sort.dir == Desc {
			return -r
		}
		return r
	})
	return out
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(strings.ToLower(x), strings.ToLower(y))
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case int:
		if y, ok := b.(int); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
