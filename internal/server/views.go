package server

import (
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/jonathan/egresados-admin/internal/api"
	"github.com/jonathan/egresados-admin/internal/bulk"
	"github.com/jonathan/egresados-admin/internal/forms"
	"github.com/jonathan/egresados-admin/internal/session"
	"github.com/jonathan/egresados-admin/internal/table"
	"github.com/jonathan/egresados-admin/internal/types"
)

// Browser routes.
const (
	pathLogin          = "/"
	pathEgresados      = "/admin/dashboard/egresados"
	pathForms          = "/admin/dashboard/forms"
	pathFormCreate     = "/admin/dashboard/forms/create"
	pathAdvertisements = "/admin/dashboard/advertisements"
)

// viewState is what the browser tab used to hold: table state, the form being
// built and the last record shown. One exists per browser session.
type viewState struct {
	mu sync.Mutex

	client    *api.Client
	egresados *table.Controller[types.EgresadoRow]
	forms     *table.Controller[types.FormRow]
	approve   *bulk.Submitter
	publish   *bulk.Submitter
	draft     *forms.Draft
	// saving is set while the draft is being submitted.
	saving bool

	// current is the egresado last rendered; uploads update it in place.
	current   *types.RawEgresado
	formNames map[string]string
	lastUsed  time.Time
}

func (s *Server) newViewState(sess *session.Session) *viewState {
	client := api.NewClient(s.cfg.APIURL, sess, &api.Options{
		HTTPClient: s.apiHTTP,
		Timeout:    s.cfg.APITimeout,
		Observer:   s.metrics,
	})

	st := &viewState{
		client:    client,
		egresados: table.New(egresadoColumns, egresadoID, s.cfg.PageSize),
		forms:     table.New(formColumns, formID, s.cfg.PageSize),
		approve: bulk.New("approve_egresados", client.ApproveEgresados,
			bulk.WithRecorder(s.metrics),
			bulk.WithLogger(s.log),
			bulk.WithSuccessMessage("Managed to approve all.")),
		publish: bulk.New("publish_forms", client.PublishForms,
			bulk.WithRecorder(s.metrics),
			bulk.WithLogger(s.log),
			bulk.WithSuccessMessage("Managed to publish all.")),
		draft:     forms.NewDraft(),
		formNames: map[string]string{},
	}
	// Both lists open on their first tab.
	_ = st.egresados.SetFilter(egresadoList.tabColumn, true)
	_ = st.forms.SetFilter(formList.tabColumn, true)
	return st
}

// formName returns the display name of form id, or id when it was never listed.
func (st *viewState) formName(id string) string {
	if name, ok := st.formNames[id]; ok {
		return name
	}
	for _, row := range st.forms.Rows() {
		if row.ID == id {
			return row.Name
		}
	}
	return id
}

// viewRegistry maps session identifiers to their view state.
type viewRegistry struct {
	mu      sync.Mutex
	states  map[string]*viewState
	create  func(*session.Session) *viewState
	idleTTL time.Duration
	now     func() time.Time
}

func newViewRegistry(create func(*session.Session) *viewState, idleTTL time.Duration) *viewRegistry {
	return &viewRegistry{
		states:  map[string]*viewState{},
		create:  create,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// get returns the state of sess, creating it on first use. States idle for longer
// than idleTTL are evicted on the way.
func (v *viewRegistry) get(sess *session.Session) *viewState {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	for sid, st := range v.states {
		if sid != sess.ID() && now.Sub(st.lastUsed) > v.idleTTL {
			delete(v.states, sid)
		}
	}

	st, ok := v.states[sess.ID()]
	if !ok {
		st = v.create(sess)
		v.states[sess.ID()] = st
	}
	st.lastUsed = now
	return st
}

// drop forgets the state of sid.
func (v *viewRegistry) drop(sid string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.states, sid)
}

func (v *viewRegistry) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.states)
}

var egresadoColumns = []table.Column[types.EgresadoRow]{
	{Key: "fullName", Header: "Full Name", Value: func(r types.EgresadoRow) any { return r.FullName }},
	{Key: "email", Header: "Email", Value: func(r types.EgresadoRow) any { return r.Email }},
	{Key: "graduationDate", Header: "Graduation Date", Value: func(r types.EgresadoRow) any { return r.GraduationDate }},
	{Key: "phoneNumber", Header: "Phone Number", Value: func(r types.EgresadoRow) any { return r.PhoneNumber }},
	{Key: "currentOccupation", Header: "Current Occupation", Value: func(r types.EgresadoRow) any { return r.CurrentOccupation }},
	{Key: "aprobado", Header: "Approved", Value: func(r types.EgresadoRow) any { return r.Approved }, Hidden: true},
	{Key: selectColumn, Header: "Select", Value: func(types.EgresadoRow) any { return "" }, Hidden: true},
}

var formColumns = []table.Column[types.FormRow]{
	{Key: "name", Header: "Name", Value: func(r types.FormRow) any { return r.Name }},
	{Key: "numberOfAnswers", Header: "Answers", Value: func(r types.FormRow) any { return r.NumberOfAnswers }},
	{Key: "published", Header: "Published", Value: func(r types.FormRow) any { return r.Published }, Hidden: true},
	{Key: selectColumn, Header: "Select", Value: func(types.FormRow) any { return "" }, Hidden: true},
}

// selectColumn holds the row checkboxes. It is shown only on the tab listing what
// is still pending.
const selectColumn = "select"

func egresadoID(r types.EgresadoRow) string { return r.ID }
func formID(r types.FormRow) string         { return r.ID }

// tab is a view of a list selected by filtering a hidden boolean column.
type tab struct {
	Key   string
	Label string
	value bool
}

// listDef describes one dashboard list.
type listDef struct {
	title       string
	path        string
	tabColumn   string
	tabs        []tab
	filterKey   string
	filterLabel string
	actionPath  string
	actionLabel string
	busyLabel   string
	detailPath  string
}

var egresadoList = listDef{
	title:     "Egresados",
	path:      pathEgresados,
	tabColumn: "aprobado",
	tabs: []tab{
		{Key: "approved", Label: "Approved", value: true},
		{Key: "not-approved", Label: "Non Approved", value: false},
	},
	filterKey:   "email",
	filterLabel: "Filter emails...",
	actionPath:  pathEgresados + "/all/approve",
	actionLabel: "Approve All Selected",
	busyLabel:   "Approving",
	detailPath:  pathEgresados + "/",
}

var formList = listDef{
	title:     "Forms",
	path:      pathForms,
	tabColumn: "published",
	tabs: []tab{
		{Key: "published", Label: "Published", value: true},
		{Key: "not-published", Label: "Not Published", value: false},
	},
	filterKey:   "name",
	filterLabel: "Filter names...",
	actionPath:  pathForms + "/all/approve",
	actionLabel: "Publish All Selected",
	busyLabel:   "Publishing",
	detailPath:  pathForms + "/",
}

func (def listDef) tab(key string) (tab, bool) {
	for _, t := range def.tabs {
		if t.Key == key {
			return t, true
		}
	}
	return tab{}, false
}

// applyQuery applies the table commands carried by a list URL: tab, text filter,
// sort, page navigation. Missing parameters leave the state as it was.
func applyQuery[T any](c *table.Controller[T], def listDef, q url.Values) error {
	if key := q.Get("tab"); key != "" {
		t, ok := def.tab(key)
		if !ok {
			return &ErrValidation{Field: "tab", Message: "unknown tab " + strconv.Quote(key)}
		}
		if err := c.SetFilter(def.tabColumn, t.value); err != nil {
			return err
		}
		if err := c.ToggleVisibility(selectColumn, !t.value); err != nil {
			return err
		}
	}

	if q.Has(def.filterKey) {
		if err := c.SetFilter(def.filterKey, q.Get(def.filterKey)); err != nil {
			return err
		}
	}

	if key := q.Get("sort"); key != "" {
		if err := c.SetSort(key, table.ParseDirection(q.Get("dir"))); err != nil {
			return &ErrValidation{Field: "sort", Message: err.Error()}
		}
	}

	switch q.Get("nav") {
	case "next":
		c.NextPage()
	case "prev":
		c.PreviousPage()
	}

	if p := q.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return &ErrValidation{Field: "page", Message: "must be a positive number"}
		}
		c.SetPage(n - 1)
	}
	return nil
}

// collectSelection applies the checkboxes of a posted list form and returns the
// identifiers to submit. page_ids lists the rows that were rendered, so rows left
// unchecked are deselected.
func collectSelection[T any](c *table.Controller[T], form url.Values) []string {
	chosen := form["ids"]
	for _, id := range form["page_ids"] {
		c.ToggleSelection(id, slices.Contains(chosen, id))
	}
	for _, id := range chosen {
		c.ToggleSelection(id, true)
	}
	if form.Get("select_all") != "" {
		c.SelectAllVisible(true)
	}
	return c.SelectedIDs()
}

// listView is the template data of a dashboard list.
type listView struct {
	Title       string
	Path        string
	Tabs        []tabView
	FilterKey   string
	FilterLabel string
	FilterValue string
	Columns     []columnView
	Rows        []rowView
	Selectable  bool
	AllSelected bool
	Selected    int
	ActionPath  string
	ActionLabel string
	InFlight    bool
	Page        int
	PageCount   int
	Total       int
	HasPrev     bool
	HasNext     bool
}

type tabView struct {
	Key    string
	Label  string
	Active bool
}

type columnView struct {
	Key     string
	Header  string
	Sorted  string
	NextDir string
}

type rowView struct {
	ID       string
	Href     string
	Cells    []string
	Selected bool
}

func buildListView[T any](c *table.Controller[T], def listDef, rowID func(T) string, inFlight bool) listView {
	v := listView{
		Title:       def.title,
		Path:        def.path,
		FilterKey:   def.filterKey,
		FilterLabel: def.filterLabel,
		ActionPath:  def.actionPath,
		ActionLabel: def.actionLabel,
		InFlight:    inFlight,
		Page:        c.Page() + 1,
		PageCount:   c.PageCount(),
		Total:       c.FilteredCount(),
		HasPrev:     c.CanPreviousPage(),
		HasNext:     c.CanNextPage(),
		Selected:    c.SelectedCount(),
		AllSelected: c.AllVisibleSelected(),
	}
	if inFlight {
		v.ActionLabel = def.busyLabel
	}

	if f, ok := c.Filter(def.filterKey); ok {
		v.FilterValue, _ = f.(string)
	}

	current, _ := c.Filter(def.tabColumn)
	for _, t := range def.tabs {
		v.Tabs = append(v.Tabs, tabView{Key: t.Key, Label: t.Label, Active: current == t.value})
	}

	sortKey, sortDir, sorted := c.Sort()
	var cols []table.Column[T]
	for _, col := range c.VisibleColumns() {
		if col.Key == selectColumn {
			v.Selectable = true
			continue
		}
		cols = append(cols, col)
	}
	for _, col := range cols {
		cv := columnView{Key: col.Key, Header: col.Header, NextDir: string(table.Asc)}
		if sorted && sortKey == col.Key {
			cv.Sorted = string(sortDir)
			if sortDir == table.Asc {
				cv.NextDir = string(table.Desc)
			}
		}
		v.Columns = append(v.Columns, cv)
	}

	for _, row := range c.PageRows() {
		id := rowID(row)
		rv := rowView{ID: id, Href: def.detailPath + url.PathEscape(id), Selected: c.IsSelected(id)}
		for _, col := range cols {
			rv.Cells = append(rv.Cells, c.Cell(row, col.Key))
		}
		v.Rows = append(v.Rows, rv)
	}
	return v
}
