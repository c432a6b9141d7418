package server

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/egresados-admin/internal/api"
	"github.com/jonathan/egresados-admin/internal/forms"
	"github.com/jonathan/egresados-admin/internal/loader"
	"github.com/jonathan/egresados-admin/internal/notify"
	"github.com/jonathan/egresados-admin/internal/types"
)

// handleFormList loads every form and renders the current tab.
func (s *Server) handleFormList(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := s.sessionState(w, r)
	if !ok {
		return
	}

	out := loader.LoadList(r.Context(), sess, st.client.ListForms, types.ProjectForms,
		s.loaderOptions("forms", loader.LoginPath))
	if followLoad(w, r, out) {
		return
	}

	st.mu.Lock()
	st.forms.SetRows(out.Data)
	for _, row := range out.Data {
		st.formNames[row.ID] = row.Name
	}
	status, notes := http.StatusOK, []notify.Notification(nil)
	if err := applyQuery(st.forms, formList, r.URL.Query()); err != nil {
		status = HTTPStatus(err)
		notes = append(notes, notify.Invalid(notify.TitleValidation, err.Error()))
	}
	view := buildListView(st.forms, formList, formID, st.publish.InFlight())
	st.mu.Unlock()

	s.render(w, r, status, "list", page{Title: "Forms", Nav: "forms", Dashboard: true, Notifications: notes, Data: view})
}

// handlePublishForms publishes the selected forms without refetching the list.
func (s *Server) handlePublishForms(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := s.sessionState(w, r)
	if !ok || !s.requireToken(w, r, sess) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	st.mu.Lock()
	ids := collectSelection(st.forms, r.PostForm)
	st.mu.Unlock()

	n := st.publish.Submit(r.Context(), ids)

	st.mu.Lock()
	view := buildListView(st.forms, formList, formID, st.publish.InFlight())
	st.mu.Unlock()

	s.render(w, r, submitStatus(n), "list", page{
		Title:         "Forms",
		Nav:           "forms",
		Dashboard:     true,
		Notifications: []notify.Notification{n},
		ActionHref:    pathForms,
		Data:          view,
	})
}

type answerView struct {
	Respondent string
	Text       string
}

type questionView struct {
	Summary forms.QuestionSummary
	Answers []answerView
}

type formView struct {
	Form        types.Form
	Description string
	Respondents int
	Questions   []questionView
	ExportPath  string
	ExportName  string
}

func newFormView(f types.Form) formView {
	v := formView{
		Form:        f,
		Description: f.DescriptionText(),
		Respondents: len(f.AnswersCollectedFrom),
		ExportPath:  pathForms + "/" + url.PathEscape(f.ID) + "/export",
		ExportName:  api.ExportFilename(f.Name),
	}
	for i, sum := range forms.Summarize(f) {
		qv := questionView{Summary: sum}
		for _, a := range f.Questions[i].Answers {
			qv.Answers = append(qv.Answers, answerView{Respondent: a.Respondent(), Text: a.Text})
		}
		v.Questions = append(v.Questions, qv)
	}
	return v
}

// handleFormDetail renders one form with its answers. Transport failures lead back
// to the forms list rather than to the login page.
func (s *Server) handleFormDetail(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := s.sessionState(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	out := loader.Load(r.Context(), sess, func(ctx context.Context) (*types.Form, error) {
		return st.client.GetForm(ctx, id)
	}, s.loaderOptions("form", pathForms))
	if followLoad(w, r, out) {
		return
	}
	if out.Data == nil {
		s.notFound(w, r, "Form", pathForms, "Go back to forms")
		return
	}

	f := *out.Data
	st.mu.Lock()
	st.formNames[f.ID] = f.Name
	st.mu.Unlock()

	s.render(w, r, http.StatusOK, "form", page{Title: f.Name, Nav: "forms", Dashboard: true, Data: newFormView(f)})
}

// handleFormExport streams the spreadsheet of a form as export-<formName>.xlsx.
// A failed export produces exactly one notification and no file.
func (s *Server) handleFormExport(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := s.sessionState(w, r)
	if !ok || !s.requireToken(w, r, sess) {
		return
	}
	id := r.PathValue("id")
	detail := pathForms + "/" + url.PathEscape(id)

	content, err := st.client.ExportForm(r.Context(), id)
	if err != nil {
		if api.Classify(err) == api.KindUnauthenticated {
			http.Redirect(w, r, pathLogin, http.StatusSeeOther)
			return
		}
		s.log.Error().Err(err).Str("form", id).Msg("form export failed")
		s.redirectWith(w, r, detail, notify.Failure(api.UserMessage(err)))
		return
	}

	st.mu.Lock()
	name := st.formName(id)
	st.mu.Unlock()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": api.ExportFilename(name)}))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		s.log.Debug().Err(err).Msg("client went away during export")
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type optionView struct {
	Index     int
	Value     string
	Removable bool
}

type draftQuestionView struct {
	Index    int
	Text     string
	Type     string
	IsChoice bool
	Options  []optionView
}

type draftView struct {
	Name        string
	Description string
	Published   bool
	Questions   []draftQuestionView
	CanRemove   bool
}

func newDraftView(d *forms.Draft) draftView {
	qs := d.Questions()
	v := draftView{
		Name:        d.Name(),
		Description: d.Description(),
		Published:   d.Published(),
		CanRemove:   len(qs) > 1,
	}
	for i, q := range qs {
		qv := draftQuestionView{
			Index:    i,
			Text:     q.Question,
			Type:     string(q.Type),
			IsChoice: q.Type == types.QuestionMultipleChoice,
		}
		for j, o := range q.PossibleAnswers {
			qv.Options = append(qv.Options, optionView{Index: j, Value: o, Removable: j > 0})
		}
		v.Questions = append(v.Questions, qv)
	}
	return v
}

// handleFormCreatePage renders the form builder with the session's draft.
func (s *Server) handleFormCreatePage(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := s.sessionState(w, r)
	if !ok || !s.requireToken(w, r, sess) {
		return
	}

	st.mu.Lock()
	view := newDraftView(st.draft)
	st.mu.Unlock()

	s.render(w, r, http.StatusOK, "form_create", page{Title: "Create form", Nav: "forms", Dashboard: true, Data: view})
}

// handleFormCreate applies the posted fields to the draft, then the edit named by
// the op field. op=save submits a copy of the draft outside the session lock, one
// save at a time; a saved draft is replaced by a new one.
func (s *Server) handleFormCreate(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := s.sessionState(w, r)
	if !ok || !s.requireToken(w, r, sess) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	status := http.StatusOK
	var notes []notify.Notification

	st.mu.Lock()
	applyDraftFields(st.draft, r.PostForm)
	op := r.PostForm.Get("op")
	var submitted, snapshot *forms.Draft
	switch {
	case op != "save":
		if err := applyDraftOp(st.draft, op); err != nil {
			status = HTTPStatus(err)
			notes = append(notes, notify.Invalid(notify.TitleValidation, err.Error()))
		}
	case st.saving:
		status = http.StatusConflict
		notes = append(notes, notify.Invalid(notify.TitleValidation, MessageSaveInProgress))
	default:
		st.saving = true
		submitted, snapshot = st.draft, st.draft.Clone()
	}
	st.mu.Unlock()

	if snapshot != nil {
		n, saved := forms.Save(r.Context(), st.client, snapshot)
		if !saved && n.Action == notify.NoAction {
			status = http.StatusBadRequest
		}
		notes = append(notes, n)

		st.mu.Lock()
		st.saving = false
		if saved && st.draft == submitted {
			st.draft = forms.NewDraft()
		}
		st.mu.Unlock()
	}

	st.mu.Lock()
	view := newDraftView(st.draft)
	st.mu.Unlock()

	s.render(w, r, status, "form_create", page{
		Title:         "Create form",
		Nav:           "forms",
		Dashboard:     true,
		Notifications: notes,
		ActionHref:    pathFormCreate,
		Data:          view,
	})
}

// MessageSaveInProgress is shown when the draft is saved again before the API answered.
const MessageSaveInProgress = "The form is already being saved."

// applyDraftFields copies the text inputs of the builder into d. A question whose
// type changes keeps its options as seeded by the type switch.
func applyDraftFields(d *forms.Draft, form url.Values) {
	if form.Has("name") {
		d.SetName(strings.TrimSpace(form.Get("name")))
	}
	if form.Has("description") {
		d.SetDescription(form.Get("description"))
	}
	if form.Has("name") && d.Published() != (form.Get("published") != "") {
		d.TogglePublished()
	}

	for i, q := range d.Questions() {
		key := strconv.Itoa(i)
		if form.Has("question_" + key) {
			_ = d.SetQuestionText(i, form.Get("question_"+key))
		}
		if t := types.QuestionType(form.Get("type_" + key)); t.Valid() && t != q.Type {
			_ = d.SetQuestionType(i, t)
			continue
		}
		for j := range q.PossibleAnswers {
			field := "option_" + key + "_" + strconv.Itoa(j)
			if form.Has(field) {
				_ = d.SetOption(i, j, form.Get(field))
			}
		}
	}
}

// applyDraftOp runs one builder edit: add-question, remove-question:i,
// add-option:i or remove-option:i:j. An empty op or "update" only applies fields.
func applyDraftOp(d *forms.Draft, op string) error {
	name, args, _ := strings.Cut(op, ":")
	idx := func(n int) ([]int, error) {
		parts := strings.Split(args, ":")
		if args == "" || len(parts) != n {
			return nil, &ErrValidation{Field: "op", Message: "malformed operation " + strconv.Quote(op)}
		}
		out := make([]int, n)
		for k, p := range parts {
			v, err := strconv.Atoi(p)
			if err != nil {
				return nil, &ErrValidation{Field: "op", Message: "malformed operation " + strconv.Quote(op)}
			}
			out[k] = v
		}
		return out, nil
	}

	var err error
	switch name {
	case "", "update":
		return nil
	case "add-question":
		d.AddQuestion()
		return nil
	case "remove-question":
		var a []int
		if a, err = idx(1); err == nil {
			err = d.RemoveQuestion(a[0])
		}
	case "add-option":
		var a []int
		if a, err = idx(1); err == nil {
			err = d.AddOption(a[0])
		}
	case "remove-option":
		var a []int
		if a, err = idx(2); err == nil {
			err = d.RemoveOption(a[0], a[1])
		}
	default:
		return &ErrValidation{Field: "op", Message: "unknown operation " + strconv.Quote(op)}
	}
	if err != nil {
		var verr *ErrValidation
		if errors.As(err, &verr) {
			return err
		}
		return &ErrValidation{Field: "op", Message: err.Error()}
	}
	return nil
}
