package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/jonathan/egresados-admin/internal/api"
	"github.com/jonathan/egresados-admin/internal/loader"
	"github.com/jonathan/egresados-admin/internal/notify"
	"github.com/jonathan/egresados-admin/internal/types"
	"github.com/jonathan/egresados-admin/internal/upload"
)

// handleEgresadoList loads every egresado and renders the current tab.
func (s *Server) handleEgresadoList(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := s.sessionState(w, r)
	if !ok {
		return
	}

	out := loader.LoadList(r.Context(), sess, st.client.ListEgresados, types.ProjectEgresados,
		s.loaderOptions("egresados", loader.LoginPath))
	if followLoad(w, r, out) {
		return
	}

	st.mu.Lock()
	st.egresados.SetRows(out.Data)
	status, notes := http.StatusOK, []notify.Notification(nil)
	if err := applyQuery(st.egresados, egresadoList, r.URL.Query()); err != nil {
		status = HTTPStatus(err)
		notes = append(notes, notify.Invalid(notify.TitleValidation, err.Error()))
	}
	view := buildListView(st.egresados, egresadoList, egresadoID, st.approve.InFlight())
	st.mu.Unlock()

	s.render(w, r, status, "list", page{Title: "Egresados", Nav: "egresados", Dashboard: true, Notifications: notes, Data: view})
}

// handleApproveEgresados approves the selected egresados. The list is rendered
// from the rows already loaded; it is not fetched again.
func (s *Server) handleApproveEgresados(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := s.sessionState(w, r)
	if !ok || !s.requireToken(w, r, sess) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	st.mu.Lock()
	ids := collectSelection(st.egresados, r.PostForm)
	st.mu.Unlock()

	n := st.approve.Submit(r.Context(), ids)

	st.mu.Lock()
	view := buildListView(st.egresados, egresadoList, egresadoID, st.approve.InFlight())
	st.mu.Unlock()

	s.render(w, r, submitStatus(n), "list", page{
		Title:         "Egresados",
		Nav:           "egresados",
		Dashboard:     true,
		Notifications: []notify.Notification{n},
		ActionHref:    pathEgresados,
		Data:          view,
	})
}

// submitStatus is 400 for notifications the admin must act on and 200 otherwise.
func submitStatus(n notify.Notification) int {
	if n.IsError() && n.Action == notify.NoAction {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

type jobView struct {
	Title           string
	Start           string
	End             string
	EndsBeforeStart bool
}

type egresadoView struct {
	Egresado   types.RawEgresado
	Row        types.EgresadoRow
	CurrentJob *jobView
	Jobs       []jobView
	UploadPath string
	BackPath   string
}

func newJobView(j types.Job) jobView {
	v := jobView{Title: j.Title, Start: j.StartDate, EndsBeforeStart: j.EndsBeforeStart()}
	if j.EndDate != nil {
		v.End = *j.EndDate
	}
	return v
}

func newEgresadoView(e types.RawEgresado) egresadoView {
	v := egresadoView{
		Egresado:   e,
		Row:        types.ProjectEgresado(e),
		UploadPath: pathEgresados + "/" + url.PathEscape(e.ID) + "/resume",
		BackPath:   pathEgresados,
	}
	if e.CurrentJob != nil {
		cj := newJobView(*e.CurrentJob)
		v.CurrentJob = &cj
	}
	for _, j := range e.Jobs {
		v.Jobs = append(v.Jobs, newJobView(j))
	}
	return v
}

// handleEgresadoDetail serves both /admin/dashboard/egresados/{id} and /egresado/{id}.
func (s *Server) handleEgresadoDetail(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := s.sessionState(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	fallback, back, backMessage := pathEgresados, pathEgresados, "Go back to the list"
	if r.URL.Path == "/egresado/"+id {
		fallback, back, backMessage = loader.LoginPath, pathLogin, "Go back to log-in"
	}

	out := loader.Load(r.Context(), sess, func(ctx context.Context) (*types.RawEgresado, error) {
		return st.client.GetEgresado(ctx, id)
	}, s.loaderOptions("egresado", fallback))
	if followLoad(w, r, out) {
		return
	}
	if out.Data == nil {
		s.notFound(w, r, "Egresado", back, backMessage)
		return
	}

	st.mu.Lock()
	e := *out.Data
	st.current = &e
	view := newEgresadoView(e)
	st.mu.Unlock()

	s.render(w, r, http.StatusOK, "egresado", page{Title: e.FullName, Nav: "egresados", Dashboard: true, Data: view})
}

// handleResumeUpload uploads a résumé for the egresado being viewed. On success the
// returned link replaces the record's resumeLink without fetching it again.
func (s *Server) handleResumeUpload(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := s.sessionState(w, r)
	if !ok || !s.requireToken(w, r, sess) {
		return
	}
	id := r.PathValue("id")
	detail := pathEgresados + "/" + url.PathEscape(id)

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxResumeBytes+(1<<20))
	f, err := upload.FromRequest(r, api.ResumeField, upload.MaxResumeBytes)
	if err != nil {
		var verr *upload.ValidationError
		if !errors.As(err, &verr) {
			err = &upload.ValidationError{Field: api.ResumeField, Message: "the upload could not be read"}
		}
		s.renderUploadResult(w, r, st, id, detail, err)
		return
	}

	st.mu.Lock()
	target := types.RawEgresado{ID: id}
	cached := st.current != nil && st.current.ID == id
	if cached {
		target = *st.current
	}
	st.mu.Unlock()

	err = upload.NewResumeUploader(st.client).UploadInto(r.Context(), &target, f)
	if err == nil && cached {
		st.mu.Lock()
		st.current = &target
		st.mu.Unlock()
	}
	s.renderUploadResult(w, r, st, id, detail, err)
}

func (s *Server) renderUploadResult(w http.ResponseWriter, r *http.Request, st *viewState, id, detail string, err error) {
	var n notify.Notification
	status := http.StatusOK

	var verr *upload.ValidationError
	switch {
	case err == nil:
		n = notify.Success(notify.TitleSuccess, "Résumé uploaded.")
	case errors.As(err, &verr):
		n = notify.Invalid(notify.TitleValidation, verr.Message)
		status = HTTPStatus(&ErrValidation{Field: verr.Field, Message: verr.Message})
	case api.Classify(err) == api.KindUnauthenticated:
		http.Redirect(w, r, pathLogin, http.StatusSeeOther)
		return
	default:
		s.log.Error().Err(err).Str("egresado", id).Msg("résumé upload failed")
		n = notify.Failure(api.UserMessage(err))
	}

	st.mu.Lock()
	var current *types.RawEgresado
	if st.current != nil && st.current.ID == id {
		e := *st.current
		current = &e
	}
	st.mu.Unlock()

	if current == nil {
		s.redirectWith(w, r, detail, n)
		return
	}
	s.render(w, r, status, "egresado", page{
		Title:         current.FullName,
		Nav:           "egresados",
		Dashboard:     true,
		Notifications: []notify.Notification{n},
		ActionHref:    detail,
		Data:          newEgresadoView(*current),
	})
}
