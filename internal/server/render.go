package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/jonathan/egresados-admin/internal/loader"
	"github.com/jonathan/egresados-admin/internal/notify"
	"github.com/jonathan/egresados-admin/internal/server/middleware"
	"github.com/jonathan/egresados-admin/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages are rendered inside templates/layout.html.
var pages = []string{
	"login",
	"list",
	"egresado",
	"form",
	"form_create",
	"advertisements",
	"not_found",
	"rate_limited",
}

func parseTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}

	out := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// page is the data every template receives.
type page struct {
	Title string
	Nav   string
	// Dashboard pages show the sidebar and logout.
	Dashboard     bool
	Notifications []notify.Notification
	// ActionHref is where "Try again" and "Refresh" lead.
	ActionHref string
	Data       any
}

// render writes the page called name. Queued flash notifications are shown before
// p's own; they are drained here, so render must run before anything is written.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	tmpl, ok := s.templates[name]
	if !ok {
		s.log.Error().Str("template", name).Msg("unknown template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	flashes, err := s.binder.Flashes(w, r)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read flash notifications")
	}
	p.Notifications = append(flashes, p.Notifications...)
	if p.ActionHref == "" {
		p.ActionHref = r.URL.RequestURI()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", p); err != nil {
		s.log.Error().Err(err).Str("template", name).Msg("failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.Debug().Err(err).Msg("client went away during render")
	}
}

// redirectWith queues n and sends the browser to target.
func (s *Server) redirectWith(w http.ResponseWriter, r *http.Request, target string, n notify.Notification) {
	if err := s.binder.AddFlash(w, r, n); err != nil {
		s.log.Error().Err(err).Msg("failed to queue notification")
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// notFound renders the "not found" card for objectType.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request, objectType, redirectTo, message string) {
	s.render(w, r, http.StatusNotFound, "not_found", page{
		Title:     objectType + " Not Found",
		Dashboard: true,
		Data: notFoundView{
			ObjectType: objectType,
			RedirectTo: redirectTo,
			Message:    message,
		},
	})
}

type notFoundView struct {
	ObjectType string
	RedirectTo string
	Message    string
}

// sessionState returns the request's token session and its view state. It writes
// a 500 and returns ok=false when the request was not bound to a session.
func (s *Server) sessionState(w http.ResponseWriter, r *http.Request) (*session.Session, *viewState, bool) {
	sess, err := middleware.GetSession(r)
	if err != nil {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request without session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil, false
	}
	return sess, s.views.get(sess), true
}

// requireToken redirects to the login page when sess holds no token. It is used by
// pages that do not load from the API and by mutations, so neither reaches the
// API without a token.
func (s *Server) requireToken(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	_, ok, err := sess.Token(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read session token")
	}
	if err != nil || !ok {
		http.Redirect(w, r, pathLogin, http.StatusSeeOther)
		return false
	}
	return true
}

// loaderOptions names route in logs and metrics; fallback is where transport
// failures lead.
func (s *Server) loaderOptions(route, fallback string) loader.Options {
	return loader.Options{Route: route, Fallback: fallback, Logger: s.log, Recorder: s.metrics}
}

// followLoad handles the non-data outcomes of a loader. It returns true when the
// request is finished: redirected, or abandoned by the browser.
func followLoad[T any](w http.ResponseWriter, r *http.Request, out loader.Outcome[T]) bool {
	if out.Cancelled {
		return true
	}
	if out.IsRedirect() {
		http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
		return true
	}
	return false
}
