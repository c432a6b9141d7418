package server

import (
	"net/http"
	"strings"

	"github.com/jonathan/egresados-admin/internal/api"
	"github.com/jonathan/egresados-admin/internal/notify"
	"github.com/jonathan/egresados-admin/internal/types"
)

// MessageBadPassword explains the password rule on the login page.
const MessageBadPassword = "Enter your email and a password of at least 8 characters with a digit, a lowercase and an uppercase letter."

type loginView struct {
	Email string
}

// handleLoginPage renders the login form.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", page{Title: "Log in", Data: loginView{}})
}

// handleLogin exchanges the admin's credentials for a bearer token.
// The password is never echoed back into the form.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := s.sessionState(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		s.renderLoginError(w, r, "", &ErrValidation{Field: "form", Message: err.Error()},
			notify.Invalid(notify.TitleValidation, MessageBadPassword))
		return
	}

	creds := types.LoginRequest{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	if err := creds.Validate(); err != nil {
		s.renderLoginError(w, r, creds.Email, &ErrValidation{Field: "password", Message: err.Error()},
			notify.Invalid(notify.TitleValidation, MessageBadPassword))
		return
	}

	token, err := st.client.Login(r.Context(), creds)
	if err != nil {
		var httpErr error
		if api.Classify(err) == api.KindSessionInvalid {
			httpErr = &ErrInvalidCredentials{Message: api.UserMessage(err)}
			s.log.Info().Str("email", creds.Email).Msg("login rejected")
		} else {
			httpErr = &ErrUpstream{Op: "login", Cause: err}
			s.log.Error().Err(err).Msg("login failed")
		}
		s.renderLoginError(w, r, creds.Email, httpErr, notify.Failure(api.UserMessage(err)))
		return
	}

	if err := sess.SetToken(r.Context(), token); err != nil {
		s.log.Error().Err(err).Msg("failed to store token")
		s.renderLoginError(w, r, creds.Email, err, notify.Failure("Could not start your session."))
		return
	}

	// A new login starts from fresh table state.
	s.views.drop(sess.ID())
	s.log.Info().Str("email", creds.Email).Msg("admin logged in")
	s.redirectWith(w, r, pathEgresados, notify.Success(notify.TitleWelcome, "Log in successful"))
}

func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, email string, err error, n notify.Notification) {
	s.render(w, r, HTTPStatus(err), "login", page{
		Title:         "Log in",
		Notifications: []notify.Notification{n},
		ActionHref:    pathLogin,
		Data:          loginView{Email: email},
	})
}

// handleLogout destroys the token and the view state of the session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.sessionState(w, r)
	if !ok {
		return
	}
	if err := sess.Clear(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("failed to clear token on logout")
	}
	s.views.drop(sess.ID())
	http.Redirect(w, r, pathLogin, http.StatusSeeOther)
}
