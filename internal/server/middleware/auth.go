// Package middleware provides HTTP middleware for session binding and authorization.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jonathan/egresados-admin/internal/session"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// sessionKey is the context key for the request's token session.
const sessionKey ContextKey = "session"

// LoginPath is where the guard sends rejected sessions.
const LoginPath = "/"

// ErrNoSession is returned when a handler runs outside WithSession.
var ErrNoSession = errors.New("session not found in request context")

// Binder ties a browser to a session identifier.
type Binder interface {
	Bind(w http.ResponseWriter, r *http.Request) (string, error)
}

// WithSession binds the browser session cookie and adds the token session to the
// request context. Requests whose cookie cannot be saved are answered with 500.
func WithSession(binder Binder, store session.Store, log *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid, err := binder.Bind(w, r)
			if err != nil {
				log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to bind session")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			sess, err := session.New(sid, store)
			if err != nil {
				log.Error().Err(err).Msg("failed to open session")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
		})
	}
}

// RequireAdmin lets a request through unless its token carries roles without
// ROLE_ADMIN; such a token is cleared and the browser sent to the login page.
// A missing token is left for the route loader, which redirects without calling the API.
func RequireAdmin(log *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := GetSession(r)
			if err != nil {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			token, ok, err := sess.Token(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("failed to read token for role check")
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			if ok && !session.MayUseDashboard(token) {
				if err := sess.Clear(r.Context()); err != nil {
					log.Error().Err(err).Msg("failed to clear non-admin token")
				}
				log.Warn().Str("path", r.URL.Path).Msg("token without admin role rejected")
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithSession returns ctx carrying sess.
func ContextWithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// GetSession extracts the token session from the request context.
func GetSession(r *http.Request) (*session.Session, error) {
	sess, ok := r.Context().Value(sessionKey).(*session.Session)
	if !ok || sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}
