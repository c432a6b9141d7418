package session

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/jonathan/egresados-admin/internal/notify"
)

// CookieName is the name of the browser-session cookie.
const CookieName = "egresados_console"

const sessionIDKey = "sid"

// CookieBinder ties a browser to a session identifier through a signed cookie.
// The cookie has no Max-Age, so it dies with the browser session; it never carries the token.
type CookieBinder struct {
	store *sessions.CookieStore
}

// NewCookieBinder creates a binder signing cookies with secret.
func NewCookieBinder(secret []byte, secure bool) *CookieBinder {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieBinder{store: store}
}

// get returns the gorilla session; a tampered or undecodable cookie yields a fresh one.
// The session is cached on r, so later calls within one request see the same values.
func (b *CookieBinder) get(r *http.Request) *sessions.Session {
	sess, err := b.store.Get(r, CookieName)
	if err != nil && sess == nil {
		sess, _ = b.store.New(r, CookieName)
	}
	return sess
}

// Bind returns the session identifier of r, minting and saving a new one when absent.
// It must run before anything is written to w.
func (b *CookieBinder) Bind(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := b.get(r)
	if sid, ok := sess.Values[sessionIDKey].(string); ok && sid != "" {
		return sid, nil
	}

	sid := uuid.NewString()
	sess.Values[sessionIDKey] = sid
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session cookie: %w", err)
	}
	return sid, nil
}

// AddFlash queues n for the next rendered page.
func (b *CookieBinder) AddFlash(w http.ResponseWriter, r *http.Request, n notify.Notification) error {
	sess := b.get(r)
	sess.AddFlash(n)
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save flash: %w", err)
	}
	return nil
}

// Flashes drains the queued notifications.
func (b *CookieBinder) Flashes(w http.ResponseWriter, r *http.Request) ([]notify.Notification, error) {
	sess := b.get(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}
	if err := sess.Save(r, w); err != nil {
		return nil, fmt.Errorf("failed to drain flashes: %w", err)
	}

	out := make([]notify.Notification, 0, len(raw))
	for _, v := range raw {
		if n, ok := v.(notify.Notification); ok {
			out = append(out, n)
		}
	}
	return out, nil
}
