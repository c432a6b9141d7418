package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/egresados-admin/internal/notify"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// carryCookies copies the cookies set on rec into a new request, as a browser would.
func carryCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestCookieBinder_BindMintsAndReuses(t *testing.T) {
	binder := NewCookieBinder(testSecret, false)

	rec := httptest.NewRecorder()
	sid, err := binder.Bind(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotEmpty(t, sid)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Zero(t, cookies[0].MaxAge, "browser-session cookie must not persist")

	rec2 := httptest.NewRecorder()
	again, err := binder.Bind(rec2, carryCookies(rec))
	require.NoError(t, err)
	assert.Equal(t, sid, again)
	assert.Empty(t, rec2.Result().Cookies(), "existing session is not re-saved")
}

func TestCookieBinder_TamperedCookieGetsFreshSession(t *testing.T) {
	binder := NewCookieBinder(testSecret, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "forged"})

	sid, err := binder.Bind(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, sid)
}

func TestCookieBinder_OtherSecretRejected(t *testing.T) {
	binder := NewCookieBinder(testSecret, false)
	rec := httptest.NewRecorder()
	sid, err := binder.Bind(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	other := NewCookieBinder([]byte("ffffffffffffffffffffffffffffffff"), false)
	otherSID, err := other.Bind(httptest.NewRecorder(), carryCookies(rec))
	require.NoError(t, err)
	assert.NotEqual(t, sid, otherSID)
}

func TestCookieBinder_Flashes(t *testing.T) {
	binder := NewCookieBinder(testSecret, false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	_, err := binder.Bind(rec, req)
	require.NoError(t, err)
	require.NoError(t, binder.AddFlash(rec, req, notify.Success(notify.TitleWelcome, "Log in Succesful")))

	// The last Set-Cookie carries both the sid and the flash.
	cookies := rec.Result().Cookies()
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[len(cookies)-1])

	flashes, err := binder.Flashes(httptest.NewRecorder(), next)
	require.NoError(t, err)
	require.Len(t, flashes, 1)
	assert.Equal(t, notify.TitleWelcome, flashes[0].Title)
	assert.False(t, flashes[0].IsError())
}

func TestCookieBinder_NoFlashes(t *testing.T) {
	binder := NewCookieBinder(testSecret, false)
	flashes, err := binder.Flashes(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Empty(t, flashes)
}
