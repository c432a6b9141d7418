// Package apitest provides an in-process fake of the egresados API for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/egresados-admin/internal/types"
)

// Default admin credentials accepted by the fake.
const (
	AdminEmail    = "admin@uam.edu"
	AdminPassword = "Abc12345"
	DefaultToken  = "T1"
)

// XLSXContentType is the content type of export downloads.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Call is one request received by the fake.
type Call struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          []byte
}

// Server is a fake egresados API backed by in-memory records.
type Server struct {
	srv *httptest.Server

	mu         sync.Mutex
	calls      []Call
	loginToken string
	tokens     map[string]bool
	egresados  []types.RawEgresado
	forms      []types.Form
	exports    map[string][]byte
	overrides  map[string]http.HandlerFunc
}

// New starts a fake API and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		loginToken: DefaultToken,
		tokens:     map[string]bool{},
		exports:    map[string][]byte{},
		overrides:  map[string]http.HandlerFunc{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/login", s.handleLogin)
	mux.HandleFunc("GET /egresado/all/list", s.authed(s.handleListEgresados))
	mux.HandleFunc("POST /egresado/all/approve", s.authed(s.handleApproveEgresados))
	mux.HandleFunc("GET /egresado/{id}", s.authed(s.handleGetEgresado))
	mux.HandleFunc("POST /egresado/{id}/resume", s.authed(s.handleUploadResume))
	mux.HandleFunc("GET /form/all", s.authed(s.handleListForms))
	mux.HandleFunc("POST /form/all/approve", s.authed(s.handlePublishForms))
	mux.HandleFunc("POST /form/save", s.authed(s.handleSaveForm))
	mux.HandleFunc("GET /form/export/{id}", s.authed(s.handleExport))
	mux.HandleFunc("GET /form/{id}", s.authed(s.handleGetForm))

	s.srv = httptest.NewServer(s.record(mux))
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the base URL of the fake.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close stops the fake; requests then fail at the transport level.
func (s *Server) Close() {
	s.srv.Close()
}

// Calls returns the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// CallCount returns the number of requests received so far.
func (s *Server) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// LastCall returns the most recent request.
func (s *Server) LastCall() (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return Call{}, false
	}
	return s.calls[len(s.calls)-1], true
}

// SetLoginToken changes the token issued by the next successful login.
func (s *Server) SetLoginToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginToken = token
}

// Authorize accepts token on authenticated endpoints without a login.
func (s *Server) Authorize(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = true
}

// Revoke makes every issued token invalid; authenticated calls then receive an error envelope.
func (s *Server) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]bool{}
}

// SetEgresados replaces the alumni records.
func (s *Server) SetEgresados(records ...types.RawEgresado) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.egresados = slices.Clone(records)
}

// Egresado returns the stored record with id.
func (s *Server) Egresado(id string) (types.RawEgresado, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.egresados {
		if e.ID == id {
			return e, true
		}
	}
	return types.RawEgresado{}, false
}

// SetForms replaces the forms.
func (s *Server) SetForms(forms ...types.Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms = slices.Clone(forms)
}

// Forms returns the stored forms.
func (s *Server) Forms() []types.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.forms)
}

// SetExport sets the spreadsheet bytes returned for form id.
func (s *Server) SetExport(id string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports[id] = content
}

// Override replaces the handler for an exact "METHOD /path" pair.
func (s *Server) Override(methodPath string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[methodPath] = h
}

// WriteSuccess writes a success envelope carrying data.
func WriteSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": data})
}

// WriteError writes an error envelope carrying message.
func WriteError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "error", "message": message})
}

// IssueJWT signs a token carrying roles. The console never verifies the signature.
func IssueJWT(t testing.TB, roles ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   AdminEmail,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
		"roles": roles,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("apitest-signing-key"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytesReader(body))

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		})
		override := s.overrides[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		auth := r.Header.Get("Authorization")
		s.mu.Lock()
		ok := len(auth) > len(prefix) && auth[:len(prefix)] == prefix && s.tokens[auth[len(prefix):]]
		s.mu.Unlock()
		if !ok {
			WriteError(w, "Token expired or invalid")
			return
		}
		next(w, r)
	}
}
