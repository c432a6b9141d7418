package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"slices"

	"github.com/google/uuid"

	"github.com/jonathan/egresados-admin/internal/types"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Malformed request")
		return
	}
	if req.Email != AdminEmail || req.Password != AdminPassword {
		WriteError(w, "Bad credentials")
		return
	}

	s.mu.Lock()
	tok := s.loginToken
	s.tokens[tok] = true
	s.mu.Unlock()

	WriteSuccess(w, types.LoginResponse{Token: tok})
}

func (s *Server) handleListEgresados(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	records := slices.Clone(s.egresados)
	s.mu.Unlock()
	if records == nil {
		records = []types.RawEgresado{}
	}
	WriteSuccess(w, records)
}

func (s *Server) handleGetEgresado(w http.ResponseWriter, r *http.Request) {
	e, ok := s.Egresado(r.PathValue("id"))
	if !ok {
		WriteSuccess(w, nil)
		return
	}
	WriteSuccess(w, e)
}

func (s *Server) handleApproveEgresados(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		WriteError(w, "Malformed request")
		return
	}

	s.mu.Lock()
	for i := range s.egresados {
		if slices.Contains(ids, s.egresados[i].ID) {
			s.egresados[i].Approved = true
		}
	}
	s.mu.Unlock()

	WriteSuccess(w, nil)
}

func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, "Missing file")
		return
	}
	_ = file.Close()

	id := r.PathValue("id")
	link := "https://files/" + header.Filename

	s.mu.Lock()
	found := false
	for i := range s.egresados {
		if s.egresados[i].ID == id {
			s.egresados[i].ResumeLink = link
			found = true
		}
	}
	s.mu.Unlock()

	if !found {
		WriteError(w, "Egresado not found")
		return
	}
	WriteSuccess(w, link)
}

func (s *Server) handleListForms(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	raw := make([]types.RawForm, 0, len(s.forms))
	for _, f := range s.forms {
		raw = append(raw, types.RawForm{
			ID:                   f.ID,
			Name:                 f.Name,
			AnswersCollectedFrom: f.AnswersCollectedFrom,
			Published:            f.Published,
		})
	}
	s.mu.Unlock()
	WriteSuccess(w, raw)
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if f.ID == id {
			WriteSuccess(w, f)
			return
		}
	}
	WriteSuccess(w, nil)
}

func (s *Server) handleSaveForm(w http.ResponseWriter, r *http.Request) {
	var dto types.FormDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		WriteError(w, "Malformed form")
		return
	}

	form := types.Form{
		ID:                   uuid.NewString(),
		Name:                 dto.Name,
		AnswersCollectedFrom: dto.AnswersCollectedFrom,
		Published:            dto.Published,
	}
	if dto.Description != "" {
		desc := dto.Description
		form.Description = &desc
	}
	for _, q := range dto.Questions {
		form.Questions = append(form.Questions, types.Question{
			ID:              uuid.NewString(),
			Question:        q.Question,
			Type:            q.Type,
			PossibleAnswers: q.PossibleAnswers,
		})
	}

	s.mu.Lock()
	s.forms = append(s.forms, form)
	s.mu.Unlock()

	WriteSuccess(w, form.ID)
}

func (s *Server) handlePublishForms(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		WriteError(w, "Malformed request")
		return
	}

	s.mu.Lock()
	for i := range s.forms {
		if slices.Contains(ids, s.forms[i].ID) {
			s.forms[i].Published = true
		}
	}
	s.mu.Unlock()

	WriteSuccess(w, nil)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	content, ok := s.exports[r.PathValue("id")]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", XLSXContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
