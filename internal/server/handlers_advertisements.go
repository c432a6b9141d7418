package server

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/egresados-admin/internal/ads"
	"github.com/jonathan/egresados-admin/internal/notify"
	"github.com/jonathan/egresados-admin/internal/upload"
)

// MessageAdCreated is shown after an advertisement is stored.
const MessageAdCreated = "The advertisement was created."

type adView struct {
	ID          string
	Name        string
	Placements  string
	Format      string
	Content     template.HTML
	MediaPath   string
	RedirectURL string
	CreatedAt   string
}

type adFormView struct {
	Name        string
	Content     string
	RedirectURL string
	Format      string
	Placements  map[string]bool
}

type advertisementsView struct {
	Ads        []adView
	Form       adFormView
	Placements []string
	Formats    []string
}

func newAdvertisementsView(list []ads.Advertisement, form adFormView) advertisementsView {
	v := advertisementsView{Form: form}
	for _, p := range ads.Placements {
		v.Placements = append(v.Placements, string(p))
	}
	for _, f := range ads.Formats {
		v.Formats = append(v.Formats, string(f))
	}
	if v.Form.Format == "" {
		v.Form.Format = string(ads.FormatText)
	}

	for _, a := range list {
		placements := make([]string, 0, len(a.Placements))
		for _, p := range a.Placements {
			placements = append(placements, string(p))
		}
		av := adView{
			ID:         a.ID,
			Name:       a.Name,
			Placements: strings.Join(placements, ", "),
			Format:     string(a.Format),
			// Content was sanitized with bluemonday before it was stored.
			Content:     template.HTML(a.Content), //nolint:gosec
			RedirectURL: a.RedirectURL,
			CreatedAt:   a.CreatedAt.Format("2006-01-02 15:04"),
		}
		if len(a.Media) > 0 {
			av.MediaPath = pathAdvertisements + "/" + url.PathEscape(a.ID) + "/media"
		}
		v.Ads = append(v.Ads, av)
	}
	return v
}

// handleAdvertisements lists stored advertisements next to the creation form.
func (s *Server) handleAdvertisements(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.sessionState(w, r)
	if !ok || !s.requireToken(w, r, sess) {
		return
	}
	s.renderAdvertisements(w, r, http.StatusOK, adFormView{}, nil)
}

func (s *Server) renderAdvertisements(w http.ResponseWriter, r *http.Request, status int, form adFormView, notes []notify.Notification) {
	list, err := s.ads.ListAdvertisements(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list advertisements")
		notes = append(notes, notify.Failure("Could not load advertisements."))
	}

	s.render(w, r, status, "advertisements", page{
		Title:         "Advertisements",
		Nav:           "advertisements",
		Dashboard:     true,
		Notifications: notes,
		ActionHref:    pathAdvertisements,
		Data:          newAdvertisementsView(list, form),
	})
}

// handleCreateAdvertisement validates and stores a new advertisement. Image and
// banner ads carry their media as the multipart field "media".
func (s *Server) handleCreateAdvertisement(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.sessionState(w, r)
	if !ok || !s.requireToken(w, r, sess) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxMediaBytes+(1<<20))
	if err := r.ParseMultipartForm(upload.MaxMediaBytes + (1 << 20)); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.renderAdvertisements(w, r, http.StatusBadRequest, adFormView{},
			[]notify.Notification{notify.Invalid(notify.TitleValidation, "The submission could not be read.")})
		return
	}

	form := adFormView{
		Name:        r.FormValue("name"),
		Content:     r.FormValue("content"),
		RedirectURL: r.FormValue("redirect_url"),
		Format:      r.FormValue("format"),
		Placements:  map[string]bool{},
	}
	ad := ads.Advertisement{
		Name:        form.Name,
		Format:      ads.Format(form.Format),
		Content:     form.Content,
		RedirectURL: form.RedirectURL,
	}
	for _, p := range r.Form["placement"] {
		form.Placements[p] = true
		ad.Placements = append(ad.Placements, ads.Placement(p))
	}

	invalid := func(field, message string) {
		err := &ErrValidation{Field: field, Message: message}
		s.renderAdvertisements(w, r, HTTPStatus(err), form,
			[]notify.Notification{notify.Invalid(notify.TitleValidation, field+": "+message)})
	}

	if ad.Format.NeedsMedia() {
		f, err := upload.FromRequest(r, "media", upload.MaxMediaBytes)
		if err == nil {
			err = upload.ValidateMedia(f)
		}
		if err != nil {
			var verr *upload.ValidationError
			if errors.As(err, &verr) {
				invalid(verr.Field, verr.Message)
			} else {
				invalid("media", "the file could not be read")
			}
			return
		}
		ad.Media = f.Data
		ad.MediaType = http.DetectContentType(f.Data)
	}

	prepared, err := ads.Prepare(ad, s.now())
	if err != nil {
		var verr *ads.ValidationError
		if errors.As(err, &verr) {
			invalid(verr.Field, verr.Message)
			return
		}
		s.log.Error().Err(err).Msg("failed to prepare advertisement")
		s.renderAdvertisements(w, r, http.StatusInternalServerError, form, []notify.Notification{notify.Failure(err.Error())})
		return
	}

	if err := s.ads.SaveAdvertisement(r.Context(), prepared); err != nil {
		s.log.Error().Err(err).Msg("failed to save advertisement")
		s.renderAdvertisements(w, r, http.StatusOK, form, []notify.Notification{notify.Failure("Could not save the advertisement.")})
		return
	}

	s.log.Info().Str("id", prepared.ID).Str("format", string(prepared.Format)).Msg("advertisement created")
	s.renderAdvertisements(w, r, http.StatusOK, adFormView{},
		[]notify.Notification{notify.Success(notify.TitleSuccess, MessageAdCreated)})
}

// handleAdvertisementMedia serves the image of an advertisement.
func (s *Server) handleAdvertisementMedia(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ad, err := s.ads.GetAdvertisement(r.Context(), id)
	if errors.Is(err, ads.ErrNotFound) || (err == nil && len(ad.Media) == 0) {
		s.errorResponse(w, &ErrNotFound{Resource: "advertisement media", ID: id})
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("failed to load advertisement")
		s.errorResponse(w, err)
		return
	}

	w.Header().Set("Content-Type", ad.MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(ad.Media)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ad.Media)
}
