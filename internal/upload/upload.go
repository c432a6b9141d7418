// Package upload validates files picked by the admin and submits résumés to the API.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonathan/egresados-admin/internal/types"
)

// Size limits.
const (
	MaxResumeBytes = 10 << 20
	MaxMediaBytes  = 5 << 20
)

// ValidationError is a local rejection of user input; nothing was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// File is an uploaded file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file length in bytes.
func (f *File) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// FromRequest reads the multipart file in field. A missing file yields (nil, nil) so
// the caller's validation reports it; files larger than limit are rejected.
func FromRequest(r *http.Request, field string, limit int64) (*File, error) {
	mf, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	defer func() { _ = mf.Close() }()

	data, err := io.ReadAll(io.LimitReader(mf, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, &ValidationError{Field: field, Message: fmt.Sprintf("file exceeds %d bytes", limit)}
	}

	return &File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func requireFile(field string, f *File) error {
	if f == nil || f.Name == "" {
		return &ValidationError{Field: field, Message: "please select a file"}
	}
	if f.Size() == 0 {
		return &ValidationError{Field: field, Message: "the selected file is empty"}
	}
	return nil
}

// ValidateMedia checks an advertisement image or banner: present, within
// MaxMediaBytes, and sniffed as an image.
func ValidateMedia(f *File) error {
	if err := requireFile("media", f); err != nil {
		return err
	}
	if f.Size() > MaxMediaBytes {
		return &ValidationError{Field: "media", Message: "image exceeds 5 MB"}
	}
	if ct := http.DetectContentType(f.Data); !strings.HasPrefix(ct, "image/") {
		return &ValidationError{Field: "media", Message: fmt.Sprintf("expected an image, got %s", ct)}
	}
	return nil
}

// ResumeSender is the API call used for résumé uploads.
type ResumeSender interface {
	UploadResume(ctx context.Context, id, filename string, content io.Reader) (string, error)
}

// ResumeUploader submits résumés for alumni.
type ResumeUploader struct {
	sender ResumeSender
}

// NewResumeUploader creates an uploader sending through s.
func NewResumeUploader(s ResumeSender) *ResumeUploader {
	return &ResumeUploader{sender: s}
}

// Upload validates f, sends it for egresadoID and returns the stored reference.
// A nil or empty file is a *ValidationError and no request is made.
func (u *ResumeUploader) Upload(ctx context.Context, egresadoID string, f *File) (string, error) {
	if err := requireFile("file", f); err != nil {
		return "", err
	}
	if f.Size() > MaxResumeBytes {
		return "", &ValidationError{Field: "file", Message: "file exceeds 10 MB"}
	}

	link, err := u.sender.UploadResume(ctx, egresadoID, f.Name, bytes.NewReader(f.Data))
	if err != nil {
		return "", err
	}
	return link, nil
}

// UploadInto uploads f for e and, on success, replaces e.ResumeLink with the
// reference the API returned.
func (u *ResumeUploader) UploadInto(ctx context.Context, e *types.RawEgresado, f *File) error {
	link, err := u.Upload(ctx, e.ID, f)
	if err != nil {
		return err
	}
	e.ResumeLink = link
	return nil
}
