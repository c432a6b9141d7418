package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// ResumeField is the multipart field carrying the résumé file.
const ResumeField = "file"

// UploadResume sends the résumé for egresado id as multipart/form-data and returns
// the stored reference the API answers with.
func (c *Client) UploadResume(ctx context.Context, id, filename string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(ResumeField, filename)
	if err != nil {
		return "", fmt.Errorf("%s: failed to create form file: %w", EndpointEgresadoResume, err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("%s: failed to read file: %w", EndpointEgresadoResume, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%s: failed to finish multipart body: %w", EndpointEgresadoResume, err)
	}

	req := request{
		endpoint:    EndpointEgresadoResume,
		method:      http.MethodPost,
		path:        "/egresado/" + url.PathEscape(id) + "/resume",
		body:        &buf,
		contentType: mw.FormDataContentType(),
		auth:        true,
	}
	return call[string](ctx, c, req)
}
