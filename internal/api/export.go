package api

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"
)

// ExportFilename is the name a downloaded form export is saved under.
func ExportFilename(formName string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(formName))
	if name == "" {
		name = "form"
	}
	return "export-" + name + ".xlsx"
}

// ExportForm downloads the spreadsheet export of form id. A non-2xx status is a
// TransportError; a JSON error envelope is an EnvelopeError. No partial body is returned.
func (c *Client) ExportForm(ctx context.Context, id string) ([]byte, error) {
	start := time.Now()
	data, err := c.exportForm(ctx, id)
	c.observe(EndpointFormExport, err, time.Since(start))
	return data, err
}

func (c *Client) exportForm(ctx context.Context, id string) ([]byte, error) {
	req := getRequest(EndpointFormExport, "/form/export/"+url.PathEscape(id))

	status, header, body, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		return nil, &TransportError{
			Op:         req.method,
			URL:        c.baseURL + req.path,
			Message:    fmt.Sprintf("export failed with HTTP %d", status),
			StatusCode: status,
		}
	}

	if isJSON(header.Get("Content-Type")) {
		result, err := decodeEnvelope[any](c.schemas, body)
		if err != nil {
			return nil, &TransportError{
				Op: req.method, URL: c.baseURL + req.path, Message: "unexpected JSON export body", StatusCode: status, Cause: err,
			}
		}
		if !result.IsOk() {
			return nil, &EnvelopeError{Endpoint: req.endpoint, Message: result.Message()}
		}
		return nil, &TransportError{
			Op: req.method, URL: c.baseURL + req.path, Message: "export returned no file", StatusCode: status,
		}
	}

	if len(body) == 0 {
		return nil, &TransportError{
			Op: req.method, URL: c.baseURL + req.path, Message: "export returned an empty file", StatusCode: status,
		}
	}
	return body, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
