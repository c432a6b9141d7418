package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jonathan/egresados-admin/internal/types"
)

// Endpoint names used in errors and metrics.
const (
	EndpointLogin           = "admin.login"
	EndpointEgresadoGet     = "egresado.get"
	EndpointEgresadoList    = "egresado.list"
	EndpointEgresadoApprove = "egresado.approve"
	EndpointEgresadoResume  = "egresado.resume"
	EndpointFormList        = "form.list"
	EndpointFormGet         = "form.get"
	EndpointFormSave        = "form.save"
	EndpointFormPublish     = "form.publish"
	EndpointFormExport      = "form.export"
)

// Login exchanges admin credentials for a bearer token. It needs no session.
func (c *Client) Login(ctx context.Context, creds types.LoginRequest) (string, error) {
	req, err := jsonRequest(EndpointLogin, http.MethodPost, "/admin/login", creds, false)
	if err != nil {
		return "", err
	}
	resp, err := call[types.LoginResponse](ctx, c, req)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// GetEgresado loads one alumnus record. A nil record with a nil error means the API
// answered successfully without data.
func (c *Client) GetEgresado(ctx context.Context, id string) (*types.RawEgresado, error) {
	req := getRequest(EndpointEgresadoGet, "/egresado/"+url.PathEscape(id))
	return call[*types.RawEgresado](ctx, c, req)
}

// ListEgresados loads every alumnus record.
func (c *Client) ListEgresados(ctx context.Context) ([]types.RawEgresado, error) {
	req := getRequest(EndpointEgresadoList, "/egresado/all/list")
	return call[[]types.RawEgresado](ctx, c, req)
}

// ApproveEgresados approves the given alumni in one request.
func (c *Client) ApproveEgresados(ctx context.Context, ids []string) error {
	req, err := jsonRequest(EndpointEgresadoApprove, http.MethodPost, "/egresado/all/approve", ids, true)
	if err != nil {
		return err
	}
	_, err = call[any](ctx, c, req)
	return err
}

// ListForms loads every form.
func (c *Client) ListForms(ctx context.Context) ([]types.RawForm, error) {
	req := getRequest(EndpointFormList, "/form/all")
	return call[[]types.RawForm](ctx, c, req)
}

// GetForm loads one form with its questions and answers. A nil form with a nil
// error means the API answered successfully without data.
func (c *Client) GetForm(ctx context.Context, id string) (*types.Form, error) {
	req := getRequest(EndpointFormGet, "/form/"+url.PathEscape(id))
	return call[*types.Form](ctx, c, req)
}

// SaveForm creates a form.
func (c *Client) SaveForm(ctx context.Context, form types.FormDTO) error {
	if form.AnswersCollectedFrom == nil {
		form.AnswersCollectedFrom = []string{}
	}
	req, err := jsonRequest(EndpointFormSave, http.MethodPost, "/form/save", form, true)
	if err != nil {
		return err
	}
	_, err = call[any](ctx, c, req)
	return err
}

// PublishForms publishes the given forms in one request.
func (c *Client) PublishForms(ctx context.Context, ids []string) error {
	req, err := jsonRequest(EndpointFormPublish, http.MethodPost, "/form/all/approve", ids, true)
	if err != nil {
		return err
	}
	_, err = call[any](ctx, c, req)
	return err
}
