package loader_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/egresados-admin/internal/api"
	"github.com/jonathan/egresados-admin/internal/api/apitest"
	"github.com/jonathan/egresados-admin/internal/loader"
	"github.com/jonathan/egresados-admin/internal/session"
	"github.com/jonathan/egresados-admin/internal/types"
)

type outcomes map[string]int

func (o outcomes) LoaderOutcome(route, outcome string) {
	o[route+"/"+outcome]++
}

func setup(t *testing.T, token string) (*apitest.Server, *session.Session, *api.Client) {
	t.Helper()
	fake := apitest.New(t)
	sess, err := session.New("sid", session.NewMemoryStore())
	require.NoError(t, err)
	if token != "" {
		fake.Authorize(token)
		require.NoError(t, sess.SetToken(context.Background(), token))
	}
	return fake, sess, api.NewClient(fake.URL(), sess, nil)
}

func TestLoad_NoTokenRedirectsWithoutCalls(t *testing.T) {
	fake, sess, client := setup(t, "")
	rec := outcomes{}

	out := loader.LoadList(context.Background(), sess, client.ListEgresados, types.ProjectEgresados,
		loader.Options{Route: "egresados", Recorder: rec})

	assert.True(t, out.IsRedirect())
	assert.Equal(t, "/", out.Redirect)
	assert.Equal(t, loader.ReasonUnauthenticated, out.Reason)
	assert.Zero(t, fake.CallCount())
	assert.Equal(t, 1, rec["egresados/unauthenticated"])
}

func TestLoad_FetchNotCalledWithoutToken(t *testing.T) {
	_, sess, _ := setup(t, "")
	called := false

	out := loader.Load(context.Background(), sess, func(context.Context) (string, error) {
		called = true
		return "", nil
	}, loader.Options{})

	assert.False(t, called)
	assert.Equal(t, loader.ReasonUnauthenticated, out.Reason)
}

func TestLoad_ErrorEnvelopeClearsToken(t *testing.T) {
	fake, sess, client := setup(t, "T1")
	fake.Revoke()

	out := loader.Load(context.Background(), sess, func(ctx context.Context) (*types.Form, error) {
		return client.GetForm(ctx, "F1")
	}, loader.Options{Route: "form", Fallback: "/admin/dashboard/forms"})

	assert.Equal(t, "/", out.Redirect)
	assert.Equal(t, loader.ReasonSessionInvalid, out.Reason)

	_, ok, err := sess.Token(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "token store must be empty after an error envelope")
}

func TestLoad_TransportFailureUsesFallback(t *testing.T) {
	fake, sess, client := setup(t, "T1")
	fake.Close()

	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	out := loader.Load(context.Background(), sess, func(ctx context.Context) (*types.Form, error) {
		return client.GetForm(ctx, "F1")
	}, loader.Options{Route: "form", Fallback: "/admin/dashboard/forms", Logger: &logger})

	assert.Equal(t, "/admin/dashboard/forms", out.Redirect)
	assert.Equal(t, loader.ReasonTransportFailure, out.Reason)
	assert.Contains(t, logs.String(), "loader transport failure")
	assert.NotContains(t, logs.String(), "T1")

	_, ok, _ := sess.Token(context.Background())
	assert.True(t, ok, "transport failures keep the token")
}

func TestLoad_TransportFailureDefaultsToLogin(t *testing.T) {
	_, sess, _ := setup(t, "T1")

	out := loader.Load(context.Background(), sess, func(context.Context) (int, error) {
		return 0, &api.TransportError{Op: "GET", URL: "x", Message: "boom"}
	}, loader.Options{})

	assert.Equal(t, "/", out.Redirect)
}

func TestLoad_SuccessReturnsDataVerbatim(t *testing.T) {
	fake, sess, client := setup(t, "T1")
	desc := "Encuesta anual"
	form := types.Form{
		ID:          "F1",
		Name:        "Seguimiento",
		Description: &desc,
		Questions:   []types.Question{{ID: "Q1", Question: "¿Trabajas?", Type: types.QuestionText}},
		Published:   true,
	}
	fake.SetForms(form)

	out := loader.Load(context.Background(), sess, func(ctx context.Context) (*types.Form, error) {
		return client.GetForm(ctx, "F1")
	}, loader.Options{})

	require.False(t, out.IsRedirect())
	require.NotNil(t, out.Data)
	assert.Equal(t, form, *out.Data)
	assert.Equal(t, 1, fake.CallCount())
}

func TestLoadList_ProjectsEveryRecord(t *testing.T) {
	fake, sess, client := setup(t, "T1")
	fake.SetEgresados(
		types.RawEgresado{ID: "E1", FullName: "Ana Torres", LoginEmail: "ana@uam.edu", Approved: true},
		types.RawEgresado{ID: "E2", FullName: "Luis Pérez", LoginEmail: "luis@uam.edu"},
	)

	out := loader.LoadList(context.Background(), sess, client.ListEgresados, types.ProjectEgresados, loader.Options{})

	require.False(t, out.IsRedirect())
	require.Len(t, out.Data, 2)
	assert.Equal(t, "Ana Torres", out.Data[0].FullName)
	assert.Equal(t, "ana@uam.edu", out.Data[0].Email)
	assert.True(t, out.Data[0].Approved)
	assert.Equal(t, "Luis Pérez", out.Data[1].FullName)
}

func TestLoad_CancelledResultIsDiscarded(t *testing.T) {
	_, sess, _ := setup(t, "T1")
	ctx, cancel := context.WithCancel(context.Background())
	rec := outcomes{}

	out := loader.Load(ctx, sess, func(context.Context) (string, error) {
		cancel()
		return "late data", nil
	}, loader.Options{Route: "egresado", Recorder: rec})

	assert.True(t, out.Cancelled)
	assert.False(t, out.IsRedirect())
	assert.Empty(t, out.Data)
	assert.Equal(t, 1, rec["egresado/cancelled"])
}

type brokenSession struct{}

func (brokenSession) Token(context.Context) (string, bool, error) {
	return "", false, errors.New("redis down")
}
func (brokenSession) Clear(context.Context) error { return nil }

func TestLoad_SessionReadFailure(t *testing.T) {
	out := loader.Load(context.Background(), brokenSession{}, func(context.Context) (int, error) {
		t.Fatal("fetch must not run")
		return 0, nil
	}, loader.Options{Fallback: "/admin/dashboard/forms"})

	assert.Equal(t, "/admin/dashboard/forms", out.Redirect)
	assert.Equal(t, loader.ReasonTransportFailure, out.Reason)
}
